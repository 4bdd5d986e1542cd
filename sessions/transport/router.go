package transport

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/jwt"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/network"
	"github.com/imtaco/rtc-room-client/internal/roomsvc"
	"github.com/imtaco/rtc-room-client/internal/validation"
	"github.com/imtaco/rtc-room-client/sessions"
)

//go:embed static/index.html
var indexHTML []byte

type Router struct {
	sessionSvc sessions.SessionService
	jwtAuth    jwt.Auth
	webhook    roomsvc.WebhookReceiver
	prober     roomsvc.Prober
	limiter    *clientLimiter
	cfg        *Config
	engine     *gin.Engine
	host       string
	// cancelled by Close, ends open event streams
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
}

func NewRouter(
	sessionSvc sessions.SessionService,
	jwtAuth jwt.Auth,
	webhook roomsvc.WebhookReceiver,
	prober roomsvc.Prober,
	cfg *Config,
	logger *log.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add OpenTelemetry middleware for automatic HTTP tracing
	engine.Use(otelgin.Middleware("room-client"))

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		sessionSvc: sessionSvc,
		jwtAuth:    jwtAuth,
		webhook:    webhook,
		prober:     prober,
		limiter:    newClientLimiter(cfg.LimiterCacheSize, cfg.CreateRate, cfg.CreateBurst),
		cfg:        cfg,
		engine:     engine,
		host:       network.HostIP().String(),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

// Close ends open event streams, hijacked connections are not covered by
// http.Server.Shutdown.
func (r *Router) Close() {
	r.cancel()
}

func (r *Router) setupRoutes() {
	r.engine.GET("/", r.index)

	api := r.engine.Group("/api/sessions")
	api.POST("", r.rateLimit, r.createSession)

	sess := api.Group("/:sessionId", r.authorize)
	sess.GET("", r.getSession)
	sess.DELETE("", r.closeSession)
	sess.POST("/token", r.generateToken)
	sess.POST("/join", r.join)
	sess.POST("/disconnect", r.disconnect)
	sess.GET("/presence", r.presence)
	sess.POST("/speakers", r.reportSpeakers)
	sess.GET("/events", r.events)

	// provider webhook
	r.engine.POST("/webhook", r.receiveWebhook)

	// Health check
	r.engine.GET("/health", r.healthCheck)
}

func validationFailed(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Validation failed",
		"details": validation.FormatValidationError(err),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrInvalidState), errors.Is(err, sessions.ErrTokenStale):
		return http.StatusConflict
	case errors.Is(err, sessions.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (r *Router) failed(c *gin.Context, msg string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error(msg, log.String("path", c.FullPath()), log.Error(err))
	} else {
		r.logger.Debug(msg, log.String("path", c.FullPath()), log.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    string(errors.CodeOf(err)),
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	if header != "" {
		return header
	}
	// browsers cannot set headers on websocket upgrades
	return c.Query("access_key")
}

// authorize accepts only the access key issued for the session in the path.
func (r *Router) authorize(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		validationFailed(c, err)
		return
	}

	raw := bearerToken(c)
	if raw == "" {
		authFailures.Add(c.Request.Context(), 1)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Authorization required",
		})
		return
	}

	payload, err := r.jwtAuth.Verify(raw)
	if err != nil {
		authFailures.Add(c.Request.Context(), 1)
		r.logger.Debug("Invalid access key", log.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid access key",
		})
		return
	}

	if subtle.ConstantTimeCompare([]byte(uri.SessionID), []byte(payload.SessionID)) != 1 {
		authFailures.Add(c.Request.Context(), 1)
		r.logger.Warn("Session mismatch",
			log.String("sessionId", uri.SessionID),
			log.String("keySessionId", payload.SessionID))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied",
		})
		return
	}

	c.Next()
}

func (r *Router) rateLimit(c *gin.Context) {
	if !r.limiter.allow(c.ClientIP()) {
		rateLimited.Add(c.Request.Context(), 1)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "Too many requests",
		})
		return
	}
	c.Next()
}

func (r *Router) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (r *Router) createSession(c *gin.Context) {
	var body CreateSessionBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			validationFailed(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	sess, err := r.sessionSvc.Create(ctx, sessions.CreateOptions{
		Name: body.Name,
		Room: body.Room,
	})
	if err != nil {
		r.failed(c, "Failed to create session", err)
		return
	}

	accessKey, err := r.jwtAuth.Sign(sess.ID, sess.Identity)
	if err != nil {
		r.logger.Error("Failed to sign access key", log.String("sessionId", sess.ID), log.Error(err))
		if cerr := r.sessionSvc.Close(ctx, sess.ID); cerr != nil {
			r.logger.Warn("Failed to drop unusable session", log.String("sessionId", sess.ID), log.Error(cerr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to sign access key",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   newSessionResponse(sess),
		"accessKey": accessKey,
	})
}

func (r *Router) getSession(c *gin.Context) {
	sess, err := r.sessionSvc.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		r.failed(c, "Failed to get session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": newSessionResponse(sess)})
}

func (r *Router) generateToken(c *gin.Context) {
	sess, err := r.sessionSvc.GenerateToken(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		r.failed(c, "Failed to generate token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": newSessionResponse(sess)})
}

func (r *Router) join(c *gin.Context) {
	id := c.Param("sessionId")
	info, err := r.sessionSvc.Join(c.Request.Context(), id)
	if err != nil {
		r.failed(c, "Failed to join", err)
		return
	}
	r.logger.Info("Join granted",
		log.String("sessionId", id),
		log.String("room", info.Room))
	c.JSON(http.StatusOK, info)
}

func (r *Router) disconnect(c *gin.Context) {
	sess, err := r.sessionSvc.Disconnect(c.Request.Context(), c.Param("sessionId"), constants.DisconnectReasonClient)
	if err != nil {
		r.failed(c, "Failed to disconnect", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": newSessionResponse(sess)})
}

func (r *Router) closeSession(c *gin.Context) {
	id := c.Param("sessionId")
	if err := r.sessionSvc.Close(c.Request.Context(), id); err != nil {
		r.failed(c, "Failed to close session", err)
		return
	}
	r.logger.Info("Session closed", log.String("sessionId", id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) presence(c *gin.Context) {
	p, err := r.sessionSvc.Presence(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		r.failed(c, "Failed to load presence", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Router) reportSpeakers(c *gin.Context) {
	var body ReportSpeakersBody
	if err := c.ShouldBindJSON(&body); err != nil {
		validationFailed(c, err)
		return
	}
	if err := r.sessionSvc.ReportSpeakers(c.Request.Context(), c.Param("sessionId"), body.Identities); err != nil {
		r.failed(c, "Failed to report speakers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) receiveWebhook(c *gin.Context) {
	event, err := r.webhook.Receive(c.Request)
	if err != nil {
		webhookReject.Add(c.Request.Context(), 1)
		r.logger.Warn("Rejected webhook", log.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid webhook",
		})
		return
	}

	if err := r.sessionSvc.HandleWebhook(c.Request.Context(), event); err != nil {
		r.failed(c, "Failed to handle webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Router) healthCheck(c *gin.Context) {
	provider := "ok"
	ctx, cancel := context.WithTimeout(c.Request.Context(), r.cfg.ProbeTimeout)
	defer cancel()
	if err := r.prober.Probe(ctx); err != nil {
		r.logger.Debug("Provider probe failed", log.Error(err))
		provider = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"provider":  provider,
		"host":      r.host,
		"timestamp": time.Now().Unix(),
	})
}
