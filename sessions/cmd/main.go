package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/imtaco/rtc-room-client/internal/config"
	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/httputil"
	"github.com/imtaco/rtc-room-client/internal/jwt"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/otel"
	"github.com/imtaco/rtc-room-client/internal/redis"
	"github.com/imtaco/rtc-room-client/internal/retry"
	"github.com/imtaco/rtc-room-client/internal/roomsvc"
	"github.com/imtaco/rtc-room-client/internal/token"
	"github.com/imtaco/rtc-room-client/internal/workflow"
	"github.com/imtaco/rtc-room-client/sessions"
	"github.com/imtaco/rtc-room-client/sessions/service"
	"github.com/imtaco/rtc-room-client/sessions/store"
	"github.com/imtaco/rtc-room-client/sessions/transport"
)

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type Config struct {
	App          config.App       `mapstructure:"app"`
	Http         httputil.Config  `mapstructure:"http"`
	Redis        redis.Config     `mapstructure:"redis"`
	Otel         otel.Config      `mapstructure:"otel"`
	LiveKit      roomsvc.Config   `mapstructure:"livekit"`
	Session      sessions.Config  `mapstructure:"session"`
	Transport    transport.Config `mapstructure:"transport"`
	Retry        retry.Config     `mapstructure:"retry"`
	Store        StoreConfig      `mapstructure:"store"`
	JWTSecret    string           `mapstructure:"jwt_secret"`
	AccessKeyTTL time.Duration    `mapstructure:"access_key_ttl"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("jwt_secret", "MY-secret-key-change-in-production")
		v.SetDefault("access_key_ttl", "12h")
		v.SetDefault("store.driver", constants.StoreDriverMemory)

		config.Setup(v, "app")
		redis.Setup(v, "redis")
		otel.Setup(v, "otel")
		httputil.Setup(v, "http")
		roomsvc.Setup(v, "livekit")
		sessions.Setup(v, "session")
		transport.Setup(v, "transport")
		retry.Setup(v, "retry")

		// override default addrs to ease testing
		v.SetDefault("http.addr", "0.0.0.0:8090")
	})
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}
	if err := config.Session.Validate(); err != nil {
		log.Fatal("Invalid session configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer logger.Sync()

	// global background context
	ctx := context.Background()

	// Initialize OpenTelemetry
	otelShutdown, err := otel.Init(ctx, &config.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting Session Service...",
		log.String("livekit", config.LiveKit.URL),
		log.String("store", config.Store.Driver))

	var sessionStore sessions.Store
	var closeStore func() error
	switch config.Store.Driver {
	case constants.StoreDriverRedis:
		redisClient := redis.NewClient(&config.Redis)
		// check Redis
		if err := redis.Ping(ctx, redisClient); err != nil {
			logger.Fatal("Failed to connect to Redis", log.Error(err))
		}
		forever := redis.NewForever(
			redisClient,
			config.Retry.InitialInterval,
			config.Retry.MaxInterval,
			logger.Module("Redis"),
		)
		sessionStore = store.NewRedis(forever, config.Redis.Prefix, config.Session.SessionTTL, logger.Module("Store"))
		closeStore = redisClient.Close
	case constants.StoreDriverMemory:
		sessionStore = store.NewMem()
		closeStore = func() error { return nil }
	default:
		logger.Fatal("Unknown store driver", log.String("driver", config.Store.Driver))
	}

	minter := token.NewMinter(config.LiveKit.APIKey, config.LiveKit.APISecret)
	rooms := roomsvc.NewRoomService(&config.LiveKit, logger.Module("RoomSvc"))
	prober := roomsvc.NewProber(config.LiveKit.URL, config.Transport.ProbeTimeout)
	webhook := roomsvc.NewWebhookReceiver(config.LiveKit.APIKey, config.LiveKit.APISecret)
	rty := retry.NewFromConfig(&config.Retry, logger.Module("Retry"))

	sessionSvc, err := service.NewSessionService(
		&config.Session,
		config.LiveKit.URL,
		sessionStore,
		minter,
		rooms,
		rty,
		logger.Module("SessionSvc"),
	)
	if err != nil {
		logger.Fatal("Failed to create Session Service", log.Error(err))
	}

	// Initialize JWT Auth for browser access keys
	jwtAuth := jwt.NewAuth(config.JWTSecret, config.AccessKeyTTL)

	// Initialize REST API router
	router := transport.NewRouter(
		sessionSvc,
		jwtAuth,
		webhook,
		prober,
		&config.Transport,
		logger.Module("Router"),
	)
	server := httputil.NewServer(&config.Http, router.Handler())

	if err := sessionSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start Session Service", log.Error(err))
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info("Starting REST API server", log.String("addr", config.Http.Addr))
		if err := server.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start REST API server", log.Error(err))
		}
	}()

	// Graceful shutdown
	cleanup := func(ctx context.Context) {
		router.Close()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down REST API server", log.Error(err))
		}
		sessionSvc.Stop()

		if err := closeStore(); err != nil {
			logger.Error("Error closing session store", log.Error(err))
		}
		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
