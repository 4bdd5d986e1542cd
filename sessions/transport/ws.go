package transport

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/workflow"
	"github.com/imtaco/rtc-room-client/sessions"
)

// events streams session changes to the browser until the session is
// closed, the peer goes away or the router shuts down.
func (r *Router) events(c *gin.Context) {
	id := c.Param("sessionId")
	sess, err := r.sessionSvc.Get(c.Request.Context(), id)
	if err != nil {
		r.failed(c, "Failed to open event stream", err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: r.cfg.AllowedOrigins,
	})
	if err != nil {
		r.logger.Warn("WebSocket open failed",
			log.String("sessionId", id),
			log.String("remote_addr", c.Request.RemoteAddr),
			log.Error(err))
		return
	}
	defer conn.CloseNow()

	ch, unsubscribe := r.sessionSvc.Subscribe(id)
	defer unsubscribe()

	eventStreams.Add(r.ctx, 1)
	defer eventStreams.Add(r.ctx, -1)

	// client messages are not expected, CloseRead handles control frames
	ctx, cancel := workflow.WithEitherDone(conn.CloseRead(c.Request.Context()), r.ctx)
	defer cancel()

	logger := r.logger.With(log.String("sessionId", id))
	logger.Debug("Event stream opened")

	snapshot := sessions.Event{
		Type:    sessions.EventSessionUpdated,
		Session: sess,
		TS:      time.Now(),
	}
	if err := r.writeEvent(ctx, conn, snapshot); err != nil {
		logger.Debug("Event stream write failed", log.Error(err))
		return
	}

	ticker := time.NewTicker(r.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Event stream closed", log.Error(ctx.Err()))
			return
		case <-ticker.C:
			if err := r.ping(ctx, conn); err != nil {
				logger.Debug("Event stream ping failed", log.Error(err))
				return
			}
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			if err := r.writeEvent(ctx, conn, ev); err != nil {
				logger.Debug("Event stream write failed", log.Error(err))
				return
			}
			if ev.Type == sessions.EventSessionClosed {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
		}
	}
}

func (r *Router) writeEvent(ctx context.Context, conn *websocket.Conn, ev sessions.Event) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, newEventMessage(ev))
}

func (r *Router) ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()
	return conn.Ping(ctx)
}
