package service

import (
	"context"

	"github.com/livekit/protocol/livekit"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/sessions"
)

// HandleWebhook applies provider room events to the sessions in that room.
func (s *serviceImpl) HandleWebhook(ctx context.Context, event *livekit.WebhookEvent) error {
	room := event.GetRoom().GetName()
	identity := event.GetParticipant().GetIdentity()
	kind := constants.WebhookEvent(event.GetEvent())

	webhookEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", string(kind))))
	s.logger.Debug("Webhook event",
		log.String("event", string(kind)),
		log.String("room", room),
		log.String("identity", identity))

	if room == "" {
		return nil
	}
	s.invalidatePresence(room)

	list, err := s.store.ListByRoom(ctx, room)
	if err != nil {
		return err
	}

	switch kind {
	case constants.WebhookParticipantJoined:
		if sess, ok := findByIdentity(list, identity); ok {
			if err := ignoreGone(s.markJoined(ctx, sess.ID)); err != nil {
				return err
			}
		}
	case constants.WebhookParticipantLeft:
		if sess, ok := findByIdentity(list, identity); ok {
			if _, err := s.Disconnect(ctx, sess.ID, constants.DisconnectReasonLeft); ignoreGone(err) != nil {
				return err
			}
		}
	case constants.WebhookRoomFinished:
		s.speakers.forget(room)
		for _, sess := range list {
			if _, err := s.Disconnect(ctx, sess.ID, constants.DisconnectReasonRoomClosed); ignoreGone(err) != nil {
				return err
			}
		}
	}

	// participant and track changes alter what every session in the room sees
	for _, sess := range list {
		s.hub.publish(sess.ID, sessions.Event{
			Type: sessions.EventPresenceChanged,
			TS:   s.clock.Now(),
		})
	}
	return nil
}

// ignoreGone drops not found errors for sessions closed while the event was handled.
func ignoreGone(err error) error {
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return nil
	}
	return err
}

func findByIdentity(list []*sessions.Session, identity string) (*sessions.Session, bool) {
	if identity == "" {
		return nil, false
	}
	return lo.Find(list, func(sess *sessions.Session) bool {
		return sess.Identity == identity
	})
}

// markJoined covers a participant that joined with a token the session still
// considered unused.
func (s *serviceImpl) markJoined(ctx context.Context, id string) error {
	_, err := s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State != constants.SessionStateReady {
			return errNoChange
		}
		sess.State = constants.SessionStateConnected
		sess.TokenUsed = true
		return nil
	})
	if err == nil {
		s.scheduler.Cancel(refreshKeyPrefix + id)
	}
	return err
}
