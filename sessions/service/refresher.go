package service

import (
	"context"
	"strings"
	"time"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/sessions"
)

// schedule replaces any pending timer for key.
func (s *serviceImpl) schedule(key string, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	s.scheduler.Cancel(key)
	s.scheduler.Enqueue(key, delay)
}

func (s *serviceImpl) scheduleExpiry(sess *sessions.Session) {
	if sess.State == constants.SessionStateConnected {
		s.schedule(expireKeyPrefix+sess.ID, s.keepAliveInterval())
		return
	}
	s.schedule(expireKeyPrefix+sess.ID, sess.UpdatedAt.Add(s.cfg.SessionTTL).Sub(s.clock.Now()))
}

// keepAliveInterval is how often a connected session is rewritten so the
// store, which expires entries after session_ttl, keeps it.
func (s *serviceImpl) keepAliveInterval() time.Duration {
	return s.cfg.SessionTTL / 2
}

// scheduleRefresh regenerates the token margin before it expires, so a
// ready session always holds a token that can pass the join check.
func (s *serviceImpl) scheduleRefresh(sess *sessions.Session) {
	s.schedule(refreshKeyPrefix+sess.ID, s.refreshAt(sess).Sub(s.clock.Now()))
}

func (s *serviceImpl) refreshAt(sess *sessions.Session) time.Time {
	return sess.TokenExpiresAt.Add(-s.cfg.TokenRefreshMargin)
}

func (s *serviceImpl) timerLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case key, ok := <-s.scheduler.Chan():
			if !ok {
				return
			}
			s.handleTimer(key)
		}
	}
}

func (s *serviceImpl) handleTimer(key string) {
	switch {
	case strings.HasPrefix(key, refreshKeyPrefix):
		s.onRefresh(strings.TrimPrefix(key, refreshKeyPrefix))
	case strings.HasPrefix(key, expireKeyPrefix):
		s.onExpire(strings.TrimPrefix(key, expireKeyPrefix))
	default:
		s.logger.Warn("Unknown timer key", log.String("key", key))
	}
}

func (s *serviceImpl) onRefresh(id string) {
	sess, err := s.store.Get(s.ctx, id)
	if err != nil {
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			s.logger.Error("Failed to load session for refresh", log.String("sessionId", id), log.Error(err))
		}
		return
	}
	if sess.State != constants.SessionStateReady || sess.TokenUsed {
		return
	}
	if wait := s.refreshAt(sess).Sub(s.clock.Now()); wait > 0 {
		s.schedule(refreshKeyPrefix+id, wait)
		return
	}

	tokensRefreshed.Add(s.ctx, 1)
	s.logger.Debug("Refreshing token", log.String("sessionId", id))
	s.generateAsync(id)
}

func (s *serviceImpl) onExpire(id string) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.store.Get(s.ctx, id)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			s.locks.Delete(id)
			return
		}
		s.logger.Error("Failed to load session for expiry", log.String("sessionId", id), log.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	// a participant in the room keeps the session alive
	if sess.State == constants.SessionStateConnected {
		if err := s.store.Put(ctx, sess); err != nil {
			s.logger.Error("Failed to keep connected session", log.String("sessionId", id), log.Error(err))
		}
		s.schedule(expireKeyPrefix+id, s.keepAliveInterval())
		return
	}
	if wait := sess.UpdatedAt.Add(s.cfg.SessionTTL).Sub(s.clock.Now()); wait > 0 {
		s.schedule(expireKeyPrefix+id, wait)
		return
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete expired session", log.String("sessionId", id), log.Error(err))
		return
	}
	s.forget(sess)
	sessionsExpired.Add(ctx, 1)
	s.logger.Info("Session expired", log.String("sessionId", id))
}
