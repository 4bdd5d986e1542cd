package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/redis"
	"github.com/imtaco/rtc-room-client/sessions"
)

// Key layout:
//
//	<prefix>:s:<id>    session JSON, expires after ttl
//	<prefix>:r:<room>  set of session ids in a room
//	<prefix>:all       set of all session ids
type redisStore struct {
	client redis.Forever
	prefix string
	ttl    time.Duration
	logger *log.Logger
}

func NewRedis(client redis.Forever, prefix string, ttl time.Duration, logger *log.Logger) sessions.Store {
	if client == nil {
		panic("redis client is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *redisStore) sessionKey(id string) string {
	return redis.Key(r.prefix, "s", id)
}

func (r *redisStore) roomKey(room string) string {
	return redis.Key(r.prefix, "r", room)
}

func (r *redisStore) allKey() string {
	return redis.Key(r.prefix, "all")
}

func (r *redisStore) Put(ctx context.Context, s *sessions.Session) error {
	if s == nil || s.ID == "" {
		return errors.New(sessions.ErrInvalidRequest, "session id is required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(sessions.ErrStore, err, "marshal session")
	}
	if err := r.client.Set(ctx, r.sessionKey(s.ID), data, r.ttl); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "set session")
	}
	if err := r.client.SAdd(ctx, r.roomKey(s.RoomName), s.ID); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "index room")
	}
	if err := r.client.Expire(ctx, r.roomKey(s.RoomName), r.ttl); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "expire room index")
	}
	if err := r.client.SAdd(ctx, r.allKey(), s.ID); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "index session")
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, id string) (*sessions.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id))
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.Newf(sessions.ErrSessionNotFound, "session %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(sessions.ErrStore, err, "get session")
	}

	var s sessions.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, errors.Wrapf(sessions.ErrStore, err, "decode session %s", id)
	}
	return &s, nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
		return err
	}
	if s != nil {
		if err := r.client.SRem(ctx, r.roomKey(s.RoomName), id); err != nil {
			return errors.Wrap(sessions.ErrStore, err, "unindex room")
		}
	}
	if err := r.client.SRem(ctx, r.allKey(), id); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "unindex session")
	}
	if err := r.client.Del(ctx, r.sessionKey(id)); err != nil {
		return errors.Wrap(sessions.ErrStore, err, "delete session")
	}
	return nil
}

func (r *redisStore) List(ctx context.Context) ([]*sessions.Session, error) {
	return r.load(ctx, r.allKey())
}

func (r *redisStore) ListByRoom(ctx context.Context, room string) ([]*sessions.Session, error) {
	list, err := r.load(ctx, r.roomKey(room))
	if err != nil {
		return nil, err
	}
	// a session may have been re-put under another room
	result := list[:0]
	for _, s := range list {
		if s.RoomName == room {
			result = append(result, s)
		}
	}
	return result, nil
}

// load resolves an index set, dropping ids whose session key expired.
func (r *redisStore) load(ctx context.Context, indexKey string) ([]*sessions.Session, error) {
	ids, err := r.client.SMembers(ctx, indexKey)
	if err != nil {
		return nil, errors.Wrap(sessions.ErrStore, err, "list index")
	}

	result := make([]*sessions.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if errors.Is(err, sessions.ErrSessionNotFound) {
			r.logger.Debug("drop expired session from index",
				log.String("index", indexKey),
				log.String("sessionId", id))
			if err := r.client.SRem(ctx, indexKey, id); err != nil {
				return nil, errors.Wrap(sessions.ErrStore, err, "prune index")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	sortByCreated(result)
	return result, nil
}
