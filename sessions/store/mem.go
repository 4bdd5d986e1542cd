package store

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/imtaco/rtc-room-client/internal/errors"
	isync "github.com/imtaco/rtc-room-client/internal/sync"
	"github.com/imtaco/rtc-room-client/sessions"
)

type memStore struct {
	sessions *isync.Map[string, *sessions.Session]
}

// NewMem creates a process local store, sessions are copied in and out.
func NewMem() sessions.Store {
	return &memStore{
		sessions: isync.NewMap[string, *sessions.Session](),
	}
}

func (m *memStore) Put(_ context.Context, s *sessions.Session) error {
	if s == nil || s.ID == "" {
		return errors.New(sessions.ErrInvalidRequest, "session id is required")
	}
	m.sessions.Store(s.ID, s.Clone())
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*sessions.Session, error) {
	s, ok := m.sessions.Load(id)
	if !ok {
		return nil, errors.Newf(sessions.ErrSessionNotFound, "session %s", id)
	}
	return s.Clone(), nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.sessions.Delete(id)
	return nil
}

func (m *memStore) List(_ context.Context) ([]*sessions.Session, error) {
	return m.collect(func(*sessions.Session) bool { return true }), nil
}

func (m *memStore) ListByRoom(_ context.Context, room string) ([]*sessions.Session, error) {
	return m.collect(func(s *sessions.Session) bool { return s.RoomName == room }), nil
}

func (m *memStore) collect(match func(*sessions.Session) bool) []*sessions.Session {
	result := lo.Map(m.sessions.Filter(match), func(s *sessions.Session, _ int) *sessions.Session {
		return s.Clone()
	})
	sortByCreated(result)
	return result
}

func sortByCreated(list []*sessions.Session) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
