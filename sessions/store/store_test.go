package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/internal/redis"
	"github.com/imtaco/rtc-room-client/sessions"
)

// StoreTestSuite runs the same contract against every driver.
type StoreTestSuite struct {
	suite.Suite
	newStore func() sessions.Store
	store    sessions.Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.store = s.newStore()
	s.ctx = context.Background()
}

func TestMemStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: NewMem})
}

func TestRedisStoreSuite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	suite.Run(t, &StoreTestSuite{newStore: func() sessions.Store {
		mr.FlushAll()
		forever := redis.NewForever(client, time.Millisecond, 10*time.Millisecond, log.NewTest(t))
		return NewRedis(forever, "test", time.Hour, log.NewTest(t))
	}})
}

func newSession(id, room string, created time.Time) *sessions.Session {
	return &sessions.Session{
		ID:        id,
		RoomName:  room,
		Identity:  "web-user-" + id,
		Name:      "web-user-" + id,
		State:     constants.SessionStateIdle,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *StoreTestSuite) TestPutGet() {
	created := time.Unix(1700000000, 0).UTC()
	in := newSession("s1", "room-a", created)
	in.Token = "tok"
	in.TokenExpiresAt = created.Add(time.Hour)
	in.State = constants.SessionStateReady
	s.Require().NoError(s.store.Put(s.ctx, in))

	out, err := s.store.Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal("room-a", out.RoomName)
	s.Equal("tok", out.Token)
	s.Equal(constants.SessionStateReady, out.State)
	s.True(in.TokenExpiresAt.Equal(out.TokenExpiresAt))
	s.True(created.Equal(out.CreatedAt))

	// returned value is a copy
	out.State = constants.SessionStateFailed
	again, err := s.store.Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal(constants.SessionStateReady, again.State)
}

func (s *StoreTestSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, sessions.ErrSessionNotFound)
}

func (s *StoreTestSuite) TestPutRequiresID() {
	s.ErrorIs(s.store.Put(s.ctx, &sessions.Session{}), sessions.ErrInvalidRequest)
	s.ErrorIs(s.store.Put(s.ctx, nil), sessions.ErrInvalidRequest)
}

func (s *StoreTestSuite) TestDelete() {
	s.Require().NoError(s.store.Put(s.ctx, newSession("s1", "room-a", time.Now())))
	s.Require().NoError(s.store.Delete(s.ctx, "s1"))

	_, err := s.store.Get(s.ctx, "s1")
	s.ErrorIs(err, sessions.ErrSessionNotFound)

	list, err := s.store.ListByRoom(s.ctx, "room-a")
	s.Require().NoError(err)
	s.Empty(list)

	// deleting twice is fine
	s.NoError(s.store.Delete(s.ctx, "s1"))
}

func (s *StoreTestSuite) TestListAndListByRoom() {
	base := time.Unix(1700000000, 0).UTC()
	s.Require().NoError(s.store.Put(s.ctx, newSession("s2", "room-a", base.Add(time.Second))))
	s.Require().NoError(s.store.Put(s.ctx, newSession("s1", "room-a", base)))
	s.Require().NoError(s.store.Put(s.ctx, newSession("s3", "room-b", base.Add(2*time.Second))))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"s1", "s2", "s3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	roomA, err := s.store.ListByRoom(s.ctx, "room-a")
	s.Require().NoError(err)
	s.Require().Len(roomA, 2)
	s.Equal("s1", roomA[0].ID)
	s.Equal("s2", roomA[1].ID)

	none, err := s.store.ListByRoom(s.ctx, "room-c")
	s.Require().NoError(err)
	s.Empty(none)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	forever := redis.NewForever(client, time.Millisecond, 10*time.Millisecond, log.NewTest(t))
	st := NewRedis(forever, "test", time.Minute, log.NewTest(t))
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, newSession("s1", "room-a", time.Now())))
	assert.True(t, mr.Exists("test:s:s1"))
	assert.True(t, mr.Exists("test:r:room-a"))
	assert.Equal(t, time.Minute, mr.TTL("test:s:s1"))

	mr.FastForward(2 * time.Minute)

	_, err := st.Get(ctx, "s1")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	members, _ := mr.Members("test:all")
	assert.Empty(t, members, "expired ids are pruned from the index")
}
