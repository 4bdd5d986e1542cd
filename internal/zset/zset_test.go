package zset

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ZsetTestSuite struct {
	suite.Suite
	zset *Zset[[]string]
	now  time.Time
}

func TestZsetSuite(t *testing.T) {
	suite.Run(t, new(ZsetTestSuite))
}

func (s *ZsetTestSuite) SetupTest() {
	s.zset = New[[]string]()
	s.now = time.Unix(1700000000, 0)
}

func (s *ZsetTestSuite) at(sec int) time.Time {
	return s.now.Add(time.Duration(sec) * time.Second)
}

func keys[T any](entries []Entry[T]) []string {
	return lo.Map(entries, func(e Entry[T], _ int) string { return e.Key })
}

func (s *ZsetTestSuite) TestPutGet() {
	s.Equal(0, s.zset.Len())

	s.zset.Put("room-a", []string{"agent-1"}, s.at(0))
	s.zset.Put("room-b", []string{"web-user-1", "agent-2"}, s.at(1))
	s.Equal(2, s.zset.Len())

	data, ts, ok := s.zset.Get("room-b")
	s.True(ok)
	s.Equal([]string{"web-user-1", "agent-2"}, data)
	s.True(s.at(1).Equal(ts))

	_, _, ok = s.zset.Get("room-c")
	s.False(ok)
}

func (s *ZsetTestSuite) TestPutReplacesEntry() {
	s.zset.Put("room-a", []string{"agent-1"}, s.at(0))
	s.zset.Put("room-b", []string{"agent-2"}, s.at(1))
	s.zset.Put("room-a", []string{"web-user-1"}, s.at(5))
	s.Equal(2, s.zset.Len())

	data, ts, ok := s.zset.Get("room-a")
	s.True(ok)
	s.Equal([]string{"web-user-1"}, data)
	s.True(s.at(5).Equal(ts))

	// the newer timestamp moved room-a behind room-b
	s.Equal([]string{"room-b"}, keys(s.zset.PopBefore(s.at(2), 10)))
	s.Equal(1, s.zset.Len())
}

func (s *ZsetTestSuite) TestRemove() {
	s.zset.Put("room-a", []string{"agent-1"}, s.at(0))
	s.zset.Put("room-b", []string{"agent-2"}, s.at(1))
	s.zset.Put("room-c", []string{"agent-3"}, s.at(2))

	s.zset.Remove("room-b")
	s.zset.Remove("missing")
	s.Equal(2, s.zset.Len())

	_, _, ok := s.zset.Get("room-b")
	s.False(ok)
	s.Equal([]string{"room-a", "room-c"}, keys(s.zset.PopBefore(s.at(10), 10)))
}

func (s *ZsetTestSuite) TestPopBefore() {
	s.zset.Put("room-c", []string{"c"}, s.at(3))
	s.zset.Put("room-a", []string{"a"}, s.at(1))
	s.zset.Put("room-b", []string{"b"}, s.at(2))

	entries := s.zset.PopBefore(s.at(2), 10)
	s.Equal([]string{"room-a", "room-b"}, keys(entries))
	s.Equal([]string{"a"}, entries[0].Data)
	s.True(s.at(1).Equal(entries[0].TS))
	s.Equal(1, s.zset.Len())

	_, _, ok := s.zset.Get("room-a")
	s.False(ok)
}

func (s *ZsetTestSuite) TestPopBeforeMaxItems() {
	for i, key := range []string{"room-a", "room-b", "room-c", "room-d"} {
		s.zset.Put(key, nil, s.at(i))
	}

	s.Equal([]string{"room-a", "room-b"}, keys(s.zset.PopBefore(s.at(10), 2)))
	s.Equal(2, s.zset.Len())
}

func (s *ZsetTestSuite) TestPopBeforeNothingDue() {
	s.Empty(s.zset.PopBefore(s.at(0), 10))

	s.zset.Put("room-a", nil, s.at(5))
	s.Empty(s.zset.PopBefore(s.at(4), 10))
	s.Equal(1, s.zset.Len())
}

func (s *ZsetTestSuite) TestSameTimeOrderedByKey() {
	s.zset.Put("room-c", nil, s.at(0))
	s.zset.Put("room-a", nil, s.at(0))
	s.zset.Put("room-b", nil, s.at(0))

	s.Equal([]string{"room-a", "room-b", "room-c"}, keys(s.zset.PopBefore(s.at(0), 10)))
}

func (s *ZsetTestSuite) TestGenericTypes() {
	z := New[int]()
	z.Put("one", 1, s.at(1))
	z.Put("two", 2, s.at(2))

	entries := z.PopBefore(s.at(2), 10)
	s.Equal([]int{1, 2}, lo.Map(entries, func(e Entry[int], _ int) int { return e.Data }))
}
