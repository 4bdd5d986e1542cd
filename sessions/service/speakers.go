package service

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/imtaco/rtc-room-client/internal/zset"
)

// speakerTracker keeps the last active speaker list reported per room.
// A report older than ttl counts as nobody speaking.
type speakerTracker struct {
	mu    sync.Mutex
	rooms *zset.Zset[[]string]
	ttl   time.Duration
}

func newSpeakerTracker(ttl time.Duration) *speakerTracker {
	return &speakerTracker{
		rooms: zset.New[[]string](),
		ttl:   ttl,
	}
}

func (t *speakerTracker) report(room string, identities []string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(now)
	if len(identities) == 0 {
		t.rooms.Remove(room)
		return
	}
	t.rooms.Put(room, lo.Uniq(identities), now)
}

func (t *speakerTracker) speaking(room string, now time.Time) map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.prune(now)
	identities, _, ok := t.rooms.Get(room)
	if !ok {
		return nil
	}
	return lo.Keyify(identities)
}

func (t *speakerTracker) forget(room string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms.Remove(room)
}

func (t *speakerTracker) prune(now time.Time) {
	if n := t.rooms.Len(); n > 0 {
		t.rooms.PopBefore(now.Add(-t.ttl), n)
	}
}
