package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/sessions"
)

func TestHub(t *testing.T) {
	h := newHub(1, log.NewTest(t))

	a, unsubA := h.subscribe("s1")
	b, unsubB := h.subscribe("s1")
	other, unsubOther := h.subscribe("s2")
	defer unsubOther()

	h.publish("s1", sessions.Event{Type: sessions.EventSessionUpdated})
	// buffer of one, second publish is dropped for both
	h.publish("s1", sessions.Event{Type: sessions.EventPresenceChanged})

	assert.Equal(t, sessions.EventSessionUpdated, (<-a).Type)
	assert.Equal(t, sessions.EventSessionUpdated, (<-b).Type)
	assert.Empty(t, other)

	unsubA()
	unsubA()
	_, ok := <-a
	assert.False(t, ok)

	h.closeSession("s1")
	_, ok = <-b
	assert.False(t, ok)
	// unsubscribe after close is a no-op
	unsubB()

	h.closeAll()
	_, ok = <-other
	assert.False(t, ok)
}

func TestSpeakerTracker(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tr := newSpeakerTracker(5 * time.Second)

	assert.Nil(t, tr.speaking("room", now))

	tr.report("room", []string{"a", "b", "a"}, now)
	got := tr.speaking("room", now.Add(time.Second))
	require.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")

	// a newer report replaces the list
	tr.report("room", []string{"b"}, now.Add(2*time.Second))
	got = tr.speaking("room", now.Add(3*time.Second))
	assert.Len(t, got, 1)
	assert.Contains(t, got, "b")

	assert.Empty(t, tr.speaking("room", now.Add(10*time.Second)))

	tr.report("room", []string{"a"}, now)
	tr.report("room", nil, now)
	assert.Empty(t, tr.speaking("room", now))

	tr.report("room", []string{"a"}, now)
	tr.forget("room")
	assert.Empty(t, tr.speaking("room", now))
}
