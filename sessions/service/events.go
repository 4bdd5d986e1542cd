package service

import (
	"sync"

	"github.com/imtaco/rtc-room-client/internal/log"
	"github.com/imtaco/rtc-room-client/sessions"
)

// hub fans session events out to subscribers. Slow subscribers miss events
// rather than block the lifecycle.
type hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan sessions.Event
	nextID int
	buffer int
	logger *log.Logger
}

func newHub(buffer int, logger *log.Logger) *hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &hub{
		subs:   make(map[string]map[int]chan sessions.Event),
		buffer: buffer,
		logger: logger,
	}
}

func (h *hub) subscribe(sessionID string) (<-chan sessions.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan sessions.Event, h.buffer)
	id := h.nextID
	h.nextID++

	subs, ok := h.subs[sessionID]
	if !ok {
		subs = make(map[int]chan sessions.Event)
		h.subs[sessionID] = subs
	}
	subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(sessionID, id) })
	}
}

func (h *hub) unsubscribe(sessionID string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subs[sessionID]
	if !ok {
		return
	}
	// already closed by closeSession when missing
	if ch, ok := subs[id]; ok {
		close(ch)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(h.subs, sessionID)
	}
}

func (h *hub) publish(sessionID string, ev sessions.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("drop event for slow subscriber",
				log.String("sessionId", sessionID),
				log.String("type", string(ev.Type)))
		}
	}
}

func (h *hub) closeSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID, subs := range h.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(h.subs, sessionID)
	}
}
