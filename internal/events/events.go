// Package events fans test lifecycle transitions out to in-process
// subscribers such as WebSocket streams.
package events

import (
	"sync"
	"time"

	"github.com/raysh454/sitecheck/internal/model"
)

type Type string

const (
	TypeStatus Type = "status"
	TypeResult Type = "result"
)

type Event struct {
	TestID string       `json:"test_id"`
	Type   Type         `json:"type"`
	Status model.Status `json:"status"`
	Score  *int         `json:"score,omitempty"`
	Error  string       `json:"error,omitempty"`
	At     time.Time    `json:"at"`
}

// Publisher is what the orchestrator needs from a hub.
type Publisher interface {
	Publish(ev Event)
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Hub delivers each event to the subscribers of its test id. Slow
// subscribers miss events rather than block the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	buffer int
	closed bool
}

var _ Publisher = (*Hub)(nil)

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[string]map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns a channel of events for testID and a function that
// unsubscribes and closes it. The channel is also closed by Hub.Close.
func (h *Hub) Subscribe(testID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subs[testID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[testID] = set
	}
	set[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(testID, ch) })
	}
}

func (h *Hub) remove(testID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[testID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(h.subs, testID)
	}
	close(ch)
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.TestID] {
		// Non-blocking send; drop if buffer is full.
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many channels are listening on testID.
func (h *Hub) Subscribers(testID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[testID])
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}
