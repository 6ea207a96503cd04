package listing

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventKind names a controller state change.
type EventKind string

const (
	EventLoading EventKind = "loading"
	EventLoaded  EventKind = "loaded"
	EventErrored EventKind = "errored"
	EventDetail  EventKind = "detail"
	EventMutated EventKind = "mutated"
)

// StateEvent carries a controller snapshot.
type StateEvent struct {
	Controller string    `json:"controller"`
	Kind       EventKind `json:"kind"`
	Sequence   uint64    `json:"sequence"`
	RecordID   string    `json:"recordId,omitempty"`
	State      any       `json:"state"`
	Time       time.Time `json:"time"`
}

// StateHook observes controller state changes.
type StateHook interface {
	StateChanged(ctx context.Context, event StateEvent) error
}

// StateHookFunc adapts a function to StateHook.
type StateHookFunc func(ctx context.Context, event StateEvent) error

func (f StateHookFunc) StateChanged(ctx context.Context, event StateEvent) error {
	return f(ctx, event)
}

type noopHook struct{}

func (noopHook) StateChanged(context.Context, StateEvent) error { return nil }

func normalizeHook(h StateHook) StateHook {
	if h == nil {
		return noopHook{}
	}
	return h
}

// BroadcastHook fans out state events to in-process subscribers. Slow
// subscribers miss events rather than blocking controllers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan StateEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]chan StateEvent),
	}
}

// StateChanged satisfies StateHook.
func (h *BroadcastHook) StateChanged(ctx context.Context, event StateEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of state events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan StateEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan StateEvent, 16)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams state events as JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams state events as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe()
	defer cancel()

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			if _, err := w.Write([]byte("event: " + string(event.Kind) + "\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(append(data, '\n', '\n')); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
