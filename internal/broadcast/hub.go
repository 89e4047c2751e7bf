// Package broadcast fans notifications out to every connected browser session.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// DefaultBufferSize is the per-subscriber queue length used when none is configured.
const DefaultBufferSize = 16

// Message is one named event with its JSON-encoded payload.
type Message struct {
	Name string
	Data []byte
}

// Subscription is a connected client. Messages arrive on C in publish order.
type Subscription struct {
	C <-chan Message

	ch   chan Message
	once sync.Once
}

// Hub is the process-wide registry of connected clients.
type Hub struct {
	log        *slog.Logger
	bufferSize int
	metrics    hubMetrics

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewHub creates an empty hub. A non-positive bufferSize selects DefaultBufferSize.
func NewHub(log *slog.Logger, bufferSize int) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		log:        log,
		bufferSize: bufferSize,
		metrics:    newHubMetrics(),
		subs:       map[*Subscription]struct{}{},
	}
}

// Connect registers a new client. It receives only messages published after it connected.
func (h *Hub) Connect() *Subscription {
	ch := make(chan Message, h.bufferSize)
	sub := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug("Stream client connected", "clients", count)
	return sub
}

// Disconnect deregisters a client and closes its channel. Calling it again is a no-op.
func (h *Hub) Disconnect(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	count := len(h.subs)
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.ch) })
	if ok {
		h.log.Debug("Stream client disconnected", "clients", count)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish encodes payload once and delivers it to every connected client
// without blocking. A client whose queue is full misses this message.
// It returns the number of clients that received it.
func (h *Hub) Publish(ctx context.Context, name string, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WarnContext(ctx, "Broadcast encode failed", "event", name, "error", err)
		return 0
	}
	msg := Message{Name: name, Data: data}

	delivered, dropped := 0, 0
	h.mu.Lock()
	for sub := range h.subs {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	h.metrics.recordPublished(ctx, name, delivered)
	if dropped > 0 {
		h.metrics.recordDropped(ctx, name, dropped)
		h.log.WarnContext(ctx, "Broadcast dropped for slow clients", "event", name, "dropped", dropped)
	}
	h.log.DebugContext(ctx, "Broadcast published", "event", name, "clients", delivered)
	return delivered
}

// Close disconnects every client. Their stream loops observe the closed
// channel and return.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.Disconnect(sub)
	}
}
