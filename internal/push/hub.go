package push

import (
	"context"
	"sync"

	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// Sender delivers a frame to the push channel.
type Sender func(Message) error

// Hub fans incoming frames out to local subscribers and forwards locally
// produced frames to the channel. Subscribers receive every frame and
// filter by event name themselves.
type Hub struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Message)
	sender      Sender
	logger      *logger.Logger
}

// NewHub returns an empty hub.
func NewHub(logg *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int]func(Message)),
		logger:      logg,
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (h *Hub) Subscribe(handler func(Message)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
		})
	}
}

// ListenerCount reports the number of live subscriptions.
func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// SetSender wires the outbound side of the channel. Passing nil detaches it.
func (h *Hub) SetSender(sender Sender) {
	h.mu.Lock()
	h.sender = sender
	h.mu.Unlock()
}

// Connected reports whether an outbound sender is attached, i.e. whether
// emitted frames currently reach the push channel.
func (h *Hub) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sender != nil
}

// Dispatch delivers an inbound frame to every subscriber.
func (h *Hub) Dispatch(msg Message) {
	h.mu.RLock()
	handlers := make([]func(Message), 0, len(h.subscribers))
	for _, handler := range h.subscribers {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

// Emit dispatches a locally produced frame to subscribers and forwards it
// on the channel when connected. A detached sender only skips forwarding.
func (h *Hub) Emit(ctx context.Context, event string, payload any) error {
	msg, err := NewMessage(event, payload)
	if err != nil {
		return err
	}
	h.Dispatch(msg)

	h.mu.RLock()
	sender := h.sender
	h.mu.RUnlock()
	if sender == nil {
		return nil
	}
	if err := sender(msg); err != nil {
		if h.logger != nil {
			ctx = h.logger.WithEvent(ctx, event)
			h.logger.Warn(ctx, "push frame not forwarded")
		}
		return err
	}
	return nil
}
