package cache

import (
	"context"
	"encoding/json"

	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

// PatchFunc applies a partial event payload to the store.
type PatchFunc[T any] func(*Store[T], json.RawMessage) bool

// Spec maps push event names to store mutations.
type Spec[T any] struct {
	Created []string
	Updated []string
	Deleted []string
	// Patches handles events that carry partial payloads instead of a
	// full entity.
	Patches map[string]PatchFunc[T]
}

// Binding keeps one store reconciled with the push channel until closed.
type Binding[T any] struct {
	store       *Store[T]
	unsubscribe func()
}

// Bind subscribes the store to the hub. The returned binding must be
// closed to release the subscription.
func Bind[T any](hub *push.Hub, store *Store[T], spec Spec[T], logg *logger.Logger, m *metrics.GatewayMetrics) *Binding[T] {
	created := toSet(spec.Created)
	updated := toSet(spec.Updated)
	deleted := toSet(spec.Deleted)

	handler := func(msg push.Message) {
		switch {
		case created[msg.Event]:
			var item T
			if err := json.Unmarshal(msg.Data, &item); err != nil {
				drop(logg, m, store.Name(), msg.Event, err)
				return
			}
			if store.ApplyCreated(item) {
				m.IncEventApplied(msg.Event)
			}
		case updated[msg.Event]:
			var item T
			if err := json.Unmarshal(msg.Data, &item); err != nil {
				drop(logg, m, store.Name(), msg.Event, err)
				return
			}
			if store.ApplyUpdated(item) {
				m.IncEventApplied(msg.Event)
			} else {
				m.IncEventDropped(msg.Event)
			}
		case deleted[msg.Event]:
			var payload push.DeletedPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				drop(logg, m, store.Name(), msg.Event, err)
				return
			}
			if store.ApplyDeleted(payload.ID) {
				m.IncEventApplied(msg.Event)
			}
		default:
			patch, ok := spec.Patches[msg.Event]
			if !ok {
				return
			}
			if patch(store, msg.Data) {
				m.IncEventApplied(msg.Event)
			} else {
				m.IncEventDropped(msg.Event)
			}
		}
	}

	return &Binding[T]{
		store:       store,
		unsubscribe: hub.Subscribe(handler),
	}
}

// Close releases the hub subscription. Safe to call more than once.
func (b *Binding[T]) Close() {
	if b == nil || b.unsubscribe == nil {
		return
	}
	b.unsubscribe()
}

func toSet(events []string) map[string]bool {
	set := make(map[string]bool, len(events))
	for _, event := range events {
		set[event] = true
	}
	return set
}

func drop(logg *logger.Logger, m *metrics.GatewayMetrics, store, event string, err error) {
	m.IncEventDropped(event)
	if logg == nil {
		return
	}
	ctx := logg.WithFields(context.Background(), map[string]any{"cache": store, "event": event})
	logg.Error(ctx, "push payload rejected", err)
}
