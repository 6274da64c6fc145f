package cache

import (
	"io"
	"testing"

	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestOrderBindingAppliesLifecycle(t *testing.T) {
	hub := push.NewHub(testLogger())
	store := NewOrderStore(nil)
	binding := BindOrders(hub, store, testLogger(), nil)
	defer binding.Close()

	hub.Dispatch(push.Message{Event: push.EventOrderCreated, Data: []byte(`{"_id":"ord-1","status":"En_attente"}`)})
	hub.Dispatch(push.Message{Event: push.EventOrderCreated, Data: []byte(`{"_id":"ord-1","status":"En_attente"}`)})
	if store.Len() != 1 {
		t.Fatalf("replayed create must stay idempotent, got %d entries", store.Len())
	}

	hub.Dispatch(push.Message{Event: push.EventOrderUpdated, Data: []byte(`{"_id":"ord-1","status":"En_cours"}`)})
	got, _ := store.Get("ord-1")
	if got.Status != enums.OrderStatusInTransit {
		t.Fatalf("update not applied: %+v", got)
	}

	hub.Dispatch(push.Message{Event: push.EventOrderUpdated, Data: []byte(`{"_id":"ghost","status":"En_cours"}`)})
	if store.Len() != 1 {
		t.Fatal("update for unknown id must not insert")
	}

	hub.Dispatch(push.Message{Event: push.EventOrderDeleted, Data: []byte(`{"_id":"ord-1"}`)})
	if store.Len() != 0 {
		t.Fatal("delete not applied")
	}
}

func TestOrderBindingAppliesAssignment(t *testing.T) {
	hub := push.NewHub(testLogger())
	store := NewOrderStore(nil)
	defer BindOrders(hub, store, testLogger(), nil).Close()

	store.ReplaceAll([]freight.Order{{ID: "ord-1", Status: enums.OrderStatusPending}})
	hub.Dispatch(push.Message{Event: push.EventOrderAssigned, Data: []byte(`{"orderId":"ord-1","transporterId":"tr-7"}`)})

	got, _ := store.Get("ord-1")
	if got.Status != enums.OrderStatusAssigned || got.TransporterID != "tr-7" {
		t.Fatalf("assignment not applied: %+v", got)
	}
}

func TestTransporterBindingAppliesAvailability(t *testing.T) {
	hub := push.NewHub(testLogger())
	store := NewTransporterStore(nil)
	defer BindTransporters(hub, store, testLogger(), nil).Close()

	store.ReplaceAll([]freight.Transporter{{ID: "tr-1", IsAvailable: true}})
	hub.Dispatch(push.Message{Event: push.EventTransporterAvailabilityChanged, Data: []byte(`{"transporterId":"tr-1","isAvailable":false}`)})

	got, _ := store.Get("tr-1")
	if got.IsAvailable {
		t.Fatal("availability change not applied")
	}
}

func TestBindingIgnoresMalformedPayloads(t *testing.T) {
	hub := push.NewHub(testLogger())
	store := NewOrderStore(nil)
	defer BindOrders(hub, store, testLogger(), nil).Close()

	hub.Dispatch(push.Message{Event: push.EventOrderCreated, Data: []byte(`not json`)})
	if store.Len() != 0 {
		t.Fatal("malformed payload must be dropped")
	}
}

func TestBindingCloseReleasesSubscription(t *testing.T) {
	hub := push.NewHub(testLogger())
	store := NewUserStore(nil)
	binding := BindUsers(hub, store, testLogger(), nil)

	if hub.ListenerCount() != 1 {
		t.Fatalf("expected 1 listener, got %d", hub.ListenerCount())
	}
	binding.Close()
	binding.Close()
	if hub.ListenerCount() != 0 {
		t.Fatalf("expected 0 listeners after close, got %d", hub.ListenerCount())
	}

	hub.Dispatch(push.Message{Event: push.EventUserCreated, Data: []byte(`{"_id":"u-1"}`)})
	if store.Len() != 0 {
		t.Fatal("closed binding must not receive events")
	}
}
