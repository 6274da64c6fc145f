package stats

import (
	"context"
	"io"
	"testing"

	"github.com/mtafreight/dispatch-gateway/internal/push"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeBackend struct {
	calls int
	stats freight.Stats
	err   error
}

func (f *fakeBackend) GetStats(ctx context.Context) (freight.Stats, error) {
	f.calls++
	if f.err != nil {
		return freight.Stats{}, f.err
	}
	return f.stats, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestGetCachesUntilInvalidated(t *testing.T) {
	backend := &fakeBackend{stats: freight.Stats{
		Sales:          freight.StatPoint{Total: decimal.NewFromInt(1200)},
		OrdersByStatus: map[string]int{"En_attente": 3},
	}}
	hub := push.NewHub(testLogger())
	svc, err := NewService(backend, hub, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	first, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.OrdersByStatus["En_attente"] != 3 {
		t.Fatalf("unexpected stats %+v", first)
	}
	svc.Get(ctx)
	svc.Get(ctx)
	if backend.calls != 1 {
		t.Fatalf("expected a single backend call while fresh, got %d", backend.calls)
	}
}

func TestOrderEventInvalidatesCache(t *testing.T) {
	backend := &fakeBackend{}
	hub := push.NewHub(testLogger())
	svc, err := NewService(backend, hub, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	svc.Get(ctx)
	hub.Dispatch(push.Message{Event: push.EventOrderCreated, Data: []byte(`{"_id":"ord-1"}`)})
	svc.Get(ctx)
	if backend.calls != 2 {
		t.Fatalf("expected refetch after order event, got %d calls", backend.calls)
	}

	hub.Dispatch(push.Message{Event: push.EventTransporterAdded, Data: []byte(`{"_id":"tr-1"}`)})
	svc.Get(ctx)
	if backend.calls != 2 {
		t.Fatalf("transporter events must not invalidate stats, got %d calls", backend.calls)
	}
}

func TestRefreshErrorKeepsStaleMarker(t *testing.T) {
	backend := &fakeBackend{err: apperrors.New(apperrors.CodeUpstream, "stats unavailable")}
	hub := push.NewHub(testLogger())
	svc, err := NewService(backend, hub, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()

	if _, err := svc.Get(context.Background()); apperrors.CodeOf(err) != apperrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}

	backend.err = nil
	backend.stats = freight.Stats{OrdersByStatus: map[string]int{"Livrée": 1}}
	got, err := svc.Get(context.Background())
	if err != nil || got.OrdersByStatus["Livrée"] != 1 {
		t.Fatalf("expected recovery on next call, got %+v err=%v", got, err)
	}
}
