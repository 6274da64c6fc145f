package stats

import (
	"context"
	"errors"
	"sync"

	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

var (
	errBackendRequired = errors.New("stats backend client is required")
	errHubRequired     = errors.New("stats hub is required")
	errLoggerRequired  = errors.New("stats logger is required")
)

// Backend is the slice of the brokerage API the stats service needs.
type Backend interface {
	GetStats(ctx context.Context) (freight.Stats, error)
}

// Service serves dashboard aggregates from a local copy that is
// invalidated whenever an order event arrives on the push channel.
type Service struct {
	backend Backend
	logger  *logger.Logger

	mu          sync.Mutex
	cached      freight.Stats
	loaded      bool
	unsubscribe func()
}

// NewService wires the stats cache and subscribes it to order events.
func NewService(backend Backend, hub *push.Hub, logg *logger.Logger) (*Service, error) {
	if backend == nil {
		return nil, errBackendRequired
	}
	if hub == nil {
		return nil, errHubRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}

	s := &Service{backend: backend, logger: logg}
	s.unsubscribe = hub.Subscribe(func(msg push.Message) {
		switch msg.Event {
		case push.EventOrderCreated, push.EventNewOrderCreated, push.EventNewOrderNotification,
			push.EventOrderUpdated, push.EventOrderDeleted, push.EventOrderAssigned:
			s.Invalidate()
		}
	})
	return s, nil
}

// Get returns the cached aggregates, fetching them when stale.
func (s *Service) Get(ctx context.Context) (freight.Stats, error) {
	s.mu.Lock()
	if s.loaded {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh fetches fresh aggregates from the backend.
func (s *Service) Refresh(ctx context.Context) (freight.Stats, error) {
	fresh, err := s.backend.GetStats(ctx)
	if err != nil {
		return freight.Stats{}, err
	}
	s.mu.Lock()
	s.cached = fresh
	s.loaded = true
	s.mu.Unlock()
	return fresh, nil
}

// Invalidate marks the cached aggregates stale.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

// Close releases the push subscription.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
