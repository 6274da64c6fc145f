package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"go.uber.org/multierr"
)

var (
	errBackendRequired = errors.New("loader backend client is required")
	errStoresRequired  = errors.New("loader stores are required")
	errLoggerRequired  = errors.New("loader logger is required")
)

// Backend is the slice of the brokerage API the loader needs.
type Backend interface {
	ListOrders(ctx context.Context) ([]freight.Order, error)
	ListTransporters(ctx context.Context) ([]freight.Transporter, error)
	ListUsers(ctx context.Context) ([]freight.User, error)
}

// Loader fills the caches from the backend. It runs at login, after a
// push reconnection, and lazily on first read.
type Loader struct {
	backend      Backend
	orders       *cache.Store[freight.Order]
	transporters *cache.Store[freight.Transporter]
	users        *cache.Store[freight.User]
	logger       *logger.Logger

	mu     sync.Mutex
	loaded bool
}

// New wires the loader.
func New(backend Backend, orders *cache.Store[freight.Order], transporters *cache.Store[freight.Transporter], users *cache.Store[freight.User], logg *logger.Logger) (*Loader, error) {
	if backend == nil {
		return nil, errBackendRequired
	}
	if orders == nil || transporters == nil || users == nil {
		return nil, errStoresRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &Loader{
		backend:      backend,
		orders:       orders,
		transporters: transporters,
		users:        users,
		logger:       logg,
	}, nil
}

// LoadAll replaces every cache with fresh backend data. Collections that
// fail to load keep their previous contents.
func (l *Loader) LoadAll(ctx context.Context) error {
	var combined error

	if orders, err := l.backend.ListOrders(ctx); err != nil {
		combined = multierr.Append(combined, err)
	} else {
		l.orders.ReplaceAll(orders)
	}
	if transporters, err := l.backend.ListTransporters(ctx); err != nil {
		combined = multierr.Append(combined, err)
	} else {
		l.transporters.ReplaceAll(transporters)
	}
	if users, err := l.backend.ListUsers(ctx); err != nil {
		combined = multierr.Append(combined, err)
	} else {
		l.users.ReplaceAll(users)
	}

	// A failed reload must not mark the caches fresh, or EnsureLoaded
	// would keep serving stale data without ever retrying.
	l.mu.Lock()
	l.loaded = combined == nil
	l.mu.Unlock()

	if combined != nil {
		l.logger.Error(ctx, "cache reload incomplete", combined)
	}
	return combined
}

// EnsureLoaded performs the initial load exactly once.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if loaded {
		return nil
	}
	return l.LoadAll(ctx)
}

// Reset forgets the loaded state, forcing the next read to refetch.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.loaded = false
	l.mu.Unlock()
}
