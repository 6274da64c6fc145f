package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

var (
	errBackendRequired      = errors.New("dispatch backend client is required")
	errOrderStoreRequired   = errors.New("dispatch order store is required")
	errCarrierStoreRequired = errors.New("dispatch transporter store is required")
	errHubRequired          = errors.New("dispatch hub is required")
	errLoggerRequired       = errors.New("dispatch logger is required")
)

// Backend is the slice of the brokerage API the dispatcher needs.
type Backend interface {
	GetOrder(ctx context.Context, orderID string) (freight.Order, error)
	AssignOrder(ctx context.Context, orderID, transporterID string) (freight.Order, error)
	SetTransporterAvailability(ctx context.Context, transporterID string, isAvailable bool) (freight.Transporter, error)
}

// Service coordinates order assignment and carrier availability.
type Service interface {
	// EligibleTransporters lists available carriers serving the order's leg.
	EligibleTransporters(ctx context.Context, orderID string) ([]freight.Transporter, error)
	// Assign hands the order to the given carrier. An empty transporterID
	// lets the backend choose one.
	Assign(ctx context.Context, orderID, transporterID string) (freight.Order, error)
	// SetAvailability toggles whether the carrier accepts new orders.
	SetAvailability(ctx context.Context, transporterID string, isAvailable bool) (freight.Transporter, error)
}

type service struct {
	backend      Backend
	orders       *cache.Store[freight.Order]
	transporters *cache.Store[freight.Transporter]
	hub          *push.Hub
	logger       *logger.Logger
	metrics      *metrics.GatewayMetrics

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService wires the dispatch coordinator.
func NewService(backend Backend, orders *cache.Store[freight.Order], transporters *cache.Store[freight.Transporter], hub *push.Hub, logg *logger.Logger, m *metrics.GatewayMetrics) (Service, error) {
	if backend == nil {
		return nil, errBackendRequired
	}
	if orders == nil {
		return nil, errOrderStoreRequired
	}
	if transporters == nil {
		return nil, errCarrierStoreRequired
	}
	if hub == nil {
		return nil, errHubRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &service{
		backend:      backend,
		orders:       orders,
		transporters: transporters,
		hub:          hub,
		logger:       logg,
		metrics:      m,
		inflight:     make(map[string]struct{}),
	}, nil
}

func (s *service) EligibleTransporters(ctx context.Context, orderID string) ([]freight.Transporter, error) {
	order, err := s.resolveOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FilterEligible(order, s.transporters.Snapshot()), nil
}

func (s *service) Assign(ctx context.Context, orderID, transporterID string) (freight.Order, error) {
	if orderID == "" {
		return freight.Order{}, apperrors.New(apperrors.CodeValidation, "order id is required")
	}

	if !s.acquire(orderID) {
		s.metrics.IncAssignment("conflict")
		return freight.Order{}, apperrors.New(apperrors.CodeConflict, "assignment already in progress for this order")
	}
	defer s.release(orderID)

	order, err := s.resolveOrder(ctx, orderID)
	if err != nil {
		return freight.Order{}, err
	}
	if !order.IsAssignable() {
		s.metrics.IncAssignment("rejected")
		return freight.Order{}, apperrors.New(apperrors.CodeValidation, "order is no longer awaiting assignment")
	}
	if transporterID != "" {
		if err := s.checkEligibility(order, transporterID); err != nil {
			s.metrics.IncAssignment("rejected")
			return freight.Order{}, err
		}
	}

	assigned, err := s.backend.AssignOrder(ctx, orderID, transporterID)
	if err != nil {
		s.metrics.IncAssignment("error")
		return freight.Order{}, err
	}
	s.metrics.IncAssignment("success")

	// Some deployments acknowledge with a bare message body instead of
	// echoing the order. Rebuild the record from what we already know so
	// the cache is not polluted with an id-less entry.
	if assigned.ID == "" {
		assigned = order
		assigned.Status = enums.OrderStatusAssigned
		if transporterID != "" {
			assigned.TransporterID = transporterID
		}
	}

	s.applyAssignment(ctx, assigned)
	return assigned, nil
}

func (s *service) SetAvailability(ctx context.Context, transporterID string, isAvailable bool) (freight.Transporter, error) {
	if transporterID == "" {
		return freight.Transporter{}, apperrors.New(apperrors.CodeValidation, "transporter id is required")
	}

	updated, err := s.backend.SetTransporterAvailability(ctx, transporterID, isAvailable)
	if err != nil {
		return freight.Transporter{}, err
	}

	if !s.transporters.ApplyUpdated(updated) {
		s.transporters.ApplyCreated(updated)
	}
	if err := s.hub.Emit(ctx, push.EventTransporterAvailabilityChanged, push.AvailabilityPayload{
		TransporterID: updated.ID,
		IsAvailable:   updated.IsAvailable,
	}); err != nil {
		ctx = s.logger.WithTransporterID(ctx, updated.ID)
		s.logger.Warn(ctx, "availability change not broadcast")
	}
	return updated, nil
}

// resolveOrder prefers the cache and falls back to the backend, so a
// freshly created order can be dispatched before the next full reload.
func (s *service) resolveOrder(ctx context.Context, orderID string) (freight.Order, error) {
	if order, ok := s.orders.Get(orderID); ok {
		return order, nil
	}
	order, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		return freight.Order{}, err
	}
	s.orders.ApplyCreated(order)
	return order, nil
}

func (s *service) checkEligibility(order freight.Order, transporterID string) error {
	transporter, ok := s.transporters.Get(transporterID)
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "transporter not found")
	}
	if !transporter.IsAvailable {
		return apperrors.New(apperrors.CodeValidation, "transporter is not available")
	}
	if !transporter.ServesRoute(order.SenderAddress(), order.RecipientAddress()) {
		return apperrors.New(apperrors.CodeValidation, "transporter does not serve this route")
	}
	return nil
}

// applyAssignment patches the caches and broadcasts the result. It only
// runs after the backend confirmed the assignment.
func (s *service) applyAssignment(ctx context.Context, assigned freight.Order) {
	if !s.orders.ApplyUpdated(assigned) {
		s.orders.ApplyCreated(assigned)
	}
	if assigned.TransporterID != "" {
		s.transporters.Patch(assigned.TransporterID, func(t freight.Transporter) freight.Transporter {
			t.CurrentOrderID = assigned.ID
			return t
		})
	}

	if err := s.hub.Emit(ctx, push.EventOrderAssigned, push.AssignedPayload{
		OrderID:       assigned.ID,
		TransporterID: assigned.TransporterID,
	}); err != nil {
		ctx = s.logger.WithOrderID(ctx, assigned.ID)
		s.logger.Warn(ctx, "assignment not broadcast")
	}
}

func (s *service) acquire(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[orderID]; busy {
		return false
	}
	s.inflight[orderID] = struct{}{}
	return true
}

func (s *service) release(orderID string) {
	s.mu.Lock()
	delete(s.inflight, orderID)
	s.mu.Unlock()
}
