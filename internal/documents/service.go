package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	errBackendRequired      = errors.New("documents backend client is required")
	errOrderStoreRequired   = errors.New("documents order store is required")
	errCarrierStoreRequired = errors.New("documents transporter store is required")
	errLoggerRequired       = errors.New("documents logger is required")
)

// Backend is the slice of the brokerage API the document service needs.
type Backend interface {
	GetOrder(ctx context.Context, orderID string) (freight.Order, error)
	CreateTransportOrder(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error)
}

// CreateInput describes the OT document to file.
type CreateInput struct {
	OrderID           string
	TransporterID     string
	AgreedPrice       decimal.Decimal
	TransportMode     string
	ShippingDate      time.Time
	LoadingDate       time.Time
	DeliveryDate      time.Time
	Commitments       string
	PaymentConditions string
	Notes             string
	Instructions      string
}

// Service files transport-order documents with the backend.
type Service interface {
	Create(ctx context.Context, input CreateInput) (freight.TransportOrder, error)
}

type service struct {
	backend      Backend
	orders       *cache.Store[freight.Order]
	transporters *cache.Store[freight.Transporter]
	logger       *logger.Logger
	now          func() time.Time
	newReference func() string
}

// NewService wires the document service.
func NewService(backend Backend, orders *cache.Store[freight.Order], transporters *cache.Store[freight.Transporter], logg *logger.Logger) (Service, error) {
	if backend == nil {
		return nil, errBackendRequired
	}
	if orders == nil {
		return nil, errOrderStoreRequired
	}
	if transporters == nil {
		return nil, errCarrierStoreRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &service{
		backend:      backend,
		orders:       orders,
		transporters: transporters,
		logger:       logg,
		now:          time.Now,
		newReference: NewReference,
	}, nil
}

// NewReference returns an OT reference of the form OT-XXXXXXXX.
func NewReference() string {
	return "OT-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *service) Create(ctx context.Context, input CreateInput) (freight.TransportOrder, error) {
	if err := s.validate(input); err != nil {
		return freight.TransportOrder{}, err
	}

	order, err := s.resolveOrder(ctx, input.OrderID)
	if err != nil {
		return freight.TransportOrder{}, err
	}
	if _, ok := s.transporters.Get(input.TransporterID); !ok {
		return freight.TransportOrder{}, apperrors.New(apperrors.CodeNotFound, "transporter not found")
	}

	// The transport mode falls back to the order's truck type, and the
	// client estimate is the montant quoted on the order itself.
	mode := strings.TrimSpace(input.TransportMode)
	if mode == "" {
		mode = order.TruckType
	}
	if mode == "" {
		mode = "Routier"
	}

	doc := freight.TransportOrder{
		Reference:         s.newReference(),
		OrderID:           order.ID,
		TransporterID:     input.TransporterID,
		AgreedPrice:       input.AgreedPrice,
		EstimatedByClient: order.Amount,
		TransportMode:     mode,
		ShippingDate:      input.ShippingDate,
		LoadingDate:       input.LoadingDate,
		DeliveryDate:      input.DeliveryDate,
		Commitments:       strings.TrimSpace(input.Commitments),
		PaymentConditions: strings.TrimSpace(input.PaymentConditions),
		Notes:             strings.TrimSpace(input.Notes),
		Instructions:      strings.TrimSpace(input.Instructions),
	}

	created, err := s.backend.CreateTransportOrder(ctx, doc)
	if err != nil {
		return freight.TransportOrder{}, err
	}

	ctx = s.logger.WithOrderID(ctx, order.ID)
	s.logger.Info(ctx, "transport order filed")
	return created, nil
}

func (s *service) validate(input CreateInput) error {
	details := map[string]string{}
	if input.OrderID == "" {
		details["orderId"] = "order id is required"
	}
	if input.TransporterID == "" {
		details["transporterId"] = "transporter id is required"
	}
	if !input.AgreedPrice.IsPositive() {
		details["agreedPrice"] = "agreed price must be greater than zero"
	}
	if input.ShippingDate.IsZero() {
		details["shippingDate"] = "shipping date is required"
	}
	if input.LoadingDate.IsZero() {
		details["loadingDate"] = "loading date is required"
	}
	if input.DeliveryDate.IsZero() {
		details["deliveryDate"] = "delivery date is required"
	}
	if !input.LoadingDate.IsZero() && !input.DeliveryDate.IsZero() && input.DeliveryDate.Before(input.LoadingDate) {
		details["deliveryDate"] = "delivery date must not precede the loading date"
	}
	if len(details) > 0 {
		return apperrors.New(apperrors.CodeValidation, "invalid transport order").WithDetails(details)
	}
	return nil
}

func (s *service) resolveOrder(ctx context.Context, orderID string) (freight.Order, error) {
	if order, ok := s.orders.Get(orderID); ok {
		return order, nil
	}
	return s.backend.GetOrder(ctx, orderID)
}
