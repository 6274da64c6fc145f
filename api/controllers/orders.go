package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/api/validators"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/dispatch"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	pkgerrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// OrdersBackend is the slice of the brokerage API the order controllers need.
type OrdersBackend interface {
	GetOrder(ctx context.Context, orderID string) (freight.Order, error)
	CreateOrder(ctx context.Context, input backend.CreateOrderInput) (freight.Order, error)
}

type orderListResponse struct {
	Orders         []freight.Order `json:"orders"`
	CountsByStatus map[string]int  `json:"countsByStatus"`
}

// ListOrders serves the cached orders with optional status and period filters.
func ListOrders(store *cache.Store[freight.Order], ld *loader.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ld.EnsureLoaded(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders := store.Snapshot()
		counts := map[string]int{}
		for _, status := range enums.OrderStatuses() {
			counts[status.String()] = 0
		}
		for _, order := range orders {
			counts[order.Status.String()]++
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			orders = filterOrders(orders, func(o freight.Order) bool { return o.Status == status })
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" && !strings.EqualFold(raw, "all") {
			since, err := periodStart(raw, time.Now())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			orders = filterOrders(orders, func(o freight.Order) bool { return !o.CreatedAt.Before(since) })
		}

		responses.WriteSuccess(w, orderListResponse{Orders: orders, CountsByStatus: counts})
	}
}

// GetOrder serves one order, preferring the cache.
func GetOrder(store *cache.Store[freight.Order], svc OrdersBackend, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderId")
		if order, ok := store.Get(orderID); ok {
			responses.WriteSuccess(w, order)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type createOrderRequest struct {
	SenderName       string          `json:"senderName" validate:"required"`
	SenderPhone      string          `json:"senderPhone" validate:"required,phone"`
	SenderAddress    string          `json:"senderAddress" validate:"required"`
	RecipientName    string          `json:"recipientName" validate:"required"`
	RecipientPhone   string          `json:"recipientPhone" validate:"required,phone"`
	RecipientAddress string          `json:"recipientAddress" validate:"required"`
	Weight           float64         `json:"weight" validate:"required,gt=0"`
	Distance         float64         `json:"distance" validate:"required,gt=0"`
	Nature           string          `json:"nature" validate:"required"`
	TruckType        string          `json:"truckType" validate:"required"`
	Amount           decimal.Decimal `json:"montant"`
	ClientID         string          `json:"clientId"`
}

// CreateOrder registers an order with the backend, patches the cache, and
// announces it on the push channel.
func CreateOrder(svc OrdersBackend, store *cache.Store[freight.Order], hub *push.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// montant is optional at creation; the backend prices unquoted orders.
		if req.Amount.IsNegative() {
			err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"montant": "must not be negative"})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateOrder(r.Context(), backend.CreateOrderInput{
			Pickup: freight.Pickup{
				SenderName:  req.SenderName,
				SenderPhone: req.SenderPhone,
				Address:     req.SenderAddress,
			},
			Delivery: freight.Delivery{
				RecipientName:  req.RecipientName,
				RecipientPhone: req.RecipientPhone,
				Address:        req.RecipientAddress,
			},
			Weight:    req.Weight,
			Distance:  req.Distance,
			Nature:    req.Nature,
			TruckType: req.TruckType,
			Amount:    req.Amount,
			ClientID:  req.ClientID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.ApplyCreated(created)
		if hub != nil {
			hub.Emit(r.Context(), push.EventNewOrderCreated, created)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// EligibleTransporters lists the carriers able to take the order.
func EligibleTransporters(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transporters, err := svc.EligibleTransporters(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transporters)
	}
}

type assignRequest struct {
	TransporterID string `json:"transporterId"`
}

// AssignOrder hands the order to a carrier. An empty transporterId asks
// the backend to choose one.
func AssignOrder(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Assign(r.Context(), chi.URLParam(r, "orderId"), req.TransporterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func filterOrders(orders []freight.Order, keep func(freight.Order) bool) []freight.Order {
	out := make([]freight.Order, 0, len(orders))
	for _, order := range orders {
		if keep(order) {
			out = append(out, order)
		}
	}
	return out
}

func periodStart(period string, now time.Time) (time.Time, error) {
	switch strings.ToLower(period) {
	case "today":
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "period must be today, week, month or all")
	}
}
