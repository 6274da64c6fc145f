package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	backendclient "github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

type fakeListBackend struct {
	orders       []freight.Order
	transporters []freight.Transporter
	users        []freight.User
}

func (f *fakeListBackend) ListOrders(ctx context.Context) ([]freight.Order, error) {
	return f.orders, nil
}

func (f *fakeListBackend) ListTransporters(ctx context.Context) ([]freight.Transporter, error) {
	return f.transporters, nil
}

func (f *fakeListBackend) ListUsers(ctx context.Context) ([]freight.User, error) {
	return f.users, nil
}

type fakeOrdersBackend struct {
	getOrderFn    func(ctx context.Context, orderID string) (freight.Order, error)
	createOrderFn func(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error)
}

func (f *fakeOrdersBackend) GetOrder(ctx context.Context, orderID string) (freight.Order, error) {
	return f.getOrderFn(ctx, orderID)
}

func (f *fakeOrdersBackend) CreateOrder(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error) {
	return f.createOrderFn(ctx, input)
}

type fakeDispatch struct {
	eligibleFn func(ctx context.Context, orderID string) ([]freight.Transporter, error)
	assignFn   func(ctx context.Context, orderID, transporterID string) (freight.Order, error)
}

func (f *fakeDispatch) EligibleTransporters(ctx context.Context, orderID string) ([]freight.Transporter, error) {
	return f.eligibleFn(ctx, orderID)
}

func (f *fakeDispatch) Assign(ctx context.Context, orderID, transporterID string) (freight.Order, error) {
	return f.assignFn(ctx, orderID, transporterID)
}

func (f *fakeDispatch) SetAvailability(ctx context.Context, transporterID string, isAvailable bool) (freight.Transporter, error) {
	return freight.Transporter{ID: transporterID, IsAvailable: isAvailable}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testLoader(t *testing.T, backend loader.Backend, orders *cache.Store[freight.Order]) *loader.Loader {
	t.Helper()
	ld, err := loader.New(backend, orders, cache.NewTransporterStore(nil), cache.NewUserStore(nil), testLogger())
	if err != nil {
		t.Fatalf("loader.New: %v", err)
	}
	return ld
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decoding data: %v (%s)", err, envelope.Data)
	}
}

func TestListOrdersLoadsAndCounts(t *testing.T) {
	now := time.Now()
	backend := &fakeListBackend{orders: []freight.Order{
		{ID: "ord-1", Status: enums.OrderStatusPending, CreatedAt: now},
		{ID: "ord-2", Status: enums.OrderStatusDelivered, CreatedAt: now.AddDate(0, 0, -40)},
	}}
	orders := cache.NewOrderStore(nil)
	handler := ListOrders(orders, testLoader(t, backend, orders), testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp orderListResponse
	decodeEnvelope(t, rec, &resp)
	if len(resp.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(resp.Orders))
	}
	if resp.CountsByStatus["En_attente"] != 1 || resp.CountsByStatus["Livrée"] != 1 {
		t.Fatalf("unexpected counts %v", resp.CountsByStatus)
	}
	if resp.CountsByStatus["Annulée"] != 0 {
		t.Fatal("counts must include zeroed statuses")
	}
}

func TestListOrdersStatusFilter(t *testing.T) {
	backend := &fakeListBackend{orders: []freight.Order{
		{ID: "ord-1", Status: enums.OrderStatusPending},
		{ID: "ord-2", Status: enums.OrderStatusDelivered},
	}}
	orders := cache.NewOrderStore(nil)
	handler := ListOrders(orders, testLoader(t, backend, orders), testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?status=En_attente", nil))

	var resp orderListResponse
	decodeEnvelope(t, rec, &resp)
	if len(resp.Orders) != 1 || resp.Orders[0].ID != "ord-1" {
		t.Fatalf("unexpected filtered orders %+v", resp.Orders)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?status=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", rec.Code)
	}
}

func TestListOrdersPeriodFilter(t *testing.T) {
	now := time.Now()
	backend := &fakeListBackend{orders: []freight.Order{
		{ID: "recent", Status: enums.OrderStatusPending, CreatedAt: now.Add(-time.Hour)},
		{ID: "ancient", Status: enums.OrderStatusPending, CreatedAt: now.AddDate(0, -2, 0)},
	}}
	orders := cache.NewOrderStore(nil)
	handler := ListOrders(orders, testLoader(t, backend, orders), testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?period=week", nil))

	var resp orderListResponse
	decodeEnvelope(t, rec, &resp)
	if len(resp.Orders) != 1 || resp.Orders[0].ID != "recent" {
		t.Fatalf("unexpected period-filtered orders %+v", resp.Orders)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?period=all", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("period=all must not be rejected, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeEnvelope(t, rec, &resp)
	if len(resp.Orders) != 2 {
		t.Fatalf("period=all must return every order, got %d", len(resp.Orders))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders?period=fortnight", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", rec.Code)
	}
}

func TestGetOrderFallsBackToBackend(t *testing.T) {
	store := cache.NewOrderStore(nil)
	svc := &fakeOrdersBackend{
		getOrderFn: func(ctx context.Context, orderID string) (freight.Order, error) {
			return freight.Order{ID: orderID}, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/api/orders/{orderId}", GetOrder(store, svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ord-9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var order freight.Order
	decodeEnvelope(t, rec, &order)
	if order.ID != "ord-9" {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderPatchesCacheAndEmits(t *testing.T) {
	store := cache.NewOrderStore(nil)
	hub := push.NewHub(testLogger())
	svc := &fakeOrdersBackend{
		createOrderFn: func(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error) {
			return freight.Order{ID: "ord-new", Status: enums.OrderStatusPending, Pickup: input.Pickup}, nil
		},
	}

	var emitted string
	defer hub.Subscribe(func(msg push.Message) { emitted = msg.Event })()

	body := `{
		"senderName": "Paul", "senderPhone": "+33612345678", "senderAddress": "Lyon",
		"recipientName": "Anne", "recipientPhone": "+33698765432", "recipientAddress": "Paris",
		"weight": 120, "distance": 465, "nature": "Palettes", "truckType": "Fourgon",
		"montant": 350.5
	}`
	rec := httptest.NewRecorder()
	CreateOrder(svc, store, hub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.Get("ord-new"); !ok {
		t.Fatal("created order not cached")
	}
	if emitted != push.EventNewOrderCreated {
		t.Fatalf("expected newOrderCreated broadcast, got %q", emitted)
	}
}

func TestCreateOrderWithoutAmount(t *testing.T) {
	store := cache.NewOrderStore(nil)
	svc := &fakeOrdersBackend{
		createOrderFn: func(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error) {
			if !input.Amount.IsZero() {
				t.Fatalf("unexpected montant %s", input.Amount)
			}
			return freight.Order{ID: "ord-new", Status: enums.OrderStatusPending}, nil
		},
	}

	body := `{
		"senderName": "Paul", "senderPhone": "+33612345678", "senderAddress": "Lyon",
		"recipientName": "Anne", "recipientPhone": "+33698765432", "recipientAddress": "Paris",
		"weight": 120, "distance": 465, "nature": "Palettes", "truckType": "Fourgon"
	}`
	rec := httptest.NewRecorder()
	CreateOrder(svc, store, nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("order without montant must be accepted, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateOrderRejectsNegativeAmount(t *testing.T) {
	svc := &fakeOrdersBackend{
		createOrderFn: func(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error) {
			t.Fatal("backend must not be called for a negative montant")
			return freight.Order{}, nil
		},
	}
	body := `{
		"senderName": "Paul", "senderPhone": "+33612345678", "senderAddress": "Lyon",
		"recipientName": "Anne", "recipientPhone": "+33698765432", "recipientAddress": "Paris",
		"weight": 120, "distance": 465, "nature": "Palettes", "truckType": "Fourgon",
		"montant": -10
	}`
	rec := httptest.NewRecorder()
	CreateOrder(svc, cache.NewOrderStore(nil), nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderRejectsInvalidBody(t *testing.T) {
	svc := &fakeOrdersBackend{
		createOrderFn: func(ctx context.Context, input backendclient.CreateOrderInput) (freight.Order, error) {
			t.Fatal("backend must not be called on invalid input")
			return freight.Order{}, nil
		},
	}
	body := `{"senderName": "", "weight": -3}`
	rec := httptest.NewRecorder()
	CreateOrder(svc, cache.NewOrderStore(nil), nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAssignOrderPassesTransporterID(t *testing.T) {
	svc := &fakeDispatch{
		assignFn: func(ctx context.Context, orderID, transporterID string) (freight.Order, error) {
			if orderID != "ord-1" || transporterID != "tr-2" {
				t.Fatalf("unexpected args %s %s", orderID, transporterID)
			}
			return freight.Order{ID: orderID, Status: enums.OrderStatusAssigned, TransporterID: transporterID}, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/orders/{orderId}/assign", AssignOrder(svc, testLogger()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/ord-1/assign", strings.NewReader(`{"transporterId":"tr-2"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAssignOrderConflictSurfaces409(t *testing.T) {
	svc := &fakeDispatch{
		assignFn: func(ctx context.Context, orderID, transporterID string) (freight.Order, error) {
			return freight.Order{}, apperrors.New(apperrors.CodeConflict, "assignment already in progress for this order")
		},
	}

	router := chi.NewRouter()
	router.Post("/api/orders/{orderId}/assign", AssignOrder(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders/ord-1/assign", strings.NewReader(`{}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestEligibleTransportersEndpoint(t *testing.T) {
	svc := &fakeDispatch{
		eligibleFn: func(ctx context.Context, orderID string) ([]freight.Transporter, error) {
			return []freight.Transporter{{ID: "tr-1"}}, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/api/orders/{orderId}/eligible-transporters", EligibleTransporters(svc, testLogger()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ord-1/eligible-transporters", nil))

	var transporters []freight.Transporter
	decodeEnvelope(t, rec, &transporters)
	if len(transporters) != 1 || transporters[0].ID != "tr-1" {
		t.Fatalf("unexpected transporters %+v", transporters)
	}
}
