package documents

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/mtafreight/dispatch-gateway/internal/cache"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeBackend struct {
	getOrderFn func(ctx context.Context, orderID string) (freight.Order, error)
	createFn   func(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error)
}

func (f *fakeBackend) GetOrder(ctx context.Context, orderID string) (freight.Order, error) {
	if f.getOrderFn == nil {
		return freight.Order{}, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return f.getOrderFn(ctx, orderID)
}

func (f *fakeBackend) CreateTransportOrder(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
	return f.createFn(ctx, doc)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newService(t *testing.T, backend Backend) (Service, *cache.Store[freight.Order], *cache.Store[freight.Transporter]) {
	t.Helper()
	orders := cache.NewOrderStore(nil)
	transporters := cache.NewTransporterStore(nil)
	svc, err := NewService(backend, orders, transporters, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, orders, transporters
}

func validInput() CreateInput {
	loading := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return CreateInput{
		OrderID:           "ord-1",
		TransporterID:     "tr-1",
		AgreedPrice:       decimal.NewFromInt(450),
		ShippingDate:      loading.Add(-24 * time.Hour),
		LoadingDate:       loading,
		DeliveryDate:      loading.Add(48 * time.Hour),
		Commitments:       "Bâchage obligatoire",
		PaymentConditions: "30 jours fin de mois",
		Notes:             "Fragile",
	}
}

func TestCreateFilesDocument(t *testing.T) {
	var filed freight.TransportOrder
	backend := &fakeBackend{
		createFn: func(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
			filed = doc
			doc.ID = "doc-1"
			return doc, nil
		},
	}
	svc, orders, transporters := newService(t, backend)
	orders.ReplaceAll([]freight.Order{{ID: "ord-1", TruckType: "Fourgon", Amount: decimal.NewFromInt(400)}})
	transporters.ReplaceAll([]freight.Transporter{{ID: "tr-1"}})

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "doc-1" {
		t.Fatalf("unexpected document %+v", created)
	}
	if !regexp.MustCompile(`^OT-[0-9A-F]{8}$`).MatchString(filed.Reference) {
		t.Fatalf("unexpected reference %q", filed.Reference)
	}
	if filed.OrderID != "ord-1" || filed.TransporterID != "tr-1" {
		t.Fatalf("unexpected document body %+v", filed)
	}
	if filed.TransportMode != "Fourgon" {
		t.Fatalf("transport mode must default to the order's truck type, got %q", filed.TransportMode)
	}
	if !filed.EstimatedByClient.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("client estimate must carry the order montant, got %s", filed.EstimatedByClient)
	}
	if filed.ShippingDate.IsZero() || filed.Commitments != "Bâchage obligatoire" ||
		filed.PaymentConditions != "30 jours fin de mois" || filed.Notes != "Fragile" {
		t.Fatalf("contract terms not carried over: %+v", filed)
	}
}

func TestCreateDefaultsTransportModeToRoutier(t *testing.T) {
	var filed freight.TransportOrder
	backend := &fakeBackend{
		createFn: func(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
			filed = doc
			return doc, nil
		},
	}
	svc, orders, transporters := newService(t, backend)
	orders.ReplaceAll([]freight.Order{{ID: "ord-1"}})
	transporters.ReplaceAll([]freight.Transporter{{ID: "tr-1"}})

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filed.TransportMode != "Routier" {
		t.Fatalf("expected Routier fallback, got %q", filed.TransportMode)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, orders, transporters := newService(t, &fakeBackend{
		createFn: func(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
			t.Fatal("backend must not be called on invalid input")
			return doc, nil
		},
	})
	orders.ReplaceAll([]freight.Order{{ID: "ord-1"}})
	transporters.ReplaceAll([]freight.Transporter{{ID: "tr-1"}})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing order id", func(in *CreateInput) { in.OrderID = "" }},
		{"missing transporter id", func(in *CreateInput) { in.TransporterID = "" }},
		{"zero price", func(in *CreateInput) { in.AgreedPrice = decimal.Zero }},
		{"negative price", func(in *CreateInput) { in.AgreedPrice = decimal.NewFromInt(-5) }},
		{"missing shipping date", func(in *CreateInput) { in.ShippingDate = time.Time{} }},
		{"missing loading date", func(in *CreateInput) { in.LoadingDate = time.Time{} }},
		{"delivery before loading", func(in *CreateInput) { in.DeliveryDate = in.LoadingDate.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			if apperrors.CodeOf(err) != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateUnknownTransporter(t *testing.T) {
	svc, orders, _ := newService(t, &fakeBackend{})
	orders.ReplaceAll([]freight.Order{{ID: "ord-1"}})

	_, err := svc.Create(context.Background(), validInput())
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateResolvesOrderFromBackend(t *testing.T) {
	backend := &fakeBackend{
		getOrderFn: func(ctx context.Context, orderID string) (freight.Order, error) {
			return freight.Order{ID: orderID}, nil
		},
		createFn: func(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
			return doc, nil
		},
	}
	svc, _, transporters := newService(t, backend)
	transporters.ReplaceAll([]freight.Transporter{{ID: "tr-1"}})

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("Create with backend-resolved order: %v", err)
	}
}
