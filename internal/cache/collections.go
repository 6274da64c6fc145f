package cache

import (
	"encoding/json"

	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
)

// NewOrderStore returns the order cache.
func NewOrderStore(m *metrics.GatewayMetrics) *Store[freight.Order] {
	return NewStore("orders", func(o freight.Order) string { return o.ID }, m)
}

// NewTransporterStore returns the carrier cache.
func NewTransporterStore(m *metrics.GatewayMetrics) *Store[freight.Transporter] {
	return NewStore("transporters", func(t freight.Transporter) string { return t.ID }, m)
}

// NewUserStore returns the account cache.
func NewUserStore(m *metrics.GatewayMetrics) *Store[freight.User] {
	return NewStore("users", func(u freight.User) string { return u.ID }, m)
}

// BindOrders reconciles the order cache with the push channel.
func BindOrders(hub *push.Hub, store *Store[freight.Order], logg *logger.Logger, m *metrics.GatewayMetrics) *Binding[freight.Order] {
	spec := Spec[freight.Order]{
		Created: []string{push.EventOrderCreated, push.EventNewOrderCreated, push.EventNewOrderNotification},
		Updated: []string{push.EventOrderUpdated},
		Deleted: []string{push.EventOrderDeleted},
		Patches: map[string]PatchFunc[freight.Order]{
			push.EventOrderAssigned: applyOrderAssigned,
		},
	}
	return Bind(hub, store, spec, logg, m)
}

// BindTransporters reconciles the carrier cache with the push channel.
func BindTransporters(hub *push.Hub, store *Store[freight.Transporter], logg *logger.Logger, m *metrics.GatewayMetrics) *Binding[freight.Transporter] {
	spec := Spec[freight.Transporter]{
		Created: []string{push.EventTransporterAdded},
		Updated: []string{push.EventTransporterUpdated},
		Deleted: []string{push.EventTransporterDeleted},
		Patches: map[string]PatchFunc[freight.Transporter]{
			push.EventTransporterAvailabilityChanged: applyAvailabilityChanged,
		},
	}
	return Bind(hub, store, spec, logg, m)
}

// BindUsers reconciles the account cache with the push channel.
func BindUsers(hub *push.Hub, store *Store[freight.User], logg *logger.Logger, m *metrics.GatewayMetrics) *Binding[freight.User] {
	spec := Spec[freight.User]{
		Created: []string{push.EventUserCreated, push.EventNewUserCreated},
		Updated: []string{push.EventUserUpdated},
	}
	return Bind(hub, store, spec, logg, m)
}

func applyOrderAssigned(store *Store[freight.Order], data json.RawMessage) bool {
	var payload push.AssignedPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		return false
	}
	return store.Patch(payload.OrderID, func(o freight.Order) freight.Order {
		o.TransporterID = payload.TransporterID
		o.Status = enums.OrderStatusAssigned
		return o
	})
}

func applyAvailabilityChanged(store *Store[freight.Transporter], data json.RawMessage) bool {
	var payload push.AvailabilityPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TransporterID == "" {
		return false
	}
	return store.Patch(payload.TransporterID, func(t freight.Transporter) freight.Transporter {
		t.IsAvailable = payload.IsAvailable
		return t
	})
}
