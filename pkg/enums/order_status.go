package enums

import "fmt"

// OrderStatus tracks the lifecycle of a transport order. Values are the
// French labels carried verbatim on the backend wire format.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "En_attente"
	OrderStatusAssigned  OrderStatus = "Assignée"
	OrderStatusInTransit OrderStatus = "En_cours"
	OrderStatusDelivered OrderStatus = "Livrée"
	OrderStatusCanceled  OrderStatus = "Annulée"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAssigned,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}
