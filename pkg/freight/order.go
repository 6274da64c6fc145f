package freight

import (
	"time"

	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	"github.com/shopspring/decimal"
)

// Pickup holds the sender side of an order.
type Pickup struct {
	SenderName  string `json:"senderName"`
	SenderPhone string `json:"senderPhone"`
	Address     string `json:"address"`
}

// Delivery holds the recipient side of an order.
type Delivery struct {
	RecipientName  string `json:"recipientName"`
	RecipientPhone string `json:"recipientPhone"`
	Address        string `json:"address"`
}

// Order is a freight order as exposed by the brokerage backend.
type Order struct {
	ID              string            `json:"_id"`
	Pickup          Pickup            `json:"pickup"`
	Delivery        Delivery          `json:"delivery"`
	Weight          float64           `json:"weight"`
	Distance        float64           `json:"distance"`
	Nature          string            `json:"nature"`
	TruckType       string            `json:"truckType"`
	Amount          decimal.Decimal   `json:"montant"`
	Status          enums.OrderStatus `json:"status"`
	TransporterID   string            `json:"transporterId,omitempty"`
	TransporterName string            `json:"transporterName,omitempty"`
	ClientID        string            `json:"clientId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// SenderAddress returns the pickup address used for route matching.
func (o Order) SenderAddress() string {
	return o.Pickup.Address
}

// RecipientAddress returns the delivery address used for route matching.
func (o Order) RecipientAddress() string {
	return o.Delivery.Address
}

// IsAssignable reports whether the order still waits for a transporter.
func (o Order) IsAssignable() bool {
	return o.Status == enums.OrderStatusPending
}
