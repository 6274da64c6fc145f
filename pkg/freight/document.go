package freight

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransportOrder is the contractual document (OT) binding an order to a
// transporter at an agreed price.
type TransportOrder struct {
	ID                string          `json:"_id,omitempty"`
	Reference         string          `json:"reference"`
	OrderID           string          `json:"orderId"`
	TransporterID     string          `json:"transporterId"`
	AgreedPrice       decimal.Decimal `json:"agreedPrice"`
	EstimatedByClient decimal.Decimal `json:"estimatedByClient"`
	TransportMode     string          `json:"transportMode"`
	ShippingDate      time.Time       `json:"shippingDate"`
	LoadingDate       time.Time       `json:"loadingDate"`
	DeliveryDate      time.Time       `json:"deliveryDate"`
	Commitments       string          `json:"commitments,omitempty"`
	PaymentConditions string          `json:"paymentConditions,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Instructions      string          `json:"instructions,omitempty"`
	CreatedAt         time.Time       `json:"createdAt,omitempty"`
}
