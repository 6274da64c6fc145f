package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/api/validators"
	"github.com/mtafreight/dispatch-gateway/internal/documents"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

type createTransportOrderRequest struct {
	OrderID           string          `json:"orderId" validate:"required"`
	TransporterID     string          `json:"transporterId" validate:"required"`
	AgreedPrice       decimal.Decimal `json:"agreedPrice"`
	TransportMode     string          `json:"transportMode"`
	ShippingDate      time.Time       `json:"shippingDate"`
	LoadingDate       time.Time       `json:"loadingDate"`
	DeliveryDate      time.Time       `json:"deliveryDate"`
	Commitments       string          `json:"commitments"`
	PaymentConditions string          `json:"paymentConditions"`
	Notes             string          `json:"notes"`
	Instructions      string          `json:"instructions"`
}

// CreateTransportOrder files an OT document for an assigned order.
func CreateTransportOrder(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransportOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), documents.CreateInput{
			OrderID:           req.OrderID,
			TransporterID:     req.TransporterID,
			AgreedPrice:       req.AgreedPrice,
			TransportMode:     req.TransportMode,
			ShippingDate:      req.ShippingDate,
			LoadingDate:       req.LoadingDate,
			DeliveryDate:      req.DeliveryDate,
			Commitments:       req.Commitments,
			PaymentConditions: req.PaymentConditions,
			Notes:             req.Notes,
			Instructions:      req.Instructions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
