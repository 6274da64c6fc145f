package push

import "encoding/json"

// Event names carried on the push channel. Inbound events reconcile the
// local caches, outbound events notify the backend and peer dashboards.
const (
	EventOrderCreated         = "orderCreated"
	EventNewOrderCreated      = "newOrderCreated"
	EventNewOrderNotification = "newOrderNotification"
	EventOrderUpdated         = "orderUpdated"
	EventOrderDeleted         = "orderDeleted"
	EventOrderAssigned        = "orderAssigned"

	EventTransporterAdded               = "transporterAdded"
	EventTransporterUpdated             = "transporterUpdated"
	EventTransporterDeleted             = "transporterDeleted"
	EventTransporterAvailabilityChanged = "transporterAvailabilityChanged"

	EventUserCreated    = "userCreated"
	EventNewUserCreated = "newUserCreated"
	EventUserUpdated    = "userUpdated"
)

// Message is one frame on the push channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewMessage marshals the payload into a frame.
func NewMessage(event string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: data}, nil
}

// AssignedPayload is the body of an orderAssigned event.
type AssignedPayload struct {
	OrderID       string `json:"orderId"`
	TransporterID string `json:"transporterId"`
}

// AvailabilityPayload is the body of a transporterAvailabilityChanged event.
type AvailabilityPayload struct {
	TransporterID string `json:"transporterId"`
	IsAvailable   bool   `json:"isAvailable"`
}

// DeletedPayload identifies a removed entity.
type DeletedPayload struct {
	ID string `json:"_id"`
}
