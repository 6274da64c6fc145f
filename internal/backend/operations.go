package backend

import (
	"context"
	"net/http"

	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/shopspring/decimal"
)

// LoginResult carries the session issued by the backend.
type LoginResult struct {
	Token string       `json:"token"`
	User  freight.User `json:"user"`
}

// Login exchanges operator credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/admin/login", body, &out, callOptions{operation: "login", anonymous: true})
	return out, err
}

// ListOrders fetches every order visible to the operator.
func (c *Client) ListOrders(ctx context.Context) ([]freight.Order, error) {
	var out []freight.Order
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out, callOptions{operation: "listOrders"})
	return out, err
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (freight.Order, error) {
	var out freight.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &out, callOptions{operation: "getOrder"})
	return out, err
}

// CreateOrderInput is the payload for registering a new order.
type CreateOrderInput struct {
	Pickup    freight.Pickup   `json:"pickup"`
	Delivery  freight.Delivery `json:"delivery"`
	Weight    float64          `json:"weight"`
	Distance  float64          `json:"distance"`
	Nature    string           `json:"nature"`
	TruckType string           `json:"truckType"`
	Amount    decimal.Decimal  `json:"montant"`
	ClientID  string           `json:"clientId,omitempty"`
}

// CreateOrder registers a new order with the backend.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (freight.Order, error) {
	var out freight.Order
	err := c.do(ctx, http.MethodPost, "/orders", input, &out, callOptions{operation: "createOrder"})
	return out, err
}

// AssignOrder asks the backend to assign the order. An empty transporterID
// lets the backend pick the carrier itself.
func (c *Client) AssignOrder(ctx context.Context, orderID, transporterID string) (freight.Order, error) {
	body := map[string]string{"transporterId": transporterID}
	var out freight.Order
	err := c.do(ctx, http.MethodPost, "/assign-order/"+orderID, body, &out, callOptions{operation: "assignOrder"})
	return out, err
}

// ListTransporters fetches the carrier roster.
func (c *Client) ListTransporters(ctx context.Context) ([]freight.Transporter, error) {
	var out []freight.Transporter
	err := c.do(ctx, http.MethodGet, "/transporters", nil, &out, callOptions{operation: "listTransporters"})
	return out, err
}

// CreateTransporterInput is the payload for registering a new carrier.
type CreateTransporterInput struct {
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	Email         string             `json:"email"`
	Password      string             `json:"password"`
	LicensePlate  string             `json:"licensePlate"`
	TruckCapacity float64            `json:"truckCapacity"`
	Routes        []freight.Route    `json:"routes"`
	Vehicles      []freight.Vehicle  `json:"vehicles,omitempty"`
	WorkDays      []string           `json:"workDays,omitempty"`
	WorkHours     *freight.WorkHours `json:"workHours,omitempty"`
}

// CreateTransporter registers a new carrier with the backend.
func (c *Client) CreateTransporter(ctx context.Context, input CreateTransporterInput) (freight.Transporter, error) {
	var out freight.Transporter
	err := c.do(ctx, http.MethodPost, "/transporters", input, &out, callOptions{operation: "createTransporter"})
	return out, err
}

// SetTransporterAvailability toggles whether a carrier accepts new orders.
func (c *Client) SetTransporterAvailability(ctx context.Context, transporterID string, isAvailable bool) (freight.Transporter, error) {
	body := map[string]bool{"isAvailable": isAvailable}
	var out freight.Transporter
	err := c.do(ctx, http.MethodPatch, "/transporters/"+transporterID+"/availability", body, &out, callOptions{operation: "setAvailability"})
	return out, err
}

// ListUsers fetches the client and admin accounts.
func (c *Client) ListUsers(ctx context.Context) ([]freight.User, error) {
	var out []freight.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &out, callOptions{operation: "listUsers"})
	return out, err
}

// CreateUserInput is the payload for registering a new account.
type CreateUserInput struct {
	LastName  string           `json:"nom"`
	FirstName string           `json:"prenom"`
	Email     string           `json:"email"`
	Phone     string           `json:"telephone"`
	Address   string           `json:"adresse,omitempty"`
	City      string           `json:"ville,omitempty"`
	Role      enums.UserRole   `json:"role"`
	Status    enums.UserStatus `json:"status,omitempty"`
	Password  string           `json:"password"`
}

// CreateUser registers a new account with the backend.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (freight.User, error) {
	var out freight.User
	err := c.do(ctx, http.MethodPost, "/users/create-user", input, &out, callOptions{operation: "createUser"})
	return out, err
}

// GetStats fetches the dashboard aggregates.
func (c *Client) GetStats(ctx context.Context) (freight.Stats, error) {
	var out freight.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out, callOptions{operation: "getStats"})
	return out, err
}

// CreateTransportOrder files the OT document with the backend.
func (c *Client) CreateTransportOrder(ctx context.Context, doc freight.TransportOrder) (freight.TransportOrder, error) {
	var out freight.TransportOrder
	err := c.do(ctx, http.MethodPost, "/transport-orders", doc, &out, callOptions{operation: "createTransportOrder"})
	return out, err
}
