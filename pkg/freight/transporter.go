package freight

import "time"

// Route is a serviced leg between two cities.
type Route struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Vehicle describes one truck operated by a transporter.
type Vehicle struct {
	Type string `json:"type"`
}

// WorkHours is the daily availability window of a transporter.
type WorkHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Transporter is a carrier registered with the brokerage backend.
// CurrentOrderID keeps the backend's wire spelling.
type Transporter struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	LicensePlate   string     `json:"licensePlate"`
	TruckCapacity  float64    `json:"truckCapacity"`
	IsAvailable    bool       `json:"isAvailable"`
	CurrentOrderID string     `json:"currentorderId,omitempty"`
	Routes         []Route    `json:"routes"`
	Vehicles       []Vehicle  `json:"vehicles,omitempty"`
	WorkDays       []string   `json:"workDays,omitempty"`
	WorkHours      *WorkHours `json:"workHours,omitempty"`
	LastActive     *time.Time `json:"lastActive,omitempty"`
}

// ServesRoute reports whether the transporter covers the leg, ignoring case.
func (t Transporter) ServesRoute(from, to string) bool {
	for _, r := range t.Routes {
		if equalFold(r.From, from) && equalFold(r.To, to) {
			return true
		}
	}
	return false
}
