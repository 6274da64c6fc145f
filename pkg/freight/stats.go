package freight

import "github.com/shopspring/decimal"

// StatPoint is one dashboard indicator with its period-over-period delta.
type StatPoint struct {
	Total      decimal.Decimal `json:"total"`
	Percentage float64         `json:"pourcentage"`
	Period     string          `json:"periode"`
}

// Stats is the dashboard aggregate served by the backend.
type Stats struct {
	Sales          StatPoint      `json:"ventes"`
	Orders         StatPoint      `json:"commandes"`
	Clients        StatPoint      `json:"clients"`
	OrdersByStatus map[string]int `json:"commandesParStatut"`
}
