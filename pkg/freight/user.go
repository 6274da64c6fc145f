package freight

import (
	"time"

	"github.com/mtafreight/dispatch-gateway/pkg/enums"
)

// User is a client or administrator account.
type User struct {
	ID           string           `json:"_id"`
	LastName     string           `json:"nom"`
	FirstName    string           `json:"prenom"`
	Email        string           `json:"email"`
	Phone        string           `json:"telephone"`
	Address      string           `json:"adresse,omitempty"`
	City         string           `json:"ville,omitempty"`
	Role         enums.UserRole   `json:"role"`
	Status       enums.UserStatus `json:"status"`
	OrderCount   int              `json:"commandes"`
	RegisteredAt time.Time        `json:"dateInscription"`
	LastOrderAt  *time.Time       `json:"derniereCommande,omitempty"`
}

// FullName joins the first and last name for display.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
