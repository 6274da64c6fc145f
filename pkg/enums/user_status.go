package enums

import "fmt"

// UserStatus marks whether an account is active.
type UserStatus string

const (
	UserStatusActive   UserStatus = "actif"
	UserStatusInactive UserStatus = "inactif"
)

var validUserStatuses = []UserStatus{UserStatusActive, UserStatusInactive}

// String implements fmt.Stringer.
func (u UserStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserStatus.
func (u UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}
