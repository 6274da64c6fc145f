package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired inspects the JWT exp claim without verifying the signature.
// The backend remains the authority on validity; this only avoids sending
// requests with a token the backend is certain to reject. Tokens that do
// not parse as JWTs or carry no exp claim are passed through as-is.
func TokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
