package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "admin"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Token(ctx); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("empty store should be unauthorized, got %v", err)
	}

	token := signedToken(t, time.Now().Add(time.Hour))
	if err := store.SetToken(ctx, token, 0); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, err := store.Token(ctx)
	if err != nil || got != token {
		t.Fatalf("Token() = %q, %v", got, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Token(ctx); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("cleared store should be unauthorized, got %v", err)
	}
}

func TestMemoryStoreRejectsExpiredJWT(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	token := signedToken(t, time.Now().Add(-time.Minute))
	if err := store.SetToken(ctx, token, 0); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, err := store.Token(ctx); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expired token should be unauthorized, got %v", err)
	}
}

func TestMemoryStoreHonorsTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	current := time.Now()
	store.now = func() time.Time { return current }

	token := signedToken(t, time.Time{})
	if err := store.SetToken(ctx, token, time.Minute); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, err := store.Token(ctx); err != nil {
		t.Fatalf("token inside TTL should be valid: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := store.Token(ctx); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("token past TTL should be unauthorized, got %v", err)
	}
}

func TestTokenExpiredHandlesOpaqueTokens(t *testing.T) {
	if TokenExpired("not-a-jwt", time.Now()) {
		t.Fatal("opaque token must not be treated as expired")
	}
	if TokenExpired(signedToken(t, time.Time{}), time.Now()) {
		t.Fatal("token without exp must not be treated as expired")
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SetToken(context.Background(), "", 0); apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("empty token should fail validation, got %v", err)
	}
}
