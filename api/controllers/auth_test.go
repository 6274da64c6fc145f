package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/credentials"
	apperrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
)

type fakeLoginBackend struct {
	loginFn func(ctx context.Context, email, password string) (backend.LoginResult, error)
}

func (f *fakeLoginBackend) Login(ctx context.Context, email, password string) (backend.LoginResult, error) {
	return f.loginFn(ctx, email, password)
}

type recordingCredentials struct {
	token string
}

func (r *recordingCredentials) Token(ctx context.Context) (string, error) {
	if r.token == "" {
		return "", apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	return r.token, nil
}

func (r *recordingCredentials) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	r.token = token
	return nil
}

func (r *recordingCredentials) Clear(ctx context.Context) error {
	r.token = ""
	return nil
}

var _ credentials.Store = (*recordingCredentials)(nil)

func TestAuthLoginStoresToken(t *testing.T) {
	svc := &fakeLoginBackend{
		loginFn: func(ctx context.Context, email, password string) (backend.LoginResult, error) {
			if email != "ops@mta.fr" {
				t.Fatalf("unexpected email %q", email)
			}
			return backend.LoginResult{Token: "tok-1", User: freight.User{ID: "u-1", Email: email}}, nil
		},
	}
	creds := &recordingCredentials{}

	rec := httptest.NewRecorder()
	body := `{"email":"ops@mta.fr","password":"secret1"}`
	AuthLogin(svc, creds, nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if creds.token != "tok-1" {
		t.Fatalf("token not stored, got %q", creds.token)
	}
}

func TestAuthLoginRejectsShortPassword(t *testing.T) {
	svc := &fakeLoginBackend{
		loginFn: func(ctx context.Context, email, password string) (backend.LoginResult, error) {
			t.Fatal("backend must not be called on invalid input")
			return backend.LoginResult{}, nil
		},
	}

	rec := httptest.NewRecorder()
	body := `{"email":"ops@mta.fr","password":"abc"}`
	AuthLogin(svc, &recordingCredentials{}, nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthLoginSurfacesBackendRejection(t *testing.T) {
	svc := &fakeLoginBackend{
		loginFn: func(ctx context.Context, email, password string) (backend.LoginResult, error) {
			return backend.LoginResult{}, apperrors.New(apperrors.CodeUnauthorized, "identifiants invalides")
		},
	}

	rec := httptest.NewRecorder()
	body := `{"email":"ops@mta.fr","password":"wrongpass"}`
	AuthLogin(svc, &recordingCredentials{}, nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthLogoutClearsToken(t *testing.T) {
	creds := &recordingCredentials{token: "tok-1"}

	rec := httptest.NewRecorder()
	AuthLogout(creds, nil, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if creds.token != "" {
		t.Fatal("token not cleared")
	}
}
