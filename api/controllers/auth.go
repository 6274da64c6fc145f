package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/api/validators"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/credentials"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	pkgerrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// LoginBackend is the slice of the brokerage API the auth controllers need.
type LoginBackend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthLogin exchanges operator credentials for a backend session and
// primes the local caches.
func AuthLogin(svc LoginBackend, creds credentials.Store, ld *loader.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || creds == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUpstream, "backend returned no session token"))
			return
		}
		if err := creds.SetToken(r.Context(), result.Token, 0); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Prime the caches in the background so a slow backend does not
		// hold up the login response.
		if ld != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := ld.LoadAll(ctx); err != nil {
					logg.Error(ctx, "initial cache load incomplete", err)
				}
			}()
		}

		logg.Info(r.Context(), "operator session opened")
		responses.WriteSuccess(w, map[string]any{"user": result.User})
	}
}

// AuthLogout discards the stored session and empties the loaded state.
func AuthLogout(creds credentials.Store, ld *loader.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := creds.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ld != nil {
			ld.Reset()
		}
		logg.Info(r.Context(), "operator session closed")
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
