package controllers

import (
	"context"
	"net/http"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/api/validators"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/pkg/enums"
	pkgerrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// UsersBackend is the slice of the brokerage API the account controllers need.
type UsersBackend interface {
	CreateUser(ctx context.Context, input backend.CreateUserInput) (freight.User, error)
}

// ListUsers serves the cached client and admin accounts.
func ListUsers(store *cache.Store[freight.User], ld *loader.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ld.EnsureLoaded(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

type createUserRequest struct {
	LastName  string `json:"nom" validate:"required"`
	FirstName string `json:"prenom" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"telephone" validate:"required,phone"`
	Address   string `json:"adresse"`
	City      string `json:"ville"`
	Role      string `json:"role" validate:"required,oneof=client admin"`
	Password  string `json:"password" validate:"required,min=6"`
}

// CreateUser registers an account with the backend, patches the cache,
// and announces it on the push channel.
func CreateUser(svc UsersBackend, store *cache.Store[freight.User], hub *push.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		created, err := svc.CreateUser(r.Context(), backend.CreateUserInput{
			LastName:  req.LastName,
			FirstName: req.FirstName,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			City:      req.City,
			Role:      role,
			Status:    enums.UserStatusActive,
			Password:  req.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.ApplyCreated(created)
		if hub != nil {
			hub.Emit(r.Context(), push.EventNewUserCreated, created)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
