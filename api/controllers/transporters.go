package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/api/validators"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/dispatch"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	pkgerrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/freight"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// TransportersBackend is the slice of the brokerage API the carrier
// controllers need.
type TransportersBackend interface {
	CreateTransporter(ctx context.Context, input backend.CreateTransporterInput) (freight.Transporter, error)
}

// ListTransporters serves the cached carrier roster.
func ListTransporters(store *cache.Store[freight.Transporter], ld *loader.Loader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ld.EnsureLoaded(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

type routeRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

type workHoursRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type createTransporterRequest struct {
	Name          string            `json:"name" validate:"required"`
	Phone         string            `json:"phone" validate:"required,phone"`
	Email         string            `json:"email" validate:"required,email"`
	Password      string            `json:"password" validate:"required,min=6"`
	LicensePlate  string            `json:"licensePlate" validate:"required,license_plate"`
	TruckCapacity float64           `json:"truckCapacity" validate:"gte=0"`
	Routes        []routeRequest    `json:"routes" validate:"required,min=1,dive"`
	Vehicles      []string          `json:"vehicles"`
	WorkDays      []string          `json:"workDays"`
	WorkHours     *workHoursRequest `json:"workHours"`
	LastActive    *time.Time        `json:"lastActive"`
}

// CreateTransporter registers a carrier with the backend, patches the
// cache, and announces it on the push channel.
func CreateTransporter(svc TransportersBackend, store *cache.Store[freight.Transporter], hub *push.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransporterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.LastActive != nil && req.LastActive.After(time.Now()) {
			err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"lastActive": "must not be in the future"})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := backend.CreateTransporterInput{
			Name:          req.Name,
			Phone:         req.Phone,
			Email:         req.Email,
			Password:      req.Password,
			LicensePlate:  req.LicensePlate,
			TruckCapacity: req.TruckCapacity,
			WorkDays:      req.WorkDays,
		}
		for _, route := range req.Routes {
			input.Routes = append(input.Routes, freight.Route{From: route.From, To: route.To})
		}
		for _, vehicle := range req.Vehicles {
			input.Vehicles = append(input.Vehicles, freight.Vehicle{Type: vehicle})
		}
		if req.WorkHours != nil {
			input.WorkHours = &freight.WorkHours{Start: req.WorkHours.Start, End: req.WorkHours.End}
		}

		created, err := svc.CreateTransporter(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.ApplyCreated(created)
		if hub != nil {
			hub.Emit(r.Context(), push.EventTransporterAdded, created)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

// SetTransporterAvailability toggles whether a carrier accepts new orders.
func SetTransporterAvailability(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.SetAvailability(r.Context(), chi.URLParam(r, "transporterId"), *req.IsAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
