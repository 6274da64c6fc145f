package controllers

import (
	"net/http"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/internal/stats"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

// GetStats serves the dashboard aggregates.
func GetStats(svc *stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		aggregates, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, aggregates)
	}
}
