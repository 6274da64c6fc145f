package controllers

import (
	"context"
	"net/http"

	"github.com/mtafreight/dispatch-gateway/api/responses"
	"github.com/mtafreight/dispatch-gateway/pkg/config"
	pkgerrors "github.com/mtafreight/dispatch-gateway/pkg/errors"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dispatch-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

type pinger interface {
	Ping(context.Context) error
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger, backendPinger pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dispatch-Env", cfg.App.Env)
		if redisPinger != nil {
			if err := redisPinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}
		if backendPinger != nil {
			if err := backendPinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
