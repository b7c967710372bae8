package controllers

import (
	"context"
	"net/http"

	"github.com/avelazquez/courierdesk-backend/api/responses"
	"github.com/avelazquez/courierdesk-backend/pkg/config"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
)

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CourierDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CourierDesk-Env", cfg.App.Env)
		for name, dependency := range pingers {
			if dependency == nil {
				continue
			}
			if err := dependency.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
