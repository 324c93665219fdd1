package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/printforge/proofroom-backend/api/responses"
	"github.com/printforge/proofroom-backend/pkg/config"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
)

const envHeader = "X-Proofroom-Env"

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency; any failure reports not-ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks))
				return
			}
			checks[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// NewHealthDeps builds the dependency map for the readiness probe.
func NewHealthDeps(db, redis, pubsub Pinger) map[string]Pinger {
	return map[string]Pinger{
		"database": db,
		"redis":    redis,
		"pubsub":   pubsub,
	}
}
