package routes

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printforge/proofroom-backend/api/controllers"
	proofcontrollers "github.com/printforge/proofroom-backend/api/controllers/proofs"
	"github.com/printforge/proofroom-backend/api/middleware"
	internalproofs "github.com/printforge/proofroom-backend/internal/proofs"
	"github.com/printforge/proofroom-backend/internal/uploads"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/logger"
	pkgredis "github.com/printforge/proofroom-backend/pkg/redis"
)

// UploadPipeline is the upload surface the proof routes need.
type UploadPipeline interface {
	Submit(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error)
	Cancel(uploadID uuid.UUID) bool
	Status(uploadID uuid.UUID) (uploads.Status, bool)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            pinger
	Redis         *pkgredis.Client
	PubSub        pinger
	ProofsService internalproofs.Service
	Pipeline      UploadPipeline
	Metrics       prometheus.Gatherer
}

type pinger = controllers.Pinger

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// A typed nil *redis.Client would slip past interface nil checks, so the
	// conversion happens here where the concrete type is still visible.
	var redisPinger pinger
	var idemStore pkgredis.IdempotencyStore
	if deps.Redis != nil {
		redisPinger = deps.Redis
		idemStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.NewHealthDeps(deps.DB, redisPinger, deps.PubSub)))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders/{orderId}/proofs", func(r chi.Router) {
			r.Get("/", proofcontrollers.List(deps.ProofsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Post("/", proofcontrollers.Upload(deps.Pipeline, cfg.Uploads, logg))
				r.Post("/send", proofcontrollers.Send(deps.ProofsService, logg))
				r.Post("/{proofId}/replace", proofcontrollers.Replace(deps.Pipeline, cfg.Uploads, logg))
				r.Delete("/{proofId}", proofcontrollers.Remove(deps.ProofsService, logg))
			})

			r.With(middleware.RequireRole("customer", logg)).
				Post("/{proofId}/revision", proofcontrollers.Revision(deps.Pipeline, cfg.Uploads, logg))

			r.Put("/{proofId}/status", proofcontrollers.UpdateStatus(deps.ProofsService, logg))
			r.Post("/{proofId}/notes", proofcontrollers.Notes(deps.ProofsService, logg))
		})

		r.Route("/uploads/{uploadId}", func(r chi.Router) {
			r.Get("/", proofcontrollers.UploadStatus(deps.Pipeline, logg))
			r.Post("/cancel", proofcontrollers.CancelUpload(deps.Pipeline, logg))
		})
	})

	return r
}
