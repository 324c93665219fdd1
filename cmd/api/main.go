package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/printforge/proofroom-backend/api/routes"
	internalproofs "github.com/printforge/proofroom-backend/internal/proofs"
	"github.com/printforge/proofroom-backend/internal/printfile"
	"github.com/printforge/proofroom-backend/internal/uploads"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/db"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/metrics"
	"github.com/printforge/proofroom-backend/pkg/migrate"
	"github.com/printforge/proofroom-backend/pkg/outbox"
	"github.com/printforge/proofroom-backend/pkg/pubsub"
	"github.com/printforge/proofroom-backend/pkg/redis"
	"github.com/printforge/proofroom-backend/pkg/storage/cloudinary"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}

	mediaStore, err := cloudinary.NewClient(context.Background(), cfg.MediaStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap media store", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	proofsService, err := internalproofs.NewService(
		internalproofs.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		logg,
		cfg.Uploads,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create proofs service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	uploadMetrics := metrics.NewUploadMetrics(registry)

	pipeline, err := uploads.NewPipeline(
		uploads.NewValidator(cfg.Uploads),
		mediaStore,
		printfile.New(cfg.Analyzer),
		proofsService,
		uploadMetrics,
		logg,
		cfg.Uploads,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload pipeline", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			PubSub:        pubsubClient,
			ProofsService: proofsService,
			Pipeline:      pipeline,
			Metrics:       registry,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		pubsubClient.Close(),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down cleanly")
}
