package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/printforge/proofroom-backend/internal/cleanup"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/pubsub"
	"github.com/printforge/proofroom-backend/pkg/storage/cloudinary"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cleanup-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cleanup-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	consumer, err := cleanup.NewConsumer(mediaStore, pubsubClient.CleanupSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cleanup consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cleanup worker")

	runErr := consumer.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logg.Error(ctx, "cleanup worker stopped unexpectedly", runErr)
	}

	closeErr := pubsubClient.Close()
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
	}
	if (runErr != nil && !errors.Is(runErr, context.Canceled)) || closeErr != nil {
		os.Exit(1)
	}
	logg.Info(ctx, "cleanup worker shutting down gracefully")
}
