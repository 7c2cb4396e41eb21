package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcedhq/sourced/pkg/app"
	"github.com/sourcedhq/sourced/pkg/cache"
	"github.com/sourcedhq/sourced/pkg/config"
	"github.com/sourcedhq/sourced/pkg/database"
	"github.com/sourcedhq/sourced/pkg/events"
	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/pkg/openai"
	"github.com/sourcedhq/sourced/pkg/telemetry"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
	"github.com/sourcedhq/sourced/services/catalog/application/subscribers"
	catalogEvents "github.com/sourcedhq/sourced/services/catalog/domain/events"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/enrichment"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	appConfig := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
		OpenAI:   openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
	}

	if err := registerSubscribers(ctx, appConfig); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers wires all domain event handlers.
// Add new topics here as more services publish events.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	items := postgres.NewItemRepository(a.Db, a.EventBus)
	classifier := enrichment.NewClassifier(
		a.OpenAI,
		a.Config.ClassifierModel,
		time.Duration(a.Config.ClassifyTimeoutSeconds)*time.Second,
	)
	itemCache := appsvcs.NewItemCache(a.Redis)
	handler := subscribers.NewEnrichmentHandler(items, classifier, itemCache, a.Logger)

	errCh, err := a.EventBus.Subscribe(ctx, catalogEvents.TopicItemCreated, handler.Handle)
	if err != nil {
		return err
	}

	// Drain subscriber errors in background so the channel never blocks.
	go func() {
		for err := range errCh {
			a.Logger.ErrorContext(ctx, "subscriber error",
				"topic", catalogEvents.TopicItemCreated,
				"error", err,
			)
		}
	}()

	a.Logger.Info("event subscribers registered", "topics", []string{catalogEvents.TopicItemCreated})
	return nil
}
