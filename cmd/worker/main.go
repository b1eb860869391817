package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/config"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/services/ai"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/telemetry"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/workers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "daily-quests-worker"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	schedule := flag.Bool("schedule", true, "Run the midnight warm-up scheduler in this process")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Bool("scheduler_enabled", *schedule),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.String("ai_model", cfg.AIModel),
	)

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEnabled, serviceName, cfg.OTELEndpoint, zapLogger)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	jobQueue, err := connectQueue(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	opts := []quests.Option{quests.WithLogger(zapLogger)}
	if cfg.AIEnabled() {
		reorderer, err := ai.NewDefaultRegistry(zapLogger, debugMode).GetProvider(cfg.AIProvider, cfg.AISettings())
		if err != nil {
			zapLogger.Warn("failed_to_create_ai_provider_reorder_disabled", zap.Error(err))
		} else {
			opts = append(opts, quests.WithReorderer(reorderer))
		}
	}
	engine := quests.NewEngine(
		database.NewActivityRepository(db),
		database.NewCatalogRepository(db),
		database.NewDailyQuestRepository(db),
		quests.NewSelector(cfg.QuestDailyCount, cfg.QuestDiversityThreshold),
		opts...,
	)

	warmer := workers.NewQuestWarmer(engine, jobQueue, zapLogger)
	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		warmer.Run(gctx, msgs, errs)
		if gctx.Err() == nil {
			return errors.New("job stream closed")
		}
		return nil
	})
	if *schedule {
		scheduler := workers.NewScheduler(jobQueue, database.NewUserActivityRepository(db), zapLogger)
		g.Go(func() error { return scheduler.Run(gctx) })
	}
	gc := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
	g.Go(func() error { return gc.Start(gctx) })

	zapLogger.Info("worker_started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}
	zapLogger.Info("worker_stopped")
}

// connectQueue retries with exponential backoff to ride out broker startup.
func connectQueue(ctx context.Context, url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const maxRetries = 10
	delay := 2 * time.Second

	var lastErr error
	for attempt := range maxRetries {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			return q, nil
		}
		lastErr = err
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, 30*time.Second)
	}
	return nil, lastErr
}
