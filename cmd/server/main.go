package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/config"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/handlers"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/middleware"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/services/ai"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/services/oidc"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName = "daily-quests-api"

	// questsRateLimitKey is the ratelimit_config row for the quests route.
	questsRateLimitKey = "quests_today"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OIDCIssuer == "" {
		zapLogger.Fatal("oidc_issuer_not_configured")
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
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
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

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The limiter fails open, so a missing Redis degrades rather than blocks.
		zapLogger.Warn("redis_unreachable_at_startup", zap.Error(err))
	} else {
		zapLogger.Info("connected_to_redis")
	}

	// RabbitMQ is only reported on by the health check here; the worker owns the queue.
	var queueCheck handlers.CheckFunc
	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_rabbitmq", zap.Error(err))
			queueCheck = func(context.Context) error { return err }
		} else {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			queueCheck = jobQueue.HealthCheck
		}
	}

	userRepo := database.NewUserRepository(db)
	activityRepo := database.NewUserActivityRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	engine := newEngine(cfg, db, zapLogger, debugMode)

	verifier := oidc.NewVerifier(oidc.NewJWKSManager(nil), cfg.OIDCIssuer, cfg.OIDCJWKSURL)

	limiterStore, err := middleware.NewRedisLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_limiter_store", zap.Error(err))
	}
	rateLimiter, err := middleware.NewRateLimiter(ctx, limiterStore, ratelimitConfigRepo, questsRateLimitKey, cfg.DefaultRateLimit, zapLogger, time.Minute)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	go rateLimiter.Start(ctx)

	healthChecker := handlers.NewHealthChecker(map[string]handlers.CheckFunc{
		"database": db.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"rabbitmq": queueCheck,
	}, zapLogger)
	questsHandler := handlers.NewQuestsHandler(engine, zapLogger)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, first registered outermost.
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware(serviceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	questsRouter := apiRouter.PathPrefix("/quests").Subrouter()
	questsRouter.Use(middleware.Auth(verifier, userRepo, zapLogger))
	questsRouter.Use(rateLimiter.Middleware)
	questsRouter.Use(middleware.ActivityTracking(activityRepo, zapLogger))
	questsRouter.HandleFunc("/today", questsHandler.Today).Methods(http.MethodGet)

	// CORS wraps the router so preflights are answered before route matching.
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        middleware.CORS(cfg.CORSAllowedOrigins, zapLogger)(r),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("server_failed_to_start", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		os.Exit(1)
	}

	zapLogger.Info("server_exited")
}

// newEngine wires the quest pipeline. The AI reorder step is attached only
// when a provider can be built from configuration.
func newEngine(cfg *config.Config, db *database.DB, zapLogger *zap.Logger, debugMode bool) *quests.Engine {
	opts := []quests.Option{quests.WithLogger(zapLogger)}
	if cfg.AIEnabled() {
		reorderer, err := ai.NewDefaultRegistry(zapLogger, debugMode).GetProvider(cfg.AIProvider, cfg.AISettings())
		if err != nil {
			zapLogger.Warn("failed_to_create_ai_provider_reorder_disabled", zap.Error(err))
		} else {
			opts = append(opts, quests.WithReorderer(reorderer))
		}
	}

	return quests.NewEngine(
		database.NewActivityRepository(db),
		database.NewCatalogRepository(db),
		database.NewDailyQuestRepository(db),
		quests.NewSelector(cfg.QuestDailyCount, cfg.QuestDiversityThreshold),
		opts...,
	)
}
