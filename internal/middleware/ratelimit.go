package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RatelimitConfigSource reads and seeds stored rates.
type RatelimitConfigSource interface {
	Get(ctx context.Context, key string) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// NewRedisLimiterStore creates the shared limiter store.
func NewRedisLimiterStore(client *redis.Client) (limiter.Store, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "quests_limiter",
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimiter limits each caller on one route and periodically reloads its rate
// from the database.
type RateLimiter struct {
	store       limiter.Store
	repo        RatelimitConfigSource
	configKey   string
	defaultRate string
	log         *zap.Logger
	interval    time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	instance *limiter.Limiter
}

// NewRateLimiter creates a limiter for the rate stored under configKey. When
// nothing is stored the database default applies, then defaultRate.
func NewRateLimiter(ctx context.Context, store limiter.Store, repo RatelimitConfigSource, configKey, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimiter, error) {
	rate, err := limiter.NewRateFromFormatted(defaultRate)
	if err != nil {
		return nil, fmt.Errorf("invalid default rate %q: %w", defaultRate, err)
	}
	r := &RateLimiter{
		store:       store,
		repo:        repo,
		configKey:   configKey,
		defaultRate: defaultRate,
		log:         logpkg.OrNop(log),
		interval:    reloadInterval,
		now:         time.Now,
		instance:    limiter.New(store, rate),
	}
	r.Load(ctx)
	return r, nil
}

// Start runs the reload loop until ctx is cancelled.
func (r *RateLimiter) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Load(ctx)
		}
	}
}

// Load refreshes the rate from the database. On any failure the current rate stays.
func (r *RateLimiter) Load(ctx context.Context) {
	rateStr, err := r.resolveRate(ctx)
	if err != nil {
		r.log.Warn("failed_to_load_ratelimit_config_keeping_current",
			zap.Error(err),
			zap.String("config_key", r.configKey),
		)
		return
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_keeping_current",
			zap.Error(err),
			zap.String("rate_str", rateStr),
		)
		return
	}

	r.mu.Lock()
	r.instance = limiter.New(r.store, rate)
	r.mu.Unlock()
}

func (r *RateLimiter) resolveRate(ctx context.Context) (string, error) {
	if r.configKey != "" && r.configKey != database.DefaultRatelimitConfigKey {
		cfg, err := r.repo.Get(ctx, r.configKey)
		if err != nil {
			return "", err
		}
		if cfg != nil && cfg.Rate != "" {
			return cfg.Rate, nil
		}
	}

	cfg, err := r.repo.Get(ctx, database.DefaultRatelimitConfigKey)
	if err != nil {
		return "", err
	}
	if cfg != nil && cfg.Rate != "" {
		return cfg.Rate, nil
	}

	// Seed the default so operators can see and edit it.
	if err := r.repo.Set(ctx, &models.RatelimitConfig{ConfigKey: database.DefaultRatelimitConfigKey, Rate: r.defaultRate}); err != nil {
		r.log.Error("failed_to_save_default_ratelimit_config",
			zap.Error(err),
			zap.String("default_rate", r.defaultRate),
		)
	}
	return r.defaultRate, nil
}

// Middleware rejects callers over their rate with 429 before next runs. It keys
// on the authenticated user and falls back to the client IP.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := "ip:" + request.ClientIP(req)
		if user := request.UserFromContext(req); user != nil {
			key = "user:" + user.ID.String()
		}
		key = r.configKey + ":" + key

		r.mu.RLock()
		instance := r.instance
		r.mu.RUnlock()

		lctx, err := instance.Get(req.Context(), key)
		if err != nil {
			r.log.Warn("rate_limiter_unavailable_allowing_request",
				zap.Error(err),
				zap.String("request_id", request.RequestID(req.Context())),
			)
			next.ServeHTTP(w, req)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryMs := max(lctx.Reset*1000-r.now().UnixMilli(), 0)
			w.Header().Set("Retry-After", strconv.FormatInt((retryMs+999)/1000, 10))
			WriteError(w, http.StatusTooManyRequests, ErrorBody{
				Error:     ErrTagRateLimited,
				Detail:    fmt.Sprintf("limit of %d requests reached", lctx.Limit),
				RetryInMs: &retryMs,
			}, r.log)
			return
		}

		next.ServeHTTP(w, req)
	})
}
