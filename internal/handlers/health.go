package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"go.uber.org/zap"
)

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewHealthChecker creates a health checker. Nil checks are skipped, so optional
// dependencies can be passed unconditionally.
func NewHealthChecker(checks map[string]CheckFunc, logger *zap.Logger) *HealthChecker {
	active := make(map[string]CheckFunc, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	return &HealthChecker{
		checks:  active,
		timeout: 5 * time.Second,
		logger:  logpkg.OrNop(logger),
		now:     time.Now,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	// Basic mode only reports that the server is running.
	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = "unhealthy: " + logpkg.SanitizeDetail(err)
			h.logger.Warn("health_check_failed", zap.String("check", name), zap.Error(err))
			continue
		}
		response.Checks[name] = "healthy"
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	respondJSON(w, statusCode, response, h.logger)
}
