package middleware

import (
	"context"
	"net/http"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityRecorder stamps a user's last API interaction.
type ActivityRecorder interface {
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
}

// ActivityTracking records each authenticated call so the warm-up scheduler
// knows who is active. Failures never fail the request.
func ActivityTracking(recorder ActivityRecorder, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logpkg.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := request.UserFromContext(r); user != nil {
				if err := recorder.UpdateLastInteraction(r.Context(), user.ID); err != nil {
					logger.Warn("failed_to_update_user_activity",
						zap.String("user_id", user.ID.String()),
						zap.String("error", logpkg.SanitizeError(err)),
					)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
