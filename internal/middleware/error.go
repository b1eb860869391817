package middleware

import (
	"net/http"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"go.uber.org/zap"
)

// ErrorHandler recovers panics and answers with a generic 500.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					// Panic details stay in the logs.
					logger.Error("panic_recovered",
						zap.Any("error", err),
						zap.String("path", logpkg.SanitizePath(r.URL.Path)),
						zap.String("method", r.Method),
						zap.String("request_id", request.RequestID(r.Context())),
					)
					WriteError(w, http.StatusInternalServerError, ErrorBody{
						Error:  ErrTagInternal,
						Detail: "an unexpected error occurred",
					}, logger)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
