package middleware

import (
	"context"
	"net/http"
	"strings"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier validates a bearer token and returns its identity claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// UserResolver maps verified claims to a stored user, creating it on first use.
type UserResolver interface {
	UpsertFromClaims(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

// Auth rejects requests without a valid bearer token and stores the caller in
// the request context.
func Auth(verifier TokenVerifier, users UserResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logpkg.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing Authorization header", logger)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "invalid Authorization header format", logger)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.Info("token_verification_failed",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("request_id", request.RequestID(ctx)),
				)
				unauthorized(w, "invalid or expired token", logger)
				return
			}

			user, err := users.UpsertFromClaims(ctx, claims)
			if err != nil {
				logger.Error("user_resolution_failed",
					zap.String("subject", logpkg.SanitizeUserID(claims.Sub)),
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("request_id", request.RequestID(ctx)),
				)
				unauthorized(w, "caller identity could not be resolved", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string, logger *zap.Logger) {
	WriteError(w, http.StatusUnauthorized, ErrorBody{Error: ErrTagUnauthorized, Detail: detail}, logger)
}
