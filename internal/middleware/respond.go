package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Error tags shared by middleware and handlers.
const (
	ErrTagUnauthorized = "unauthorized"
	ErrTagRateLimited  = "rate_limited"
	ErrTagInternal     = "internal_error"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail"`
	RetryInMs *int64 `json:"retry_in_ms,omitempty"`
}

// WriteError writes body with the given status.
func WriteError(w http.ResponseWriter, status int, body ErrorBody, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("error_tag", body.Error),
		)
	}
}
