package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/middleware"
	"go.uber.org/zap"
)

// respondJSON sends data as the JSON body.
func respondJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("failed_to_encode_response", zap.Error(err), zap.Int("status_code", status))
	}
}

// respondJSONError sends an {error, detail} body.
func respondJSONError(w http.ResponseWriter, status int, tag, detail string, logger *zap.Logger) {
	middleware.WriteError(w, status, middleware.ErrorBody{Error: tag, Detail: detail}, logger)
}
