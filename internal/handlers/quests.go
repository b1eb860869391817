package handlers

import (
	"context"
	"errors"
	"net/http"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/middleware"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestGenerator produces today's quests for a user.
type QuestGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID) (*models.DailyQuestsResult, error)
}

// QuestsHandler serves the daily quests endpoint.
type QuestsHandler struct {
	engine QuestGenerator
	logger *zap.Logger
}

// NewQuestsHandler creates a new quests handler
func NewQuestsHandler(engine QuestGenerator, logger *zap.Logger) *QuestsHandler {
	return &QuestsHandler{engine: engine, logger: logpkg.OrNop(logger)}
}

// Today handles GET /api/v1/quests/today.
func (h *QuestsHandler) Today(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, middleware.ErrTagUnauthorized, "authentication required", h.logger)
		return
	}

	result, err := h.engine.Generate(r.Context(), user.ID)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result, h.logger)
}

func (h *QuestsHandler) respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var stageErr *quests.StageError
	if errors.As(err, &stageErr) {
		respondJSONError(w, http.StatusInternalServerError, stageErr.Code, logpkg.SanitizeDetail(stageErr.Err), h.logger)
		return
	}

	h.logger.Error("quest_handler_unexpected_error",
		zap.String("error", logpkg.SanitizeError(err)),
		zap.String("request_id", request.RequestID(r.Context())),
	)
	respondJSONError(w, http.StatusInternalServerError, middleware.ErrTagInternal, "an unexpected error occurred", h.logger)
}
