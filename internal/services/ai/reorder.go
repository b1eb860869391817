package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/validation"
)

// MaxRationaleLength caps the rationale attached to the first quest.
const MaxRationaleLength = 280

// ReorderSystemPrompt is the fixed instruction sent with every reorder request.
const ReorderSystemPrompt = `You order a user's daily quests.
Reorder the given quests by likely completion and impact for this user, using the signals provided.
Do not introduce new keys. Do not rename, drop or repeat keys.
Respond with a single JSON object and nothing else:
{"order": ["<questKey>", ...], "rationale": "<one short sentence>"}`

type reorderResponse struct {
	Order     []string `json:"order" validate:"required,min=1,unique,dive,required"`
	Rationale string   `json:"rationale"`
}

// BuildReorderPrompt renders the user message for req.
func BuildReorderPrompt(req ReorderRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode reorder request: %w", err)
	}
	return string(body), nil
}

// ParseReorderResponse decodes and validates model output against the keys
// that were sent. Output naming any other key, repeating a key or listing more
// keys than were sent is rejected.
func ParseReorderResponse(content string, sent []string) (*Reordering, error) {
	var resp reorderResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &resp); err != nil {
		return nil, &MalformedAIResponseError{Reason: "invalid json", Err: err}
	}
	if err := validation.Validate.Struct(resp); err != nil {
		return nil, &MalformedAIResponseError{Reason: "schema violation", Err: err}
	}
	if len(resp.Order) > len(sent) {
		return nil, &MalformedAIResponseError{Reason: fmt.Sprintf("order has %d keys, sent %d", len(resp.Order), len(sent))}
	}

	allowed := make(map[string]struct{}, len(sent))
	for _, k := range sent {
		allowed[k] = struct{}{}
	}
	for _, k := range resp.Order {
		if _, ok := allowed[k]; !ok {
			return nil, &MalformedAIResponseError{Reason: "unknown quest key " + logger.SanitizeString(k, 64)}
		}
	}

	return &Reordering{
		Order:     resp.Order,
		Rationale: logger.SanitizeString(strings.TrimSpace(resp.Rationale), MaxRationaleLength),
	}, nil
}
