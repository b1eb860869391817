package ai

import (
	"context"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"go.uber.org/zap"
)

// Reorderer asks an external model for a better ordering of already chosen quests.
type Reorderer interface {
	// Reorder returns a validated ordering of req's quest keys. Any error means
	// the caller keeps its own order.
	Reorder(ctx context.Context, req ReorderRequest) (*Reordering, error)
}

// QuestRef is the only quest data sent to the model.
type QuestRef struct {
	QuestKey string `json:"questKey"`
	Title    string `json:"title"`
}

// ReorderRequest is the model input: the user's signals and the candidate quests.
type ReorderRequest struct {
	Signals *models.Signals `json:"signals"`
	Quests  []QuestRef      `json:"quests"`
}

// Keys returns the quest keys of the request in order.
func (r ReorderRequest) Keys() []string {
	keys := make([]string, len(r.Quests))
	for i, q := range r.Quests {
		keys[i] = q.QuestKey
	}
	return keys
}

// Reordering is a validated model answer.
type Reordering struct {
	Order     []string
	Rationale string
}

// ProviderFactory creates a reorderer from string settings
type ProviderFactory func(config map[string]string) (Reorderer, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// NewDefaultRegistry returns a registry with the built-in providers registered.
func NewDefaultRegistry(log *zap.Logger, debugMode bool) *ProviderRegistry {
	registry := NewProviderRegistry()
	RegisterOpenAI(registry, log, debugMode)
	return registry
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Reorderer, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
