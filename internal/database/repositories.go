package database

import (
	"context"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user operations the auth layer needs.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpsertFromClaims(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

// UserActivityRepositoryInterface defines the interface for user activity repository operations
type UserActivityRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
	ListWarmupEligible(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	PauseInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

// CatalogRepositoryInterface defines catalog reads and writes.
type CatalogRepositoryInterface interface {
	ListActive(ctx context.Context) ([]models.CatalogEntry, error)
	ListAll(ctx context.Context) ([]models.CatalogEntry, error)
	Upsert(ctx context.Context, entries []models.CatalogEntry) error
	SetActive(ctx context.Context, questKey string, active bool) error
}

// ActivityRepositoryInterface defines the read-only task and event queries.
type ActivityRepositoryInterface interface {
	ListOpenItems(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error)
	ListCompletedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ActivityItem, error)
	ListEventsBetween(ctx context.Context, userID uuid.UUID, eventType string, start, end time.Time) ([]models.ActivityEvent, error)
}

// DailyQuestRepositoryInterface defines seed persistence, run audit and evaluation.
type DailyQuestRepositoryInterface interface {
	UpsertSeeds(ctx context.Context, userID uuid.UUID, questDate time.Time, seeds []models.Seed) error
	InsertGenerationRun(ctx context.Context, run *models.GenerationRun) error
	Evaluate(ctx context.Context, userID uuid.UUID, questDate time.Time) ([]models.EvaluatedQuest, error)
}

// RatelimitConfigRepositoryInterface defines stored rate limit access.
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context, key string) (*models.RatelimitConfig, error)
	List(ctx context.Context) ([]models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface            = (*UserRepository)(nil)
	_ UserActivityRepositoryInterface    = (*UserActivityRepository)(nil)
	_ CatalogRepositoryInterface         = (*CatalogRepository)(nil)
	_ ActivityRepositoryInterface        = (*ActivityRepository)(nil)
	_ DailyQuestRepositoryInterface      = (*DailyQuestRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
