package database

import (
	"context"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
)

// UserActivityRepository handles user activity database operations
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity := &models.UserActivity{}

	query := `
		SELECT user_id, last_api_interaction, warmup_paused, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.LastAPIInteraction,
		&activity.WarmupPaused,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	return activity, nil
}

// UpdateLastInteraction stamps the last API interaction and resumes warm-ups.
func (r *UserActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO user_activity (user_id, last_api_interaction, warmup_paused, created_at, updated_at)
		VALUES ($1, $2, false, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    warmup_paused = false,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}

	return nil
}

// ListWarmupEligible returns users with warm-ups enabled who were active at or after since.
func (r *UserActivityRepository) ListWarmupEligible(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_activity
		WHERE warmup_paused = false
		  AND last_api_interaction >= $1
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible users: %w", err)
	}
	defer closeRows(rows)

	var userIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return userIDs, nil
}

// PauseInactive pauses warm-ups for users whose last interaction is before cutoff.
func (r *UserActivityRepository) PauseInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE user_activity
		SET warmup_paused = true, updated_at = $2
		WHERE last_api_interaction < $1
		  AND warmup_paused = false
	`

	result, err := r.db.ExecContext(ctx, query, cutoff, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to pause inactive users: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
