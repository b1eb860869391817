package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
)

// Terminal task statuses; anything else counts as open.
var terminalTaskStatuses = []string{"done", "cancelled"}

// ActivityRepository reads task and activity-event data owned by other services.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListOpenItems returns the user's tasks that are not in a terminal status.
func (r *ActivityRepository) ListOpenItems(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error) {
	query := `
		SELECT id, status, priority, context, due_at, completed_at
		FROM tasks
		WHERE user_id = $1 AND status <> $2 AND status <> $3
	`
	items, err := r.queryItems(ctx, query, userID, terminalTaskStatuses[0], terminalTaskStatuses[1])
	if err != nil {
		return nil, fmt.Errorf("failed to list open items: %w", err)
	}
	return items, nil
}

// ListCompletedBetween returns tasks completed in [start, end).
func (r *ActivityRepository) ListCompletedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ActivityItem, error) {
	query := `
		SELECT id, status, priority, context, due_at, completed_at
		FROM tasks
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
	`
	items, err := r.queryItems(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed items: %w", err)
	}
	return items, nil
}

// ListEventsBetween returns events of one type that occurred in [start, end].
func (r *ActivityRepository) ListEventsBetween(ctx context.Context, userID uuid.UUID, eventType string, start, end time.Time) ([]models.ActivityEvent, error) {
	query := `
		SELECT id, event_type, occurred_at
		FROM activity_events
		WHERE user_id = $1 AND event_type = $2 AND occurred_at >= $3 AND occurred_at <= $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, eventType, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer closeRows(rows)

	var events []models.ActivityEvent
	for rows.Next() {
		var e models.ActivityEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity events: %w", err)
	}
	return events, nil
}

func (r *ActivityRepository) queryItems(ctx context.Context, query string, args ...any) ([]models.ActivityItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var items []models.ActivityItem
	for rows.Next() {
		var (
			item        models.ActivityItem
			dueAt       sql.NullTime
			completedAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Status, &item.Priority, &item.Context, &dueAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if dueAt.Valid {
			t := dueAt.Time
			item.DueAt = &t
		}
		if completedAt.Valid {
			t := completedAt.Time
			item.CompletedAt = &t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return items, nil
}
