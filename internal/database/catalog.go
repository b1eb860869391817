package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/lib/pq"
)

// CatalogRepository reads and maintains the quest catalog.
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `quest_key, title, description, base_target, base_reward_points, meta, tags, active, created_at, updated_at`

// ListActive returns active catalog entries in catalog order.
func (r *CatalogRepository) ListActive(ctx context.Context) ([]models.CatalogEntry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM quest_catalog
		WHERE active = true
		ORDER BY sort_order, quest_key
	`
	return r.list(ctx, query)
}

// ListAll returns every catalog entry, active or not, in catalog order.
func (r *CatalogRepository) ListAll(ctx context.Context) ([]models.CatalogEntry, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM quest_catalog
		ORDER BY sort_order, quest_key
	`
	return r.list(ctx, query)
}

func (r *CatalogRepository) list(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quest catalog: %w", err)
	}
	defer closeRows(rows)

	var entries []models.CatalogEntry
	for rows.Next() {
		var (
			e       models.CatalogEntry
			metaRaw []byte
			tags    pq.StringArray
		)
		if err := rows.Scan(
			&e.QuestKey,
			&e.Title,
			&e.Description,
			&e.BaseTarget,
			&e.BaseRewardPoints,
			&metaRaw,
			&tags,
			&e.Active,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &e.Meta); err != nil {
				return nil, fmt.Errorf("failed to decode meta for %s: %w", e.QuestKey, err)
			}
		}
		e.Tags = []string(tags)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}

	return entries, nil
}

// Upsert writes entries in one transaction. Slice position becomes catalog order.
func (r *CatalogRepository) Upsert(ctx context.Context, entries []models.CatalogEntry) error {
	query := `
		INSERT INTO quest_catalog (quest_key, title, description, base_target, base_reward_points, meta, tags, active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (quest_key) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    base_target = EXCLUDED.base_target,
		    base_reward_points = EXCLUDED.base_reward_points,
		    meta = EXCLUDED.meta,
		    tags = EXCLUDED.tags,
		    active = EXCLUDED.active,
		    sort_order = EXCLUDED.sort_order,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, e := range entries {
			meta := e.Meta
			if meta == nil {
				meta = map[string]any{}
			}
			metaJSON, err := json.Marshal(meta)
			if err != nil {
				return fmt.Errorf("failed to encode meta for %s: %w", e.QuestKey, err)
			}
			tags := e.Tags
			if tags == nil {
				tags = []string{}
			}
			if _, err := tx.ExecContext(ctx, query,
				e.QuestKey,
				e.Title,
				e.Description,
				e.BaseTarget,
				e.BaseRewardPoints,
				metaJSON,
				pq.Array(tags),
				e.Active,
				i,
				now,
			); err != nil {
				return fmt.Errorf("failed to upsert catalog entry %s: %w", e.QuestKey, err)
			}
		}
		return nil
	})
}

// SetActive toggles a single entry without touching the rest of the catalog.
func (r *CatalogRepository) SetActive(ctx context.Context, questKey string, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quest_catalog SET active = $2, updated_at = $3 WHERE quest_key = $1
	`, questKey, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update catalog entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("catalog entry %q not found", questKey)
	}
	return nil
}
