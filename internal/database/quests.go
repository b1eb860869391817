package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DailyQuestRepository persists generated quests and delegates evaluation to
// the evaluate_daily_quests database function.
type DailyQuestRepository struct {
	db *DB
}

// NewDailyQuestRepository creates a new daily quest repository
func NewDailyQuestRepository(db *DB) *DailyQuestRepository {
	return &DailyQuestRepository{db: db}
}

// UpsertSeeds writes the day's seeds keyed by (user_id, quest_date, quest_key).
// Rows for the same key are overwritten, so repeated generation never duplicates.
// Either every seed is written or none is.
func (r *DailyQuestRepository) UpsertSeeds(ctx context.Context, userID uuid.UUID, questDate time.Time, seeds []models.Seed) error {
	query := `
		INSERT INTO daily_quests (user_id, quest_date, quest_key, title, description, target, reward_points, meta, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (user_id, quest_date, quest_key) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    target = EXCLUDED.target,
		    reward_points = EXCLUDED.reward_points,
		    meta = EXCLUDED.meta,
		    position = EXCLUDED.position,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	day := questDate.UTC().Format(time.DateOnly)
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, seed := range seeds {
			metaJSON, err := json.Marshal(seed.Meta)
			if err != nil {
				return fmt.Errorf("failed to encode meta for %s: %w", seed.QuestKey, err)
			}
			if _, err := tx.ExecContext(ctx, query,
				userID,
				day,
				seed.QuestKey,
				seed.Title,
				seed.Description,
				seed.Target,
				seed.RewardPoints,
				metaJSON,
				i,
				now,
			); err != nil {
				return fmt.Errorf("failed to upsert quest %s: %w", seed.QuestKey, err)
			}
		}
		return nil
	})
}

// InsertGenerationRun appends an audit row for one pipeline execution.
func (r *DailyQuestRepository) InsertGenerationRun(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	signalsJSON, err := json.Marshal(run.Signals)
	if err != nil {
		return fmt.Errorf("failed to encode signals: %w", err)
	}
	selections := run.Selections
	if selections == nil {
		selections = []string{}
	}

	query := `
		INSERT INTO quest_generation_runs (id, user_id, quest_date, algorithm_version, signals, selections, ai_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.UserID,
		run.QuestDate.UTC().Format(time.DateOnly),
		run.AlgorithmVersion,
		signalsJSON,
		pq.Array(selections),
		run.AIApplied,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation run: %w", err)
	}
	return nil
}

// Evaluate calls the canonical evaluator for the user's quests on questDate and
// returns its rows unchanged.
func (r *DailyQuestRepository) Evaluate(ctx context.Context, userID uuid.UUID, questDate time.Time) ([]models.EvaluatedQuest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT quest_key, payload FROM evaluate_daily_quests($1, $2)`,
		userID, questDate.UTC().Format(time.DateOnly),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate daily quests: %w", err)
	}
	defer closeRows(rows)

	quests := []models.EvaluatedQuest{}
	for rows.Next() {
		var (
			q       models.EvaluatedQuest
			payload []byte
		)
		if err := rows.Scan(&q.QuestKey, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan evaluated quest: %w", err)
		}
		q.Payload = json.RawMessage(payload)
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluated quests: %w", err)
	}
	return quests, nil
}
