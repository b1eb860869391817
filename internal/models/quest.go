package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Well-known quest keys. Catalog entries with other keys are still valid; they
// simply receive no rule-specific score.
const (
	QuestClearOverdue         = "clear_overdue"
	QuestDueSoon              = "due_soon"
	QuestCompleteHighPriority = "complete_high_priority"
	QuestCompleteNTasks       = "complete_n_tasks"
	QuestFocusFinish          = "focus_finish"
	QuestWorkSprint           = "work_sprint"
	QuestPersonalReset        = "personal_reset"
)

// CatalogEntry is a reusable quest template. Title and description may contain
// {name} placeholders that are filled in per user and day.
type CatalogEntry struct {
	QuestKey         string         `json:"questKey" yaml:"quest_key" validate:"required,max=64,quest_key"`
	Title            string         `json:"title" yaml:"title" validate:"required,max=200"`
	Description      string         `json:"description" yaml:"description" validate:"max=2000"`
	BaseTarget       int            `json:"baseTarget" yaml:"base_target" validate:"gte=0"`
	BaseRewardPoints int            `json:"baseRewardPoints" yaml:"base_reward_points" validate:"gte=0"`
	Meta             map[string]any `json:"meta,omitempty" yaml:"meta"`
	Tags             []string       `json:"tags" yaml:"tags" validate:"dive,required,max=64"`
	Active           bool           `json:"active" yaml:"active"`
	CreatedAt        time.Time      `json:"-" yaml:"-"`
	UpdatedAt        time.Time      `json:"-" yaml:"-"`
}

// SignalCounts is the flat set of counts derived from a user's activity.
type SignalCounts struct {
	OpenTotal          int `json:"openTotal"`
	OverdueOpen        int `json:"overdueOpen"`
	Due24hOpen         int `json:"due24hOpen"`
	HighPriorityOpen   int `json:"highPriorityOpen"`
	CtxWork            int `json:"ctxWork"`
	CtxPersonal        int `json:"ctxPersonal"`
	CompletedToday     int `json:"completedToday"`
	FocusCompletions7d int `json:"focusCompletions7d"`
}

// Signals is the per-request reduction of a user's activity that drives scoring.
// The counts are serialized flat, next to an evidence copy and the why map.
type Signals struct {
	SignalCounts
	Evidence SignalCounts      `json:"evidence"`
	WhyMap   map[string]string `json:"whyMap"`
}

// ActivityItem is a task as seen by the signal aggregator.
type ActivityItem struct {
	ID          uuid.UUID
	Status      string
	Priority    string
	Context     string
	DueAt       *time.Time
	CompletedAt *time.Time
}

// ActivityEvent is an entry from the user's activity event log.
type ActivityEvent struct {
	ID         uuid.UUID
	EventType  string
	OccurredAt time.Time
}

// Seed is a catalog entry resolved for one user and day, ready to persist.
type Seed struct {
	QuestKey     string         `json:"questKey"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Target       int            `json:"target"`
	RewardPoints int            `json:"rewardPoints"`
	Meta         map[string]any `json:"meta"`
}

// GenerationRun is the append-only audit record of one pipeline execution.
type GenerationRun struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	QuestDate        time.Time `json:"quest_date"`
	AlgorithmVersion string    `json:"algorithm_version"`
	Signals          *Signals  `json:"signals"`
	Selections       []string  `json:"selections"`
	AIApplied        bool      `json:"ai_applied"`
	CreatedAt        time.Time `json:"created_at"`
}

// EvaluatedQuest is one row produced by the external evaluation procedure.
// Its payload is passed through to callers unchanged.
type EvaluatedQuest struct {
	QuestKey string
	Payload  json.RawMessage
}

// MarshalJSON emits the evaluator payload verbatim.
func (q EvaluatedQuest) MarshalJSON() ([]byte, error) {
	if len(q.Payload) == 0 {
		return json.Marshal(map[string]string{"questKey": q.QuestKey})
	}
	return q.Payload, nil
}

// DailyQuestsResult is the success body of the daily quests endpoint.
type DailyQuestsResult struct {
	Day     string           `json:"day"`
	Algo    string           `json:"algo"`
	Quests  []EvaluatedQuest `json:"quests"`
	Signals *Signals         `json:"signals"`
}
