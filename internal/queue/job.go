package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeGenerateDailyQuests warms a user's quests for one UTC day.
	JobTypeGenerateDailyQuests JobType = "generate_daily_quests"
)

// DefaultMaxRetries is the number of redeliveries before a job goes to the DLQ.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	QuestDate  string         `json:"quest_date,omitempty"` // YYYY-MM-DD, UTC
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewDailyQuestsJob creates a warm-up job for userID on the UTC day containing day.
// The job becomes runnable at notBefore and expires at the end of that day.
func NewDailyQuestsJob(userID uuid.UUID, day, notBefore time.Time) *Job {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	job := NewJob(JobTypeGenerateDailyQuests, userID)
	job.QuestDate = start.Format(time.DateOnly)
	job.NotBefore = &notBefore
	job.NotAfter = &end
	return job
}

// Day returns the job's quest date as UTC midnight.
func (j *Job) Day() (time.Time, error) {
	if j.QuestDate == "" {
		return time.Time{}, fmt.Errorf("job %s has no quest date", j.ID)
	}
	day, err := time.ParseInLocation(time.DateOnly, j.QuestDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("job %s has invalid quest date %q: %w", j.ID, j.QuestDate, err)
	}
	return day, nil
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
