package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetryBackoff is the delay before the first retry; each further retry doubles it.
const DefaultRetryBackoff = 30 * time.Second

// QuestGenerator runs the daily quest pipeline as of a given instant.
type QuestGenerator interface {
	GenerateAt(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DailyQuestsResult, error)
}

// JobEnqueuer publishes jobs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// QuestWarmer generates a user's quests ahead of their first request of the day.
type QuestWarmer struct {
	engine       QuestGenerator
	jobQueue     JobEnqueuer
	logger       *zap.Logger
	now          func() time.Time
	retryBackoff time.Duration
}

// NewQuestWarmer creates a warmer. jobQueue is used for delayed retries and may be nil.
func NewQuestWarmer(engine QuestGenerator, jobQueue JobEnqueuer, logger *zap.Logger) *QuestWarmer {
	return &QuestWarmer{
		engine:       engine,
		jobQueue:     jobQueue,
		logger:       logpkg.OrNop(logger),
		now:          time.Now,
		retryBackoff: DefaultRetryBackoff,
	}
}

// ProcessJob handles one delivery and always settles it with Ack or Nack.
func (w *QuestWarmer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.String("quest_date", job.QuestDate),
	)

	if job.Type != queue.JobTypeGenerateDailyQuests {
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	day, err := job.Day()
	if err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return err
	}

	now := w.now()
	if !quests.DayStart(now).Equal(day) {
		// Quests can only be generated for the current day.
		log.Info("quest_warmup_skipped_stale")
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack stale job: %w", ackErr)
		}
		return nil
	}

	if _, err := w.engine.GenerateAt(ctx, job.UserID, now); err != nil {
		return w.handleJobError(ctx, log, msg, job, err)
	}

	log.Info("quest_warmup_completed", zap.Int("retry_count", job.RetryCount))
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError re-enqueues with exponential backoff while retries remain,
// otherwise dead-letters the job.
func (w *QuestWarmer) handleJobError(ctx context.Context, log *zap.Logger, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("error", logpkg.SanitizeError(err)),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	}
	var stageErr *quests.StageError
	if errors.As(err, &stageErr) {
		fields = append(fields, zap.String("error_code", stageErr.Code))
	}

	if job.CanRetry() && w.jobQueue != nil {
		retry := *job
		retry.IncrementRetry()
		notBefore := w.now().Add(w.retryBackoff << job.RetryCount)
		retry.NotBefore = &notBefore

		if enqueueErr := w.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
			log.Error("quest_warmup_retry_enqueue_failed", append(fields, zap.Error(enqueueErr))...)
			if nackErr := msg.Nack(true); nackErr != nil {
				log.Warn("failed_to_nack_job", zap.Error(nackErr))
			}
			return fmt.Errorf("warm-up failed, re-enqueue failed: %w", enqueueErr)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			log.Warn("failed_to_ack_job", zap.Error(ackErr))
		}
		log.Warn("quest_warmup_retry_scheduled", append(fields, zap.Time("not_before", notBefore))...)
		return fmt.Errorf("warm-up failed (will retry): %w", err)
	}

	log.Error("quest_warmup_dead_lettered", fields...)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return fmt.Errorf("warm-up failed (max retries): %w", err)
}

// Run processes deliveries until ctx is cancelled or msgs is closed.
func (w *QuestWarmer) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("message_channel_closed")
				return
			}
			if err := w.ProcessJob(ctx, msg); err != nil {
				w.logger.Warn("job_processing_failed",
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("error", logpkg.SanitizeError(err)),
				)
			}
		}
	}
}
