package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/database"
	logpkg "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/quests"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/queue"
	"go.uber.org/zap"
)

const (
	// DefaultActiveWindow is how recently a user must have called the API to be warmed.
	DefaultActiveWindow = 72 * time.Hour
	// DefaultStartDelay is how long after UTC midnight warm-up jobs become runnable.
	DefaultStartDelay = 5 * time.Minute
)

// Scheduler enqueues one warm-up job per recently active user each UTC day.
type Scheduler struct {
	jobQueue     JobEnqueuer
	activityRepo database.UserActivityRepositoryInterface
	logger       *zap.Logger
	now          func() time.Time

	ActiveWindow time.Duration
	StartDelay   time.Duration
}

// NewScheduler creates a scheduler with the default window and delay.
func NewScheduler(jobQueue JobEnqueuer, activityRepo database.UserActivityRepositoryInterface, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobQueue:     jobQueue,
		activityRepo: activityRepo,
		logger:       logpkg.OrNop(logger),
		now:          time.Now,
		ActiveWindow: DefaultActiveWindow,
		StartDelay:   DefaultStartDelay,
	}
}

// ScheduleDay pauses users idle for longer than the window, then enqueues
// jobs for the rest. It returns the number of jobs enqueued.
func (s *Scheduler) ScheduleDay(ctx context.Context, day time.Time) (int, error) {
	day = quests.DayStart(day)
	cutoff := day.Add(-s.ActiveWindow)

	paused, err := s.activityRepo.PauseInactive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to pause inactive users: %w", err)
	}

	userIDs, err := s.activityRepo.ListWarmupEligible(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to get eligible users: %w", err)
	}

	notBefore := day.Add(s.StartDelay)
	enqueued := 0
	for _, userID := range userIDs {
		job := queue.NewDailyQuestsJob(userID, day, notBefore)
		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed_to_schedule_quest_warmup",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	s.logger.Info("scheduled_quest_warmups",
		zap.String("quest_date", day.Format(time.DateOnly)),
		zap.Int("user_count", len(userIDs)),
		zap.Int("enqueued_count", enqueued),
		zap.Int64("paused_count", paused),
	)
	return enqueued, nil
}

// NextRun returns the first UTC midnight strictly after now.
func NextRun(now time.Time) time.Time {
	return quests.DayStart(now).Add(24 * time.Hour)
}

// Run schedules the current day immediately, then each following day at UTC
// midnight, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	day := s.now()
	for {
		if _, err := s.ScheduleDay(ctx, day); err != nil {
			s.logger.Error("quest_warmup_scheduling_failed", zap.Error(err))
		}

		next := NextRun(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		day = next
	}
}
