package quests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// FocusEventType is the activity event counted as a deep work completion.
	FocusEventType = "focus_session_completed"

	focusWindow = 7 * 24 * time.Hour
	dueSoonSpan = 24 * time.Hour
)

// ActivitySource supplies the raw records signals are reduced from.
type ActivitySource interface {
	ListOpenItems(ctx context.Context, userID uuid.UUID) ([]models.ActivityItem, error)
	ListCompletedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ActivityItem, error)
	ListEventsBetween(ctx context.Context, userID uuid.UUID, eventType string, start, end time.Time) ([]models.ActivityEvent, error)
}

// DayStart returns midnight UTC of the day containing now.
func DayStart(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Aggregator reads a user's activity and reduces it to Signals.
type Aggregator struct {
	source ActivitySource
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source ActivitySource) *Aggregator {
	return &Aggregator{source: source}
}

// Aggregate fetches open items, today's completions and the last week of focus
// events, then reduces them. Any fetch failure fails the whole call.
func (a *Aggregator) Aggregate(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Signals, error) {
	dayStart := DayStart(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	var (
		open      []models.ActivityItem
		completed []models.ActivityItem
		focus     []models.ActivityEvent
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		items, err := a.source.ListOpenItems(egCtx, userID)
		if err != nil {
			return fmt.Errorf("open items: %w", err)
		}
		open = items
		return nil
	})
	eg.Go(func() error {
		items, err := a.source.ListCompletedBetween(egCtx, userID, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("completed today: %w", err)
		}
		completed = items
		return nil
	})
	eg.Go(func() error {
		events, err := a.source.ListEventsBetween(egCtx, userID, FocusEventType, now.Add(-focusWindow), now)
		if err != nil {
			return fmt.Errorf("focus events: %w", err)
		}
		focus = events
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return ComputeSignals(open, completed, focus, now), nil
}

// ComputeSignals reduces raw records to Signals. The result depends only on
// the records and now, never on their order.
func ComputeSignals(open, completedToday []models.ActivityItem, focusEvents []models.ActivityEvent, now time.Time) *models.Signals {
	var c models.SignalCounts
	c.OpenTotal = len(open)
	for _, item := range open {
		if item.DueAt != nil {
			switch {
			case item.DueAt.Before(now):
				c.OverdueOpen++
			case item.DueAt.Before(now.Add(dueSoonSpan)):
				c.Due24hOpen++
			}
		}
		switch strings.ToLower(item.Priority) {
		case "high", "urgent":
			c.HighPriorityOpen++
		}
		switch strings.ToLower(item.Context) {
		case "work":
			c.CtxWork++
		case "personal":
			c.CtxPersonal++
		}
	}
	c.CompletedToday = len(completedToday)
	c.FocusCompletions7d = len(focusEvents)

	return &models.Signals{
		SignalCounts: c,
		Evidence:     c,
		WhyMap:       buildWhyMap(c),
	}
}

func buildWhyMap(c models.SignalCounts) map[string]string {
	why := map[string]string{
		models.QuestCompleteNTasks: fmt.Sprintf("You have %s open; a few completions keep momentum going.", plural(c.OpenTotal, "item")),
	}
	if c.OverdueOpen > 0 {
		why[models.QuestClearOverdue] = fmt.Sprintf("%s past due.", plural(c.OverdueOpen, "item is", "items are"))
	}
	if c.Due24hOpen > 0 {
		why[models.QuestDueSoon] = fmt.Sprintf("%s due in the next 24 hours.", plural(c.Due24hOpen, "item is", "items are"))
	}
	if c.HighPriorityOpen > 0 {
		why[models.QuestCompleteHighPriority] = fmt.Sprintf("%s marked high priority.", plural(c.HighPriorityOpen, "open item is", "open items are"))
	}
	if c.FocusCompletions7d == 0 {
		why[models.QuestFocusFinish] = "No focus sessions finished in the last 7 days."
	} else {
		why[models.QuestFocusFinish] = fmt.Sprintf("%s finished in the last 7 days.", plural(c.FocusCompletions7d, "focus session"))
	}
	if c.CtxWork > 0 {
		why[models.QuestWorkSprint] = fmt.Sprintf("%s open in your work context.", plural(c.CtxWork, "item is", "items are"))
	}
	if c.CtxPersonal > 0 {
		why[models.QuestPersonalReset] = fmt.Sprintf("%s open in your personal context.", plural(c.CtxPersonal, "item is", "items are"))
	}
	return why
}

// plural formats n with a singular or plural noun phrase. With one form given,
// the plural adds "s".
func plural(n int, forms ...string) string {
	singular := forms[0]
	pl := singular + "s"
	if len(forms) > 1 {
		pl = forms[1]
	}
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pl)
}
