package quests

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func sampleOpenItems() []models.ActivityItem {
	return []models.ActivityItem{
		{ID: uuid.New(), Status: "open", Priority: "high", Context: "work", DueAt: at(-48 * time.Hour)},
		{ID: uuid.New(), Status: "open", Priority: "normal", Context: "Work", DueAt: at(-time.Minute)},
		{ID: uuid.New(), Status: "in_progress", Priority: "URGENT", Context: "personal", DueAt: at(0)},
		{ID: uuid.New(), Status: "open", Priority: "low", Context: "personal", DueAt: at(23 * time.Hour)},
		{ID: uuid.New(), Status: "open", Priority: "normal", Context: "errands", DueAt: at(24 * time.Hour)},
		{ID: uuid.New(), Status: "open", Priority: "", Context: ""},
	}
}

func TestComputeSignals(t *testing.T) {
	t.Parallel()

	completed := []models.ActivityItem{{ID: uuid.New(), Status: "done"}, {ID: uuid.New(), Status: "done"}}
	events := []models.ActivityEvent{{ID: uuid.New(), EventType: FocusEventType, OccurredAt: testNow.Add(-time.Hour)}}

	got := ComputeSignals(sampleOpenItems(), completed, events, testNow)

	want := models.SignalCounts{
		OpenTotal:          6,
		OverdueOpen:        2,
		Due24hOpen:         2,
		HighPriorityOpen:   2,
		CtxWork:            2,
		CtxPersonal:        2,
		CompletedToday:     2,
		FocusCompletions7d: 1,
	}
	if diff := cmp.Diff(want, got.SignalCounts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, got.SignalCounts, got.Evidence)
	assert.Contains(t, got.WhyMap[models.QuestClearOverdue], "2 items are past due")
	assert.Contains(t, got.WhyMap[models.QuestFocusFinish], "1 focus session finished")
}

func TestComputeSignals_OrderIndependent(t *testing.T) {
	t.Parallel()

	items := sampleOpenItems()
	want := ComputeSignals(items, nil, nil, testNow)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.ActivityItem(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := ComputeSignals(shuffled, nil, nil, testNow)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("signals depend on input order (-want +got):\n%s", diff)
		}
	}
}

func TestComputeSignals_Empty(t *testing.T) {
	t.Parallel()

	got := ComputeSignals(nil, nil, nil, testNow)
	assert.Equal(t, models.SignalCounts{}, got.SignalCounts)
	assert.NotContains(t, got.WhyMap, models.QuestClearOverdue)
	assert.Equal(t, "No focus sessions finished in the last 7 days.", got.WhyMap[models.QuestFocusFinish])
	assert.Contains(t, got.WhyMap[models.QuestCompleteNTasks], "0 items")
}

func TestDayStart(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*3600)
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"utc afternoon", testNow, "2026-03-14"},
		{"utc midnight", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), "2026-03-14"},
		{"local morning is previous utc day", time.Date(2026, 3, 14, 7, 0, 0, 0, tokyo), "2026-03-13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DayStart(tt.now)
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
			assert.Equal(t, time.UTC, got.Location())
			assert.Zero(t, got.Hour())
		})
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	t.Parallel()

	src := &fakeActivity{
		open:   sampleOpenItems(),
		events: []models.ActivityEvent{{ID: uuid.New(), EventType: FocusEventType}},
	}
	got, err := NewAggregator(src).Aggregate(context.Background(), uuid.New(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 6, got.OpenTotal)
	assert.Equal(t, 1, got.FocusCompletions7d)

	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, [2]time.Time{dayStart, dayStart.Add(24 * time.Hour)}, src.dayRange)
	assert.Equal(t, [2]time.Time{testNow.Add(-7 * 24 * time.Hour), testNow}, src.eventRange)
}

func TestAggregator_AnyFailureAborts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  *fakeActivity
	}{
		{"open items", &fakeActivity{failOpen: true}},
		{"completed today", &fakeActivity{failCompleted: true}},
		{"focus events", &fakeActivity{failEvents: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewAggregator(tt.src).Aggregate(context.Background(), uuid.New(), testNow)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, errBackend))
		})
	}
}
