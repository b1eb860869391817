package quests

import (
	"testing"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entry  models.CatalogEntry
		counts models.SignalCounts
		want   int
	}{
		{"n tasks floor", models.CatalogEntry{QuestKey: models.QuestCompleteNTasks}, models.SignalCounts{OpenTotal: 0}, 2},
		{"n tasks rounds up", models.CatalogEntry{QuestKey: models.QuestCompleteNTasks}, models.SignalCounts{OpenTotal: 21}, 3},
		{"n tasks mid", models.CatalogEntry{QuestKey: models.QuestCompleteNTasks}, models.SignalCounts{OpenTotal: 45}, 5},
		{"n tasks ceiling", models.CatalogEntry{QuestKey: models.QuestCompleteNTasks}, models.SignalCounts{OpenTotal: 400}, 6},
		{"overdue few", models.CatalogEntry{QuestKey: models.QuestClearOverdue}, models.SignalCounts{OverdueOpen: 4}, 1},
		{"overdue many", models.CatalogEntry{QuestKey: models.QuestClearOverdue}, models.SignalCounts{OverdueOpen: 5}, 2},
		{"overdue none", models.CatalogEntry{QuestKey: models.QuestClearOverdue}, models.SignalCounts{}, 1},
		{"due soon many", models.CatalogEntry{QuestKey: models.QuestDueSoon}, models.SignalCounts{Due24hOpen: 50}, 2},
		{"due soon few", models.CatalogEntry{QuestKey: models.QuestDueSoon}, models.SignalCounts{Due24hOpen: 1}, 1},
		{"other keeps base", models.CatalogEntry{QuestKey: models.QuestWorkSprint, BaseTarget: 4}, models.SignalCounts{CtxWork: 40}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveTarget(tt.entry, signalsOf(tt.counts)))
		})
	}
}

func TestResolveTarget_Bounds(t *testing.T) {
	t.Parallel()

	for v := 0; v <= 200; v++ {
		s := signalsOf(models.SignalCounts{OpenTotal: v, OverdueOpen: v, Due24hOpen: v})
		n := ResolveTarget(models.CatalogEntry{QuestKey: models.QuestCompleteNTasks}, s)
		require.True(t, n >= 2 && n <= 6, "complete_n_tasks n=%d for openTotal=%d", n, v)
		for _, key := range []string{models.QuestClearOverdue, models.QuestDueSoon} {
			n := ResolveTarget(models.CatalogEntry{QuestKey: key}, s)
			require.True(t, n >= 1 && n <= 2, "%s n=%d for count=%d", key, n, v)
		}
	}
}

func TestFillTemplate(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"n": "3", "overdueOpen": "7"}
	tests := []struct {
		tmpl string
		want string
	}{
		{"Complete {n} tasks", "Complete 3 tasks"},
		{"{n} of {overdueOpen}", "3 of 7"},
		{"Keep {unknown} as is", "Keep {unknown} as is"},
		{"Unclosed {n", "Unclosed {n"},
		{"Not a name {1x} or {}", "Not a name {1x} or {}"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FillTemplate(tt.tmpl, vars))
		})
	}
}

func TestParametrize(t *testing.T) {
	t.Parallel()

	counts := models.SignalCounts{OpenTotal: 45, OverdueOpen: 6, CtxWork: 10, CtxPersonal: 2}
	signals := signalsOf(counts)

	catalog := testCatalog()
	seeds := Parametrize([]models.CatalogEntry{catalog[0], catalog[4], catalog[1]}, signals)
	require.Len(t, seeds, 3)

	overdue := seeds[0]
	assert.Equal(t, models.QuestClearOverdue, overdue.QuestKey)
	assert.Equal(t, 2, overdue.Target)
	assert.Equal(t, "Clear 2 overdue item(s)", overdue.Title)
	assert.Equal(t, "You have 6 overdue.", overdue.Description)
	assert.Equal(t, 30, overdue.RewardPoints)
	assert.Equal(t, AlgorithmVersion, overdue.Meta[MetaAlgorithmVersion])
	assert.Equal(t, signals.WhyMap[models.QuestClearOverdue], overdue.Meta[MetaWhy])
	assert.Equal(t, counts, overdue.Meta[MetaEvidence])
	assert.Equal(t, map[string]int{"n": 2}, overdue.Meta[MetaResolvedParams])

	focus := seeds[1]
	assert.Equal(t, 1, focus.Target)
	assert.Equal(t, 25, focus.Meta["minutes"], "catalog meta is merged")

	dueSoon := seeds[2]
	why, present := dueSoon.Meta[MetaWhy]
	assert.True(t, present, "why is always set")
	assert.Nil(t, why, "no due-soon items means no explanation")
}

func TestParametrize_DoesNotShareCatalogMeta(t *testing.T) {
	t.Parallel()

	entry := testCatalog()[4]
	seeds := Parametrize([]models.CatalogEntry{entry}, signalsOf(models.SignalCounts{}))
	seeds[0].Meta["minutes"] = 50
	assert.Equal(t, 25, entry.Meta["minutes"])
	_, leaked := entry.Meta[MetaAlgorithmVersion]
	assert.False(t, leaked)
}
