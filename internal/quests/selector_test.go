package quests

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredEntry(key string, score float64, tags ...string) ScoredEntry {
	return ScoredEntry{Entry: models.CatalogEntry{QuestKey: key, Tags: tags, Active: true}, Score: score}
}

func TestSelector_Select(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold int
		scored    []ScoredEntry
		want      []string
	}{
		{
			name: "highest scores when tags differ",
			scored: []ScoredEntry{
				scoredEntry("c", 1, "z"),
				scoredEntry("a", 3, "x"),
				scoredEntry("d", 0, "w"),
				scoredEntry("b", 2, "y"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "ties keep catalog order",
			scored: []ScoredEntry{
				scoredEntry("first", 5, "p"),
				scoredEntry("second", 5, "q"),
				scoredEntry("third", 5, "r"),
				scoredEntry("fourth", 5, "s"),
			},
			want: []string{"first", "second", "third"},
		},
		{
			name: "redundant pick skipped",
			scored: []ScoredEntry{
				scoredEntry("a", 10, "x", "y"),
				scoredEntry("b", 9, "x", "y", "q"),
				scoredEntry("c", 8, "z"),
				scoredEntry("d", 7, "w"),
			},
			want: []string{"a", "c", "d"},
		},
		{
			name: "single shared tag allowed",
			scored: []ScoredEntry{
				scoredEntry("a", 10, "x", "y"),
				scoredEntry("b", 9, "x", "q"),
				scoredEntry("c", 8, "z"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "overlap counted against union of accepted tags",
			scored: []ScoredEntry{
				scoredEntry("a", 10, "x"),
				scoredEntry("b", 9, "y"),
				scoredEntry("c", 8, "x", "y"),
				scoredEntry("d", 7, "z"),
			},
			want: []string{"a", "b", "d"},
		},
		{
			name: "duplicate tags on one entry count once",
			scored: []ScoredEntry{
				scoredEntry("a", 10, "x"),
				scoredEntry("b", 9, "x", "x"),
				scoredEntry("c", 8, "z"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "force fill when diversity is too strict",
			scored: []ScoredEntry{
				scoredEntry("a", 4, "x", "y"),
				scoredEntry("b", 3, "x", "y"),
				scoredEntry("c", 2, "x", "y"),
				scoredEntry("d", 1, "x", "y"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "force fill wraps to skipped entries",
			scored: []ScoredEntry{
				scoredEntry("a", 3, "x", "y"),
				scoredEntry("b", 2, "x", "y"),
				scoredEntry("c", 1, "z"),
			},
			want: []string{"a", "c", "b"},
		},
		{
			name:      "higher threshold tolerates more overlap",
			threshold: 3,
			scored: []ScoredEntry{
				scoredEntry("a", 10, "x", "y"),
				scoredEntry("b", 9, "x", "y"),
				scoredEntry("c", 8, "x", "y"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name:   "small catalog returns what exists",
			scored: []ScoredEntry{scoredEntry("a", 1), scoredEntry("b", 2)},
			want:   []string{"b", "a"},
		},
		{
			name: "empty catalog",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewSelector(3, tt.threshold).Select(tt.scored)
			assert.Equal(t, tt.want, entryKeys(got))
		})
	}
}

func TestSelector_AlwaysFillsQuota(t *testing.T) {
	t.Parallel()

	tagPool := []string{"x", "y", "z"}
	rng := rand.New(rand.NewSource(42))
	sel := NewSelector(3, 2)

	for round := 0; round < 200; round++ {
		n := 3 + rng.Intn(6)
		scored := make([]ScoredEntry, n)
		for i := range scored {
			var tags []string
			for _, tag := range tagPool {
				if rng.Intn(2) == 0 {
					tags = append(tags, tag)
				}
			}
			scored[i] = scoredEntry(fmt.Sprintf("q%d", i), float64(rng.Intn(5)), tags...)
		}

		got := sel.Select(scored)
		require.Len(t, got, 3, "round %d", round)

		seen := map[string]bool{}
		for _, e := range got {
			require.False(t, seen[e.QuestKey], "duplicate selection %s in round %d", e.QuestKey, round)
			seen[e.QuestKey] = true
		}
	}
}

func TestSelector_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	scored := []ScoredEntry{scoredEntry("a", 1), scoredEntry("b", 2), scoredEntry("c", 3)}
	NewSelector(3, 2).Select(scored)
	assert.Equal(t, "a", scored[0].Entry.QuestKey)
}

func TestNewSelector_Defaults(t *testing.T) {
	t.Parallel()

	s := NewSelector(0, -1)
	assert.Equal(t, 3, s.Quota)
	assert.Equal(t, 2, s.DiversityThreshold)
}
