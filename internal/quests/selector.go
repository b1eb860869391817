package quests

import (
	"sort"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
)

// ScoredEntry pairs a catalog entry with its score.
type ScoredEntry struct {
	Entry models.CatalogEntry
	Score float64
}

// Selector picks the day's quests from scored catalog entries.
type Selector struct {
	// Quota is how many entries to select.
	Quota int
	// DiversityThreshold rejects a later pick sharing at least this many tags
	// with the tags already accepted.
	DiversityThreshold int
}

// NewSelector creates a selector, falling back to 3 picks and a threshold of 2
// for non-positive arguments.
func NewSelector(quota, diversityThreshold int) *Selector {
	if quota <= 0 {
		quota = 3
	}
	if diversityThreshold <= 0 {
		diversityThreshold = 2
	}
	return &Selector{Quota: quota, DiversityThreshold: diversityThreshold}
}

// ScoreAll scores every entry, keeping catalog order.
func ScoreAll(entries []models.CatalogEntry, signals *models.Signals) []ScoredEntry {
	scored := make([]ScoredEntry, len(entries))
	for i, e := range entries {
		scored[i] = ScoredEntry{Entry: e, Score: Score(e, signals)}
	}
	return scored
}

// Select returns up to Quota entries, highest score first. Ties keep catalog
// order. When the diversity rule leaves the result short, the remaining slots
// are filled from the sorted list ignoring tags.
func (s *Selector) Select(scored []ScoredEntry) []models.CatalogEntry {
	sorted := make([]ScoredEntry, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	result := make([]models.CatalogEntry, 0, s.Quota)
	taken := make([]bool, len(sorted))
	accepted := make(map[string]struct{})

	for i, se := range sorted {
		if len(result) == s.Quota {
			break
		}
		if len(result) > 0 && sharedTags(se.Entry.Tags, accepted) >= s.DiversityThreshold {
			continue
		}
		result = append(result, se.Entry)
		taken[i] = true
		for _, tag := range se.Entry.Tags {
			accepted[tag] = struct{}{}
		}
	}

	// Force-fill starts at the current result length and wraps, so entries
	// skipped before that index are still reachable.
	start := len(result)
	for k := 0; k < len(sorted) && len(result) < s.Quota; k++ {
		i := (start + k) % len(sorted)
		if taken[i] {
			continue
		}
		result = append(result, sorted[i].Entry)
		taken[i] = true
	}

	return result
}

func sharedTags(tags []string, accepted map[string]struct{}) int {
	seen := make(map[string]struct{}, len(tags))
	n := 0
	for _, tag := range tags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := accepted[tag]; ok {
			n++
		}
	}
	return n
}
