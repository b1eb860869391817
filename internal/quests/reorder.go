package quests

import (
	"maps"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
)

// ApplyReorder returns seeds in the given order, followed by any seeds the
// order omits. An order naming an unknown or repeated key is ignored and the
// input order is returned with ok false. A non-empty rationale is attached to
// the first seed.
func ApplyReorder(seeds []models.Seed, order []string, rationale string) ([]models.Seed, bool) {
	byKey := make(map[string]int, len(seeds))
	for i, s := range seeds {
		byKey[s.QuestKey] = i
	}

	used := make([]bool, len(seeds))
	out := make([]models.Seed, 0, len(seeds))
	for _, key := range order {
		i, ok := byKey[key]
		if !ok || used[i] {
			return seeds, false
		}
		used[i] = true
		out = append(out, seeds[i])
	}
	for i, s := range seeds {
		if !used[i] {
			out = append(out, s)
		}
	}

	if rationale != "" && len(out) > 0 {
		meta := make(map[string]any, len(out[0].Meta)+1)
		maps.Copy(meta, out[0].Meta)
		meta[MetaAIRationale] = rationale
		out[0].Meta = meta
	}
	return out, true
}
