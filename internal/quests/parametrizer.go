package quests

import (
	"maps"
	"math"
	"regexp"
	"strconv"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
)

// AlgorithmVersion identifies the scoring, selection and parametrization rules.
const AlgorithmVersion = "dq-v1"

// Seed meta keys.
const (
	MetaAlgorithmVersion = "algorithmVersion"
	MetaWhy              = "why"
	MetaEvidence         = "evidence"
	MetaResolvedParams   = "resolvedParams"
	MetaAIRationale      = "aiRationale"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveTarget computes the concrete target n for entry.
func ResolveTarget(entry models.CatalogEntry, signals *models.Signals) int {
	switch entry.QuestKey {
	case models.QuestCompleteNTasks:
		return clamp(int(math.Ceil(float64(signals.OpenTotal)/10)), 2, 6)
	case models.QuestClearOverdue:
		return clamp(twoIfAtLeastFive(signals.OverdueOpen), 1, 2)
	case models.QuestDueSoon:
		return clamp(twoIfAtLeastFive(signals.Due24hOpen), 1, 2)
	default:
		return entry.BaseTarget
	}
}

func twoIfAtLeastFive(v int) int {
	if v >= 5 {
		return 2
	}
	return 1
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Parametrize turns selected entries into seeds for the given signals.
func Parametrize(entries []models.CatalogEntry, signals *models.Signals) []models.Seed {
	seeds := make([]models.Seed, 0, len(entries))
	for _, entry := range entries {
		seeds = append(seeds, parametrizeOne(entry, signals))
	}
	return seeds
}

func parametrizeOne(entry models.CatalogEntry, signals *models.Signals) models.Seed {
	n := ResolveTarget(entry, signals)
	params := map[string]int{"n": n}

	vars := placeholderValues(signals)
	vars["n"] = strconv.Itoa(n)

	meta := make(map[string]any, len(entry.Meta)+4)
	maps.Copy(meta, entry.Meta)
	meta[MetaAlgorithmVersion] = AlgorithmVersion
	if why, ok := signals.WhyMap[entry.QuestKey]; ok {
		meta[MetaWhy] = why
	} else {
		meta[MetaWhy] = nil
	}
	meta[MetaEvidence] = signals.Evidence
	meta[MetaResolvedParams] = params

	return models.Seed{
		QuestKey:     entry.QuestKey,
		Title:        FillTemplate(entry.Title, vars),
		Description:  FillTemplate(entry.Description, vars),
		Target:       n,
		RewardPoints: entry.BaseRewardPoints,
		Meta:         meta,
	}
}

// placeholderValues exposes the signal counts to templates by their JSON names.
func placeholderValues(s *models.Signals) map[string]string {
	counts := map[string]int{
		"openTotal":          s.OpenTotal,
		"overdueOpen":        s.OverdueOpen,
		"due24hOpen":         s.Due24hOpen,
		"highPriorityOpen":   s.HighPriorityOpen,
		"ctxWork":            s.CtxWork,
		"ctxPersonal":        s.CtxPersonal,
		"completedToday":     s.CompletedToday,
		"focusCompletions7d": s.FocusCompletions7d,
	}
	vars := make(map[string]string, len(counts)+1)
	for k, v := range counts {
		vars[k] = strconv.Itoa(v)
	}
	return vars
}

// FillTemplate replaces {name} placeholders with values from vars. Unknown
// placeholders are left as written.
func FillTemplate(tmpl string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}
