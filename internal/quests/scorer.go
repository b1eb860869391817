package quests

import "github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"

// overloadedOpenTotal is the backlog size above which generic busywork is penalized.
const overloadedOpenTotal = 30

type rule func(s *models.Signals) float64

var rules = map[string]rule{
	models.QuestClearOverdue: func(s *models.Signals) float64 {
		return tiered(s.OverdueOpen, 3, 100, 60, -50)
	},
	models.QuestDueSoon: func(s *models.Signals) float64 {
		return tiered(s.Due24hOpen, 3, 90, 55, -40)
	},
	models.QuestCompleteHighPriority: func(s *models.Signals) float64 {
		return tiered(s.HighPriorityOpen, 2, 80, 50, -30)
	},
	models.QuestCompleteNTasks: func(s *models.Signals) float64 {
		score := 40.0
		if s.OpenTotal > overloadedOpenTotal {
			score -= 25
		}
		return score
	},
	models.QuestFocusFinish: func(s *models.Signals) float64 {
		switch {
		case s.FocusCompletions7d == 0:
			return 55
		case s.FocusCompletions7d < 3:
			return 35
		default:
			return 10
		}
	},
	models.QuestWorkSprint: func(s *models.Signals) float64 {
		return tiered(s.CtxWork, 5, 45, 20, -20)
	},
	models.QuestPersonalReset: func(s *models.Signals) float64 {
		return tiered(s.CtxPersonal, 3, 35, 25, 15)
	},
}

// tiered returns high when v >= highAt, some when v > 0 and none otherwise.
func tiered(v, highAt int, high, some, none float64) float64 {
	switch {
	case v >= highAt:
		return high
	case v > 0:
		return some
	default:
		return none
	}
}

// Score rates how relevant entry is for a user with signals. It is pure:
// no clock, no randomness. Unknown quest keys score only the tie-break term.
func Score(entry models.CatalogEntry, signals *models.Signals) float64 {
	var score float64
	if r, ok := rules[entry.QuestKey]; ok && signals != nil {
		score = r(signals)
	}
	return score + tieBreak(entry.QuestKey)
}

func tieBreak(questKey string) float64 {
	if questKey == "" {
		return 0
	}
	return float64(questKey[0]) / 1000
}
