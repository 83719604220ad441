package achievements

import (
	"github.com/aimd54/questforge/internal/models"
)

// Metric names usable in criteria.
const (
	MetricQuestsCompleted     = "quests_completed"
	MetricTotalXP             = "total_xp"
	MetricLevel               = "level"
	MetricStreakDays          = "streak_days"
	MetricStatStrength        = "stat_strength"
	MetricStatWisdom          = "stat_wisdom"
	MetricStatEndurance       = "stat_endurance"
	MetricStatCharisma        = "stat_charisma"
	MetricEpicQuestsCompleted = "epic_quests_completed"
	MetricCategoriesExplored  = "categories_explored"
)

var knownMetrics = map[string]bool{
	MetricQuestsCompleted:     true,
	MetricTotalXP:             true,
	MetricLevel:               true,
	MetricStreakDays:          true,
	MetricStatStrength:        true,
	MetricStatWisdom:          true,
	MetricStatEndurance:       true,
	MetricStatCharisma:        true,
	MetricEpicQuestsCompleted: true,
	MetricCategoriesExplored:  true,
}

// IsKnownMetric reports whether name is a metric the evaluator understands.
func IsKnownMetric(name string) bool {
	return knownMetrics[name]
}

// Snapshot is a user's progression at one point in time.
type Snapshot struct {
	QuestsCompleted     int
	TotalXP             int
	Level               int
	StreakDays          int
	EpicQuestsCompleted int
	CategoriesExplored  int
	Stats               map[string]int
}

// Metric returns the value of a named metric.
func (s Snapshot) Metric(name string) (float64, bool) {
	switch name {
	case MetricQuestsCompleted:
		return float64(s.QuestsCompleted), true
	case MetricTotalXP:
		return float64(s.TotalXP), true
	case MetricLevel:
		return float64(s.Level), true
	case MetricStreakDays:
		return float64(s.StreakDays), true
	case MetricStatStrength:
		return float64(s.Stats[models.StatStrength]), true
	case MetricStatWisdom:
		return float64(s.Stats[models.StatWisdom]), true
	case MetricStatEndurance:
		return float64(s.Stats[models.StatEndurance]), true
	case MetricStatCharisma:
		return float64(s.Stats[models.StatCharisma]), true
	case MetricEpicQuestsCompleted:
		return float64(s.EpicQuestsCompleted), true
	case MetricCategoriesExplored:
		return float64(s.CategoriesExplored), true
	default:
		return 0, false
	}
}

// Progress tracks one criterion of a locked achievement.
type Progress struct {
	Current    float64 `json:"current"`
	Required   float64 `json:"required"`
	Percentage float64 `json:"percentage"`
}

// Evaluation is the outcome of evaluating a snapshot against the catalog.
type Evaluation struct {
	// Newly holds achievements whose criteria hold and that are not unlocked yet.
	Newly []Achievement
	// Progress is keyed by achievement key, then metric, for visible locked entries.
	Progress map[string]map[string]Progress
}

// Evaluator checks snapshots against a catalog. It holds no mutable state.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an evaluator for the given catalog.
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator checks against.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate returns the achievements the snapshot newly satisfies and the
// progress towards every visible locked achievement.
func (e *Evaluator) Evaluate(s Snapshot, unlocked map[string]bool) Evaluation {
	eval := Evaluation{Progress: make(map[string]map[string]Progress)}

	for _, a := range e.catalog.Achievements {
		if unlocked[a.Key] {
			continue
		}

		if satisfies(s, a.Criteria) {
			eval.Newly = append(eval.Newly, a)
			continue
		}

		if a.IsHidden {
			continue
		}
		eval.Progress[a.Key] = progressFor(s, a.Criteria)
	}

	return eval
}

func satisfies(s Snapshot, criteria []Criterion) bool {
	if len(criteria) == 0 {
		return false
	}
	for _, c := range criteria {
		actual, ok := s.Metric(c.Metric)
		if !ok || !Compare(c.Operator, actual, c.Value) {
			return false
		}
	}
	return true
}

func progressFor(s Snapshot, criteria []Criterion) map[string]Progress {
	out := make(map[string]Progress, len(criteria))
	for _, c := range criteria {
		actual, _ := s.Metric(c.Metric)
		p := Progress{Current: actual, Required: c.Value}
		switch {
		case Compare(c.Operator, actual, c.Value):
			p.Percentage = 100
		case c.Value > 0:
			p.Percentage = min(100, max(0, actual/c.Value*100))
		}
		out[c.Metric] = p
	}
	return out
}

// Compare applies operator to actual and threshold. Unknown operators never hold.
func Compare(operator string, actual, threshold float64) bool {
	switch operator {
	case ">=":
		return actual >= threshold
	case ">":
		return actual > threshold
	case "==":
		return actual == threshold
	case "<=":
		return actual <= threshold
	case "<":
		return actual < threshold
	default:
		return false
	}
}
