// Package recommend derives suggestions from a rolling window of daily vitals.
package recommend

import (
	"sort"

	"vitalcore/pkg/domain"
)

// Recommendation identifiers.
const (
	RaiseMorningCarbs   = "raise-morning-carbs"
	AddEveningCarbs     = "add-evening-carbs"
	ReduceCardio        = "reduce-cardio"
	MorningSaltAndJuice = "morning-salt-and-juice"
	MagnesiumGlycinate  = "magnesium-glycinate"
	SleepOptimization   = "sleep-optimization"
)

const (
	// DefaultWindow is the number of most recent records considered.
	DefaultWindow = 7
	// MinRecords is the smallest window that produces any recommendation.
	MinRecords = 3

	lowTemperatureF    = 97.5
	stressTemperatureF = 98.0
	highPulse          = 90.0
	shortSleep         = 6
	lowEnergy          = 6.0
)

var descriptions = map[string]string{
	RaiseMorningCarbs:   "Eat a carbohydrate-rich breakfast within an hour of waking.",
	AddEveningCarbs:     "Add a small carbohydrate snack an hour before bed.",
	ReduceCardio:        "Swap intense cardio for walking until temperature and energy recover.",
	MorningSaltAndJuice: "Drink a small glass of juice with a pinch of salt on waking.",
	MagnesiumGlycinate:  "Consider magnesium glycinate in the evening.",
	SleepOptimization:   "Keep a fixed sleep window and switch screens off before bed.",
}

// Describe returns the display text for a recommendation id.
func Describe(id string) (string, bool) {
	d, ok := descriptions[id]
	return d, ok
}

// Engine applies the threshold rules over the most recent Window records.
type Engine struct {
	Window int
}

// New returns an engine with the given window; non-positive windows use DefaultWindow.
func New(window int) Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	return Engine{Window: window}
}

type stats struct {
	n           int
	temperature float64
	pulse       float64
	energy      float64
	shortSleeps int
}

type rule struct {
	applies func(stats) bool
	emit    []string
}

// Rule order fixes output order: the first rule to emit an id decides its position.
var rules = []rule{
	{
		applies: func(s stats) bool { return s.temperature < lowTemperatureF },
		emit:    []string{RaiseMorningCarbs, AddEveningCarbs},
	},
	{
		applies: func(s stats) bool { return s.pulse > highPulse && s.temperature < stressTemperatureF },
		emit:    []string{ReduceCardio, MorningSaltAndJuice},
	},
	{
		applies: func(s stats) bool { return s.shortSleeps*2 > s.n },
		emit:    []string{MagnesiumGlycinate, AddEveningCarbs, SleepOptimization},
	},
	{
		applies: func(s stats) bool { return s.energy < lowEnergy },
		emit:    []string{RaiseMorningCarbs, ReduceCardio},
	},
}

// Recommend returns the de-duplicated ids triggered by records, truncated to maxResults.
// A non-positive maxResults means no limit. Fewer than MinRecords records yield nothing.
func (e Engine) Recommend(records []domain.DailyVitalsRecord, maxResults int) []string {
	window := e.Window
	if window <= 0 {
		window = DefaultWindow
	}
	recent := newestFirst(records)
	if len(recent) > window {
		recent = recent[:window]
	}
	if len(recent) < MinRecords {
		return []string{}
	}
	s := summarize(recent)

	out := []string{}
	seen := make(map[string]struct{})
	for _, r := range rules {
		if !r.applies(s) {
			continue
		}
		for _, id := range r.emit {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

func newestFirst(records []domain.DailyVitalsRecord) []domain.DailyVitalsRecord {
	out := make([]domain.DailyVitalsRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func summarize(records []domain.DailyVitalsRecord) stats {
	s := stats{n: len(records)}
	for _, r := range records {
		s.temperature += r.Temperature
		s.pulse += float64(r.Pulse)
		s.energy += float64(r.Energy)
		if r.Sleep < shortSleep {
			s.shortSleeps++
		}
	}
	n := float64(s.n)
	s.temperature /= n
	s.pulse /= n
	s.energy /= n
	return s
}
