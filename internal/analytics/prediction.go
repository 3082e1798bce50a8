package analytics

import (
	"sort"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
	"github.com/sawpanic/techsignal/internal/signals"
)

// Prediction holds the ranked "next big technology" result.
type Prediction struct {
	Technology string
	Score      float64 // clamp(0, 100)
}

// ComputePrediction blends momentum (0.4), an early-stage bonus (0.2),
// leader-quote count (0.2), and patent count (0.2), per spec.md §4.8.
//
// Momentum already sits on a 0-100 scale; the other three components
// are normalized onto the same scale before weighting, since the spec
// gives the weights but not an explicit per-component scale — patent
// count and leader-quote count are capped at 10 and rescaled to
// [0, 100], and the early-stage bonus reuses the same low-volume test
// ComputeEmerging applies (total_signals < 100).
func ComputePrediction(cat signals.Catalog, tech string, window time.Duration, leaders LeaderMentionCounter) Prediction {
	momentum := ComputeMomentum(cat, tech, window)

	recent := signals.SignalsForTechnology(cat, tech, window)
	allDouble := signals.SignalsForTechnology(cat, tech, 2*window)
	older := subtract(allDouble, recent)
	totalSignals := len(recent) + len(older)

	earlyStageBonus := 0.0
	if totalSignals < 100 {
		earlyStageBonus = 100
	}

	leaderCount := 0
	if leaders != nil {
		leaderCount = leaders.LeaderMentionCount(tech)
	}
	leaderComponent := minFloat(float64(leaderCount), 10) * 10

	patentCount := 0
	for _, s := range recent {
		if s.Record.Type == record.TypePatent {
			patentCount++
		}
	}
	patentComponent := minFloat(float64(patentCount), 10) * 10

	raw := 0.4*momentum.Score + 0.2*earlyStageBonus + 0.2*leaderComponent + 0.2*patentComponent
	return Prediction{
		Technology: tech,
		Score:      clamp(raw, 0, 100),
	}
}

// RankPredictions returns predictions for every technology observed in
// the window, ordered by score descending then technology name
// ascending, per spec.md §4.8's ordering rule.
func RankPredictions(cat signals.Catalog, window time.Duration, leaders LeaderMentionCounter) []Prediction {
	sigs := signals.AllSignals(cat, window)
	techSet := signals.Technologies(sigs)

	out := make([]Prediction, 0, len(techSet))
	for tech := range techSet {
		out = append(out, ComputePrediction(cat, tech, window, leaders))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Technology < out[j].Technology
	})
	return out
}
