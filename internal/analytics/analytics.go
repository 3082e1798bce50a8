// Package analytics implements the Analytics Engine (C8): technology
// momentum, industry growth, emerging-technology detection, prediction
// scoring, and leader-quote extraction over the Signal Aggregator's
// output, per spec.md §4.8. Grounded on the teacher's
// internal/score/composite.UnifiedScorer texture — a struct-based
// scorer producing a result struct with raw components plus a final
// clamped score — generalized from a single-symbol crypto composite
// score to a per-technology/per-industry one.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
	"github.com/sawpanic/techsignal/internal/signals"
)

// sourceWeights are the per-record-type weights spec.md §4.8 assigns
// to the momentum formula.
var sourceWeights = map[record.Type]float64{
	record.TypePaper:   0.30,
	record.TypePatent:  0.25,
	record.TypeNews:    0.20,
	record.TypePodcast: 0.15,
	record.TypeGithub:  0.10,
}

func sumWeights() float64 {
	var total float64
	for _, w := range sourceWeights {
		total += w
	}
	return total
}

// Momentum holds the per-technology momentum result.
type Momentum struct {
	Technology string
	Score      float64 // clamp(0, 100)
	Confidence float64 // [0, 1]
	SignalCount int
}

// Momentum computes momentum(T) and confidence(T) over window W for a
// single technology, per spec.md §4.8.
func ComputeMomentum(cat signals.Catalog, tech string, window time.Duration) Momentum {
	recent := signals.SignalsForTechnology(cat, tech, window)
	allDouble := signals.SignalsForTechnology(cat, tech, 2*window)
	older := subtract(allDouble, recent)

	recentBySource := countBySource(recent)
	olderBySource := countBySource(older)

	var momentumSum float64
	for src, w := range sourceWeights {
		recentCount := float64(recentBySource[src])
		olderCount := float64(olderBySource[src])

		var velocity float64
		if olderCount == 0 {
			if recentCount > 0 {
				velocity = 1
			}
		} else {
			velocity = (recentCount - olderCount) / olderCount
		}

		momentumSum += velocity * (1 + math.Max(velocity, 0)) * w
	}

	score := clamp(100*momentumSum/sumWeights(), 0, 100)
	union := unionCount(recent, older)
	confidence := math.Min(1, float64(union)/50)

	return Momentum{
		Technology:  tech,
		Score:       score,
		Confidence:  confidence,
		SignalCount: union,
	}
}

// subtract returns signals in a that aren't in b, keyed by the
// underlying record's ID, used to derive "the prior W-day window" from
// a 2W-wide pull without double-querying the catalog per side.
func subtract(a, b []signals.Signal) []signals.Signal {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s.Record.ID] = struct{}{}
	}
	out := make([]signals.Signal, 0, len(a))
	for _, s := range a {
		if _, ok := exclude[s.Record.ID]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

func countBySource(sigs []signals.Signal) map[record.Type]int {
	out := make(map[record.Type]int)
	for _, s := range sigs {
		out[s.Record.Type]++
	}
	return out
}

func unionCount(a, b []signals.Signal) int {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s.Record.ID] = struct{}{}
	}
	for _, s := range b {
		seen[s.Record.ID] = struct{}{}
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RankMomentum computes momentum for every technology observed across
// the catalog's recent signals and orders by spec.md §4.8's tie-break
// rule: score descending, then signal count descending, then
// technology name ascending.
func RankMomentum(cat signals.Catalog, window time.Duration) []Momentum {
	recent := signals.AllSignals(cat, window)
	techSet := signals.Technologies(recent)

	out := make([]Momentum, 0, len(techSet))
	for tech := range techSet {
		out = append(out, ComputeMomentum(cat, tech, window))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SignalCount != out[j].SignalCount {
			return out[i].SignalCount > out[j].SignalCount
		}
		return out[i].Technology < out[j].Technology
	})
	return out
}
