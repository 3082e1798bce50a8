package analytics

import (
	"sort"
	"time"

	"github.com/sawpanic/techsignal/internal/signals"
)

// Emerging holds the per-technology emerging-tech result.
type Emerging struct {
	Technology   string
	Qualifies    bool
	Score        float64
	TotalSignals int
	RecentSignals int
}

// LeaderMentionCounter reports how many leader quotes mention a given
// technology; internal/breakdown implements this once the Breakdown
// Extractor (C10) is wired. Optional — a nil counter is treated as
// zero mentions everywhere, since leader-quote extraction depends on
// an LLM provider that may not be configured (spec.md §4.10).
type LeaderMentionCounter interface {
	LeaderMentionCount(tech string) int
}

// ComputeEmerging evaluates spec.md §4.8's emerging-technology test: a
// tech qualifies when total_signals < 100 and recent_signals/W > 0.5
// (W in days). Score blends velocity, a low-volume bonus, leader
// mentions, and a capped recent-signal count.
//
// The spec's literal formula isn't itself bounded to [0, 100] (a
// velocity spike can exceed 1), so — absent an explicit normalization
// step in spec.md — the raw weighted sum is clamped directly to
// [0, 100], saturating on extreme velocity rather than rescaling it.
func ComputeEmerging(cat signals.Catalog, tech string, window time.Duration, leaders LeaderMentionCounter) Emerging {
	recent := signals.SignalsForTechnology(cat, tech, window)
	allDouble := signals.SignalsForTechnology(cat, tech, 2*window)
	older := subtract(allDouble, recent)

	totalSignals := len(recent) + len(older)
	recentSignals := len(recent)
	windowDays := window.Hours() / 24
	if windowDays <= 0 {
		windowDays = 1
	}

	qualifies := totalSignals < 100 && float64(recentSignals)/windowDays > 0.5

	var velocity float64
	if len(older) == 0 {
		if len(recent) > 0 {
			velocity = 1
		}
	} else {
		velocity = float64(len(recent)-len(older)) / float64(len(older))
	}

	lowVolumeBonus := 0.0
	if totalSignals < 100 {
		lowVolumeBonus = 0.3
	}

	leaderMentions := 0
	if leaders != nil {
		leaderMentions = leaders.LeaderMentionCount(tech)
	}
	normalizedLeaderMentions := minFloat(float64(leaderMentions)/5, 1)

	recentCapped := minFloat(float64(recentSignals), 10)

	raw := 0.4*velocity + lowVolumeBonus + 0.2*normalizedLeaderMentions + 0.1*recentCapped
	score := clamp(raw*100, 0, 100)

	return Emerging{
		Technology:    tech,
		Qualifies:     qualifies,
		Score:         score,
		TotalSignals:  totalSignals,
		RecentSignals: recentSignals,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RankEmerging returns every qualifying technology's Emerging result,
// ordered by score descending then technology name ascending.
func RankEmerging(cat signals.Catalog, window time.Duration, leaders LeaderMentionCounter) []Emerging {
	recent := signals.AllSignals(cat, window)
	techSet := signals.Technologies(recent)

	out := make([]Emerging, 0, len(techSet))
	for tech := range techSet {
		e := ComputeEmerging(cat, tech, window, leaders)
		if e.Qualifies {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Technology < out[j].Technology
	})
	return out
}
