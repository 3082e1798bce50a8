package analytics

import (
	"sort"
	"time"

	"github.com/sawpanic/techsignal/internal/signals"
)

// defaultGrowthWindow is spec.md §4.8's default 90-day window for
// industry growth.
const defaultGrowthWindow = 90 * 24 * time.Hour

// growthEpsilon avoids a division by zero when olderAvg is 0, per
// spec.md §4.8's `max(olderAvg, ε)`.
const growthEpsilon = 0.01

// Growth holds the per-industry growth result.
type Growth struct {
	Industry   string
	GrowthRate float64
	Score      float64 // clamp(0, 100)
	Confidence float64
	Monthly    map[string]int // "2024-01" -> signal count
}

// ComputeGrowth buckets an industry's signals by year-month over
// window (spec.md §4.8's default is 90 days) and derives growthRate
// and growthScore from the last 3 months versus earlier months.
func ComputeGrowth(cat signals.Catalog, industry string, window time.Duration) Growth {
	if window <= 0 {
		window = defaultGrowthWindow
	}
	sigs := signals.SignalsForIndustry(cat, industry, window)
	monthly := bucketByMonth(sigs)

	months := sortedMonthKeys(monthly)
	recentAvg, olderAvg := splitRecentOlder(months, monthly, 3)

	growthRate := 100 * (recentAvg - olderAvg) / maxFloat(olderAvg, growthEpsilon)
	score := clamp(50+growthRate, 0, 100)

	nonZeroMonths := 0
	for _, c := range monthly {
		if c > 0 {
			nonZeroMonths++
		}
	}
	confidence := 1.0
	if nonZeroMonths < 2 {
		score = 0
		confidence = 0.3
	}

	return Growth{
		Industry:   industry,
		GrowthRate: growthRate,
		Score:      score,
		Confidence: confidence,
		Monthly:    monthly,
	}
}

func bucketByMonth(sigs []signals.Signal) map[string]int {
	out := make(map[string]int)
	for _, s := range sigs {
		key := s.Record.Published.Format("2006-01")
		out[key]++
	}
	return out
}

func sortedMonthKeys(monthly map[string]int) []string {
	out := make([]string, 0, len(monthly))
	for k := range monthly {
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// splitRecentOlder returns the mean count over the first n months
// (most recent, since months is sorted descending) and the mean over
// the remaining, earlier months.
func splitRecentOlder(months []string, monthly map[string]int, n int) (recentAvg, olderAvg float64) {
	if len(months) == 0 {
		return 0, 0
	}
	if n > len(months) {
		n = len(months)
	}

	var recentSum, olderSum float64
	for i, m := range months {
		if i < n {
			recentSum += float64(monthly[m])
		} else {
			olderSum += float64(monthly[m])
		}
	}
	recentAvg = recentSum / float64(n)
	olderCount := len(months) - n
	if olderCount > 0 {
		olderAvg = olderSum / float64(olderCount)
	}
	return recentAvg, olderAvg
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// RankGrowth computes growth for every industry observed in the window
// and orders by score descending, then industry name ascending.
func RankGrowth(cat signals.Catalog, window time.Duration) []Growth {
	if window <= 0 {
		window = defaultGrowthWindow
	}
	sigs := signals.AllSignals(cat, window)
	industrySet := signals.Industries(sigs)

	out := make([]Growth, 0, len(industrySet))
	for industry := range industrySet {
		out = append(out, ComputeGrowth(cat, industry, window))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Industry < out[j].Industry
	})
	return out
}
