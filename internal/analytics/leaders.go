package analytics

import "sort"

// LeaderQuote is a single technology-prediction quote extracted from a
// podcast Breakdown segment, per spec.md §4.8 "Leader quotes" and the
// Breakdown Extractor (C10) that produces the underlying Insights.
type LeaderQuote struct {
	Technology string
	VideoID    string
	Quote      string
	Confidence float64
	PublishedAt int64 // unix seconds, for recency tie-break without importing time at call sites that already have it
}

// LeaderQuoteSource supplies every extracted leader quote across the
// catalog's podcast Breakdowns; internal/breakdown implements this
// once the Breakdown Extractor (C10) is wired in. The Analytics Engine
// only ranks and trims — extraction itself (segment mentions tech +
// prediction-keyword) is C10's responsibility per spec.md §4.10.
type LeaderQuoteSource interface {
	AllLeaderQuotes() []LeaderQuote
}

// maxLeaderQuotes is spec.md §4.8's "top 20 returned."
const maxLeaderQuotes = 20

// RankLeaderQuotes sorts quotes by confidence descending, then
// recency descending, and returns at most the top 20, per spec.md
// §4.8.
func RankLeaderQuotes(source LeaderQuoteSource) []LeaderQuote {
	if source == nil {
		return nil
	}
	quotes := append([]LeaderQuote(nil), source.AllLeaderQuotes()...)
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Confidence != quotes[j].Confidence {
			return quotes[i].Confidence > quotes[j].Confidence
		}
		return quotes[i].PublishedAt > quotes[j].PublishedAt
	})
	if len(quotes) > maxLeaderQuotes {
		quotes = quotes[:maxLeaderQuotes]
	}
	return quotes
}

// LeaderMentionCountFromSource adapts a LeaderQuoteSource into the
// LeaderMentionCounter interface ComputeEmerging/ComputePrediction
// need, counting quotes per technology.
type LeaderMentionCountFromSource struct {
	Source LeaderQuoteSource
}

func (l LeaderMentionCountFromSource) LeaderMentionCount(tech string) int {
	if l.Source == nil {
		return 0
	}
	count := 0
	for _, q := range l.Source.AllLeaderQuotes() {
		if q.Technology == tech {
			count++
		}
	}
	return count
}
