// Package signals implements the Signal Aggregator (C7): a view over
// the Canonical Record catalog adding per-record sentiment and
// confidence, filterable by technology and time window, per spec.md
// §4.7.
package signals

import (
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

// Signal is a view over a Canonical Record adding the fields spec.md
// §4.7 names: technologies, industries, sentiment, confidence.
type Signal struct {
	Record       *record.Record
	Technologies []string
	Industries   []string
	Sentiment    float64
	Confidence   float64
}

// Catalog is the read surface the Signal Aggregator needs from the
// Catalog Store — narrowed to Snapshot so this package doesn't import
// the full catalog.Store type and its persistence concerns.
type Catalog interface {
	Snapshot() []*record.Record
}

// confidenceForFidelity reflects how precise the upstream published
// date was: a day-precision date supports a tighter time-window filter
// than a year-only one, so signals built from imprecise dates carry
// lower per-record confidence. This is distinct from the aggregate
// confidence(T) formula in §4.8, which scores signal volume instead.
func confidenceForFidelity(f record.DateFidelity) float64 {
	switch f {
	case record.FidelityDay:
		return 1.0
	case record.FidelityMonth:
		return 0.7
	case record.FidelityYear:
		return 0.4
	default:
		return 0.5
	}
}

// toSignal builds a Signal view from a Canonical Record. Sentiment is
// computed from title+summary for news records and 0 for every other
// type, per spec.md §4.7.
func toSignal(r *record.Record) Signal {
	sentiment := 0.0
	if r.Type == record.TypeNews {
		sentiment = Sentiment(r.Title + " " + r.Summary)
	}
	return Signal{
		Record:       r,
		Technologies: r.TechnologyList(),
		Industries:   r.IndustryList(),
		Sentiment:    sentiment,
		Confidence:   confidenceForFidelity(r.DateFidelity),
	}
}

// AllSignals returns every Canonical Record published within the last
// W days as a Signal, per spec.md §4.7 `allSignals(W)`.
func AllSignals(cat Catalog, window time.Duration) []Signal {
	cutoff := time.Now().Add(-window)
	var out []Signal
	for _, r := range cat.Snapshot() {
		if r.Published.Before(cutoff) {
			continue
		}
		out = append(out, toSignal(r))
	}
	return out
}

// SignalsForTechnology filters AllSignals(W) to records whose
// Technologies set contains tech, per spec.md §4.7
// `signalsForTechnology(tech, W)`.
func SignalsForTechnology(cat Catalog, tech string, window time.Duration) []Signal {
	all := AllSignals(cat, window)
	out := make([]Signal, 0, len(all))
	for _, s := range all {
		if containsFold(s.Technologies, tech) {
			out = append(out, s)
		}
	}
	return out
}

// SignalsForIndustry filters AllSignals(W) to records whose Industries
// set contains industry, mirroring SignalsForTechnology for the
// industry-growth computation in §4.8.
func SignalsForIndustry(cat Catalog, industry string, window time.Duration) []Signal {
	all := AllSignals(cat, window)
	out := make([]Signal, 0, len(all))
	for _, s := range all {
		if containsFold(s.Industries, industry) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(set []string, target string) bool {
	for _, s := range set {
		if equalFold(s, target) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Technologies returns the union of technology tags across a signal
// set, per spec.md §4.7 `technologies(signals) → set`.
func Technologies(signals []Signal) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range signals {
		for _, t := range s.Technologies {
			out[t] = struct{}{}
		}
	}
	return out
}

// Industries returns the union of industry tags across a signal set,
// per spec.md §4.7 `industries(signals) → set`.
func Industries(signals []Signal) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range signals {
		for _, i := range s.Industries {
			out[i] = struct{}{}
		}
	}
	return out
}
