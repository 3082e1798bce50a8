// Package knowledge implements the optional insight-atom
// knowledge-graph tier (§4.10 step 4): per-insight embeddings, typed
// edges between related atoms, and a cosine-similarity correlation
// pass. This tier only runs when an embedding provider is configured;
// otherwise the Breakdown Extractor (C10) simply skips it.
package knowledge

import "time"

// Stance and Certainty enumerate the keyword-heuristic classifications
// spec.md §3 attaches to an Insight Atom.
type Stance string

const (
	StanceCritical   Stance = "Critical"
	StanceOptimistic Stance = "Optimistic"
	StanceNeutral    Stance = "Neutral"
)

type Certainty string

const (
	CertaintyLow    Certainty = "Low"
	CertaintyMedium Certainty = "Medium"
	CertaintyHigh   Certainty = "High"
)

// EdgeType enumerates the typed relationships spec.md §3 allows
// between two Insight Atoms.
type EdgeType string

const (
	EdgeCorroboration  EdgeType = "CORROBORATION"
	EdgeContradiction  EdgeType = "CONTRADICTION"
	EdgeExtension      EdgeType = "EXTENSION"
	EdgePredictionCheck EdgeType = "PREDICTION_CHECK"
	EdgeRelated        EdgeType = "RELATED"
	edgeUnrelated      EdgeType = "UNRELATED" // never persisted, per spec.md §4.10 step 4
)

// Atom is a single embedded, classified insight, per spec.md §3's
// Insight Atom schema.
type Atom struct {
	ID           string
	VideoID      string
	SegmentIndex int
	Topic        string
	Entity       string
	Claim        string
	Stance       Stance
	Certainty    Certainty
	Quote        string
	StartTime    time.Duration
	EndTime      time.Duration
	Embedding    []float32
}

// Edge links two atoms with a typed relationship and a confidence
// scalar, per spec.md §3.
type Edge struct {
	FromID     string
	ToID       string
	Type       EdgeType
	Confidence float64
}
