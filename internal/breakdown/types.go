// Package breakdown implements the Breakdown and Insight Extractor
// (C10): given a transcript and video metadata, it produces a
// topic-segmented, insight-annotated Breakdown per spec.md §3/§4.10.
package breakdown

import (
	"strings"
	"time"
)

// InsightType enumerates the categories an extracted insight can fall
// into, per spec.md §3's Podcast Breakdown schema.
type InsightType string

const (
	InsightFramework        InsightType = "framework"
	InsightTacticalAdvice   InsightType = "tactical_advice"
	InsightTradeoff         InsightType = "tradeoff"
	InsightPersonalExperience InsightType = "personal_experience"
	InsightQuantitativeClaim InsightType = "quantitative_claim"
	InsightNuancedOpinion   InsightType = "nuanced_opinion"
)

// minDepthScore is the acceptance threshold from spec.md §4.10 step 2:
// "discard any with depth_score < 0.4."
const minDepthScore = 0.4

// Insight is one extracted claim, tagged with a type and a depth
// score in [0,1] measuring how substantive (vs. generic) it is.
type Insight struct {
	Type       InsightType
	Text       string
	DepthScore float64
	Speaker    string
	Timestamp  time.Duration
	Context    string
}

// Segment is one topic-bounded span of a video, per spec.md §3.
type Segment struct {
	Title             string
	StartTime         time.Duration
	EndTime           time.Duration
	Summary           string
	Topics            []string
	TranscriptSnippet string
	Insights          []Insight
	KeyTakeaways      []string
}

// OverallStructure is the video-level shape spec.md §3 attaches to a
// Breakdown alongside its segments.
type OverallStructure struct {
	Intro      string
	MainTopics []string
	Conclusion string
}

// Breakdown is the complete per-video output of this package, stored
// under a Canonical Record's `metadata.breakdown` key per spec.md §3.
type Breakdown struct {
	VideoID          string
	PublishedAt      time.Time
	Segments         []Segment
	OverallStructure OverallStructure
	Summary          string
}

// predictionKeywords flags segments worth surfacing as "leader
// quotes" (§4.10 / §4.8): a segment mentioning a technology plus one
// of these words is a candidate.
var predictionKeywords = []string{
	"will", "predict", "expect", "future", "forecast", "believe",
	"bet", "inevitable", "within the next", "years from now",
}

func containsPredictionKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range predictionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
