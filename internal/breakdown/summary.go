package breakdown

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sawpanic/techsignal/internal/llm"
)

const videoSummarySystemPrompt = `Summarize a video's overall structure in two to three sentences, and list its ` +
	`main topics. Respond with JSON only: {"summary":"...","intro":"...","mainTopics":["..."],"conclusion":"..."}`

// summarizeVideo produces the Breakdown-level Summary and
// OverallStructure, per spec.md §4.10 step 3. Falls back to a
// template assembled from segment counts when the LLM call fails.
func summarizeVideo(ctx context.Context, provider llm.Provider, segments []Segment) (string, OverallStructure) {
	combined := ""
	for _, s := range segments {
		combined += s.Title + ": " + s.Summary + "\n"
	}

	raw, err := provider.Complete(ctx, videoSummarySystemPrompt, combined, 1024)
	if err == nil {
		if summary, structure, ok := parseVideoSummary(raw); ok {
			return summary, structure
		}
	} else {
		log.Info().Err(err).Msg("breakdown: video summary LLM call failed, using template fallback")
	}

	return templateSummary(segments)
}

func parseVideoSummary(raw string) (string, OverallStructure, bool) {
	clean := llm.ExtractJSON(raw)
	if err := llm.RequireFields(clean, "summary"); err != nil {
		return "", OverallStructure{}, false
	}

	var topics []string
	for _, t := range gjson.Get(clean, "mainTopics").Array() {
		topics = append(topics, t.String())
	}

	return gjson.Get(clean, "summary").String(), OverallStructure{
		Intro:      gjson.Get(clean, "intro").String(),
		MainTopics: topics,
		Conclusion: gjson.Get(clean, "conclusion").String(),
	}, true
}

func templateSummary(segments []Segment) (string, OverallStructure) {
	totalInsights := 0
	var topics []string
	seen := make(map[string]struct{})
	for _, s := range segments {
		totalInsights += len(s.Insights)
		for _, topic := range s.Topics {
			if _, ok := seen[topic]; !ok {
				seen[topic] = struct{}{}
				topics = append(topics, topic)
			}
		}
	}

	summary := fmt.Sprintf("%d segments covering %d topics, yielding %d insights.",
		len(segments), len(topics), totalInsights)

	structure := OverallStructure{MainTopics: topics}
	if len(segments) > 0 {
		structure.Intro = segments[0].Title
		structure.Conclusion = segments[len(segments)-1].Title
	}
	return summary, structure
}
