package breakdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sawpanic/techsignal/internal/llm"
)

const insightSystemPrompt = `Extract typed insights from a transcript segment. Respond with JSON only: ` +
	`{"insights":[{"type":"framework|tactical_advice|tradeoff|personal_experience|quantitative_claim|nuanced_opinion",` +
	`"text":"...","depth_score":<0..1>,"speaker":"...","context":"..."}],"summary":"...","keyTakeaways":["..."]}`

// keywordInsightMarkers is the fallback-path heuristic when the LLM
// call fails, per spec.md §4.10 step 2: a sentence containing one of
// these is treated as a low-confidence tactical_advice insight.
var keywordInsightMarkers = []string{
	"should", "recommend", "best practice", "mistake", "lesson", "key takeaway",
}

// extractInsights populates seg.Insights, seg.Summary, and
// seg.KeyTakeaways in place, preferring the LLM call and falling back
// to keyword-based extraction on failure.
func extractInsights(ctx context.Context, provider llm.Provider, seg *Segment) {
	raw, err := provider.Complete(ctx, insightSystemPrompt, seg.TranscriptSnippet, 2048)
	if err == nil {
		if applyLLMInsights(seg, raw) {
			return
		}
		log.Info().Str("segment", seg.Title).Msg("breakdown: insight response invalid, falling back to keywords")
	} else {
		log.Info().Err(err).Str("segment", seg.Title).Msg("breakdown: insight LLM call failed, falling back to keywords")
	}

	applyKeywordInsights(seg)
}

func applyLLMInsights(seg *Segment, raw string) bool {
	clean := llm.ExtractJSON(raw)
	if err := llm.RequireFields(clean, "insights"); err != nil {
		return false
	}

	result := gjson.Get(clean, "insights")
	if !result.IsArray() {
		return false
	}

	var insights []Insight
	for _, i := range result.Array() {
		depth := i.Get("depth_score").Float()
		if depth < minDepthScore {
			continue
		}
		insights = append(insights, Insight{
			Type:       InsightType(i.Get("type").String()),
			Text:       i.Get("text").String(),
			DepthScore: depth,
			Speaker:    i.Get("speaker").String(),
			Timestamp:  seg.StartTime,
			Context:    i.Get("context").String(),
		})
	}

	seg.Insights = insights
	seg.Summary = gjson.Get(clean, "summary").String()
	for _, kt := range gjson.Get(clean, "keyTakeaways").Array() {
		seg.KeyTakeaways = append(seg.KeyTakeaways, kt.String())
	}
	return true
}

// applyKeywordInsights assembles a low-confidence insight per sentence
// containing a marker phrase, and a template summary from counts —
// spec.md §4.10 step 2/3's required fallback when the LLM is
// unavailable or fails.
func applyKeywordInsights(seg *Segment) {
	sentences := splitSentences(seg.TranscriptSnippet)
	var insights []Insight
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, marker := range keywordInsightMarkers {
			if strings.Contains(lower, marker) {
				insights = append(insights, Insight{
					Type:       InsightTacticalAdvice,
					Text:       strings.TrimSpace(sentence),
					DepthScore: minDepthScore,
					Timestamp:  seg.StartTime,
				})
				break
			}
		}
	}
	seg.Insights = insights
	seg.Summary = fmt.Sprintf("%d statements discussed over %s, %d flagged as actionable.",
		len(sentences), seg.EndTime-seg.StartTime, len(insights))
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
