package breakdown

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sawpanic/techsignal/internal/llm"
	"github.com/sawpanic/techsignal/internal/transcript"
)

// maxTranscriptChars is spec.md §4.10 step 1's "truncated at ≈50 000
// characters" ceiling on the segmentation prompt's transcript input.
const maxTranscriptChars = 50_000

// timeBasedSegmentLength is the ~5-minute boundary spec.md §4.10 step
// 1 falls back to when the LLM call fails or returns invalid JSON.
const timeBasedSegmentLength = 5 * time.Minute

const segmentationSystemPrompt = `You segment a video transcript into topic-bounded sections. ` +
	`Respond with JSON only: {"segments":[{"title":"...","startTime":<seconds>,"endTime":<seconds>,"topics":["..."]}]}`

// segment produces topic-bounded segments for a transcript, preferring
// an LLM call and falling back to fixed-length time windows.
func segment(ctx context.Context, provider llm.Provider, t *transcript.Transcript) []Segment {
	truncated := truncateTranscript(transcript.Format(t))

	raw, err := provider.Complete(ctx, segmentationSystemPrompt, truncated, 4096)
	if err == nil {
		if segs, parseErr := parseSegmentationResponse(raw, t); parseErr == nil {
			return segs
		} else {
			log.Info().Err(parseErr).Msg("breakdown: segmentation response invalid, falling back to time-based")
		}
	} else {
		log.Info().Err(err).Msg("breakdown: segmentation LLM call failed, falling back to time-based")
	}

	return timeBasedSegments(t)
}

// truncateTranscript enforces spec.md's ~50k character ceiling. A
// tiktoken-go encoder additionally logs the token count so operators
// can see how much context headroom a given provider call actually
// used — encoding failures (unknown model) are non-fatal, since the
// character ceiling alone already bounds the prompt.
func truncateTranscript(text string) string {
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		tokens := enc.Encode(text, nil, nil)
		log.Debug().Int("tokens", len(tokens)).Msg("breakdown: transcript token count")
	}
	if len(text) <= maxTranscriptChars {
		return text
	}
	return text[:maxTranscriptChars]
}

func parseSegmentationResponse(raw string, t *transcript.Transcript) ([]Segment, error) {
	clean := llm.ExtractJSON(raw)
	if err := llm.RequireFields(clean, "segments"); err != nil {
		return nil, err
	}

	result := gjson.Get(clean, "segments")
	if !result.IsArray() || len(result.Array()) == 0 {
		return nil, fmt.Errorf("breakdown: segmentation: empty segments array")
	}

	var segments []Segment
	for _, s := range result.Array() {
		start := time.Duration(s.Get("startTime").Float() * float64(time.Second))
		end := time.Duration(s.Get("endTime").Float() * float64(time.Second))
		if end <= start {
			continue
		}
		var topics []string
		for _, topic := range s.Get("topics").Array() {
			topics = append(topics, topic.String())
		}
		segments = append(segments, Segment{
			Title:             s.Get("title").String(),
			StartTime:         start,
			EndTime:           end,
			Topics:            topics,
			TranscriptSnippet: snippetFor(t, start, end),
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("breakdown: segmentation: no valid segments")
	}
	return segments, nil
}

func timeBasedSegments(t *transcript.Transcript) []Segment {
	if len(t.Segments) == 0 {
		return nil
	}
	end := t.Segments[len(t.Segments)-1].Start
	var segments []Segment
	for start := time.Duration(0); start < end; start += timeBasedSegmentLength {
		windowEnd := start + timeBasedSegmentLength
		if windowEnd > end {
			windowEnd = end
		}
		segments = append(segments, Segment{
			Title:             fmt.Sprintf("Segment starting at %s", formatOffset(start)),
			StartTime:         start,
			EndTime:           windowEnd,
			TranscriptSnippet: snippetFor(t, start, windowEnd),
		})
	}
	return segments
}

func snippetFor(t *transcript.Transcript, start, end time.Duration) string {
	out := ""
	for _, seg := range t.Segments {
		if seg.Start < start || seg.Start > end {
			continue
		}
		out += seg.Text + " "
	}
	return out
}

func formatOffset(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
