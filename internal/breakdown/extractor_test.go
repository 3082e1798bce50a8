package breakdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/llm"
	"github.com/sawpanic/techsignal/internal/transcript"
)

type fakeProvider struct {
	name      string
	responses []string
	calls     int
	err       error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return resp, nil
}

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		VideoID: "v1",
		Segments: []transcript.Segment{
			{Start: 0, Speaker: "Alice", Text: "We believe transformer models will dominate the next decade."},
			{Start: 10 * time.Minute, Speaker: "Bob", Text: "You should always validate your assumptions early."},
		},
	}
}

func TestExtractor_Process_WithWorkingLLM_UsesLLMSegmentationAndInsights(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		responses: []string{
			`{"segments":[{"title":"Intro","startTime":0,"endTime":600,"topics":["AI"]}]}`,
			`{"insights":[{"type":"nuanced_opinion","text":"transformers will dominate","depth_score":0.8,"speaker":"Alice"}],"summary":"discusses transformers","keyTakeaways":["transformers are rising"]}`,
			`{"summary":"A short discussion of transformer dominance.","intro":"intro","mainTopics":["AI"],"conclusion":"wrap up"}`,
		},
	}
	e := NewExtractor(provider, nil)

	bd, err := e.Process(context.Background(), "v1", time.Now(), sampleTranscript())
	require.NoError(t, err)
	require.Len(t, bd.Segments, 1)
	assert.Equal(t, "Intro", bd.Segments[0].Title)
	require.Len(t, bd.Segments[0].Insights, 1)
	assert.Equal(t, InsightNuancedOpinion, bd.Segments[0].Insights[0].Type)
	assert.Equal(t, "A short discussion of transformer dominance.", bd.Summary)
}

func TestExtractor_Process_LLMUnconfigured_FallsBackToTemplates(t *testing.T) {
	provider := llm.NoneProvider{}
	e := NewExtractor(provider, nil)

	bd, err := e.Process(context.Background(), "v1", time.Now(), sampleTranscript())
	require.NoError(t, err)
	require.NotEmpty(t, bd.Segments)
	assert.NotEmpty(t, bd.Summary)
	// Time-based fallback splits on ~5 minute boundaries; with a span
	// of 10 minutes that is at least two segments.
	assert.GreaterOrEqual(t, len(bd.Segments), 2)
}

func TestExtractInsights_DiscardsLowDepthScore(t *testing.T) {
	provider := &fakeProvider{
		name: "fake",
		responses: []string{
			`{"insights":[{"type":"tradeoff","text":"weak claim","depth_score":0.1},{"type":"framework","text":"strong claim","depth_score":0.9}]}`,
		},
	}
	seg := &Segment{Title: "s1", TranscriptSnippet: "some text"}
	extractInsights(context.Background(), provider, seg)

	require.Len(t, seg.Insights, 1)
	assert.Equal(t, "strong claim", seg.Insights[0].Text)
}

func TestExtractInsights_InvalidJSON_FallsBackToKeywords(t *testing.T) {
	provider := &fakeProvider{name: "fake", responses: []string{"not json at all"}}
	seg := &Segment{
		Title:             "s1",
		TranscriptSnippet: "You should always test your code. This is unrelated filler.",
	}
	extractInsights(context.Background(), provider, seg)

	require.NotEmpty(t, seg.Insights)
	assert.Contains(t, seg.Insights[0].Text, "should")
}

func TestStore_PutReplacesExistingBreakdownForSameVideo(t *testing.T) {
	s := NewStore()
	s.Put(&Breakdown{VideoID: "v1", Summary: "first"})
	s.Put(&Breakdown{VideoID: "v1", Summary: "second"})

	bd, ok := s.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "second", bd.Summary)
}

func TestStore_AllLeaderQuotes_RequiresTechnologyAndPredictionKeyword(t *testing.T) {
	s := NewStore()
	s.Put(&Breakdown{
		VideoID:     "v1",
		PublishedAt: time.Unix(1000, 0),
		Segments: []Segment{
			{TranscriptSnippet: "We believe transformer models will dominate the next decade."},
			{TranscriptSnippet: "This segment just describes lunch."},
		},
	})

	quotes := s.AllLeaderQuotes()
	require.Len(t, quotes, 1)
	assert.Equal(t, "Transformers", quotes[0].Technology)
	assert.Equal(t, "v1", quotes[0].VideoID)
}
