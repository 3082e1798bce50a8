package breakdown

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/techsignal/internal/llm"
	"github.com/sawpanic/techsignal/internal/transcript"
)

// insightParallelism bounds concurrent per-segment LLM calls, mirroring
// the teacher-pack's fixed-size semaphore around AI calls (catchup-
// feed-backend's summarizerParallelism = 5).
const insightParallelism = 5

// KnowledgeIngestor is the optional knowledge-graph tier (§4.10 step
// 4): computing embeddings, deriving stance/certainty, and persisting
// insight atoms. Left unconfigured, the Extractor simply skips it —
// "LLM and embedding calls are cooperative... must degrade to
// templates, not fail" (spec.md §4.10).
type KnowledgeIngestor interface {
	IngestSegments(ctx context.Context, videoID string, segments []Segment) error
}

// Extractor runs the three-step breakdown pipeline (segmentation,
// per-segment insight extraction, video summary) and optionally hands
// the result to a KnowledgeIngestor.
type Extractor struct {
	provider  llm.Provider
	knowledge KnowledgeIngestor
}

func NewExtractor(provider llm.Provider, knowledge KnowledgeIngestor) *Extractor {
	return &Extractor{provider: provider, knowledge: knowledge}
}

// Process builds a Breakdown for videoID from t, per spec.md §4.10.
func (e *Extractor) Process(ctx context.Context, videoID string, published time.Time, t *transcript.Transcript) (*Breakdown, error) {
	segments := segment(ctx, e.provider, t)

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, insightParallelism)
	for i := range segments {
		i := i
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			extractInsights(egCtx, e.provider, &segments[i])
			return nil
		})
	}
	// Insight extraction never returns an error worth aborting the
	// whole breakdown over (each call already falls back internally),
	// so Wait only propagates context cancellation.
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	summary, structure := summarizeVideo(ctx, e.provider, segments)

	bd := &Breakdown{
		VideoID:          videoID,
		PublishedAt:      published,
		Segments:         segments,
		OverallStructure: structure,
		Summary:          summary,
	}

	if e.knowledge != nil {
		if err := e.knowledge.IngestSegments(ctx, videoID, segments); err != nil {
			log.Warn().Str("videoId", videoID).Err(err).Msg("breakdown: knowledge ingestion failed, continuing without it")
		}
	}

	return bd, nil
}
