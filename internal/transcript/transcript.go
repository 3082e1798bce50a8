// Package transcript implements the Transcript Pipeline (C9): a
// four-tier fallback chain that produces a time-aligned transcript for
// a video, backed by a 24h unavailability cache, per spec.md §4.9.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Segment is one line of a transcript: a speaker-tagged span of text
// with a start offset, per spec.md §4.9's "HH:MM:SS [Speaker]: text"
// output format.
type Segment struct {
	Start   time.Duration
	Speaker string
	Text    string
}

// Transcript is the time-aligned output for a single video.
type Transcript struct {
	VideoID  string
	Segments []Segment
}

// ErrUnavailable is the sentinel returned when every fallback method
// has failed, or the video is known-unavailable from a prior attempt
// within the last 24h, per spec.md §4.9.
var ErrUnavailable = errors.New("transcript: unavailable")

// errBlocked signals an age-restricted, private, or 403-blocked
// download — subsequent audio-based methods (tiers 3 and 4) are
// short-circuited when this occurs on tier 2's download, per spec.md
// §4.9 "Age-restricted, private, or 403-blocked downloads short-
// circuit subsequent audio-based methods."
var errBlocked = errors.New("transcript: source blocked")

// Method produces a Transcript for a video, or an error if this tier
// could not. Each of the four fallback tiers implements Method.
type Method interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}

// UnavailabilityCache records videos that have exhausted every
// fallback tier, short-circuiting repeated attempts for 24h. Process-
// local, last-write-wins, per spec.md §5 "Shared-resource policy."
type UnavailabilityCache interface {
	IsUnavailable(ctx context.Context, videoID string) (bool, error)
	MarkUnavailable(ctx context.Context, videoID string) error
}

// Pipeline runs the four-tier fallback chain described in spec.md
// §4.9: micro-service, caption extraction, speech-to-text, third-
// party transcription API — in that order, stopping at the first tier
// that succeeds.
type Pipeline struct {
	methods []Method
	cache   UnavailabilityCache
}

func NewPipeline(cache UnavailabilityCache, methods ...Method) *Pipeline {
	return &Pipeline{methods: methods, cache: cache}
}

// Fetch runs the fallback chain for videoID. A cached "unavailable"
// verdict short-circuits immediately. Every attempt is logged; a
// blocked download short-circuits the remaining audio-based tiers
// (conventionally tiers 3 and 4, identified by BlockAware below).
func (p *Pipeline) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	if p.cache != nil {
		unavailable, err := p.cache.IsUnavailable(ctx, videoID)
		if err != nil {
			log.Warn().Str("videoId", videoID).Err(err).Msg("transcript: unavailability cache read failed")
		} else if unavailable {
			return nil, ErrUnavailable
		}
	}

	blocked := false
	for _, m := range p.methods {
		if blocked {
			if _, ok := m.(AudioBased); ok {
				log.Info().Str("videoId", videoID).Str("method", m.Name()).
					Msg("transcript: skipping audio-based method after blocked download")
				continue
			}
		}

		t, err := m.Fetch(ctx, videoID)
		if err == nil {
			log.Info().Str("videoId", videoID).Str("method", m.Name()).Msg("transcript: fetch succeeded")
			return t, nil
		}

		log.Info().Str("videoId", videoID).Str("method", m.Name()).Err(err).Msg("transcript: fetch attempt failed")
		if errors.Is(err, errBlocked) {
			blocked = true
		}
	}

	if p.cache != nil {
		if err := p.cache.MarkUnavailable(ctx, videoID); err != nil {
			log.Warn().Str("videoId", videoID).Err(err).Msg("transcript: failed to mark unavailable")
		}
	}
	return nil, fmt.Errorf("transcript: all methods failed for %s: %w", videoID, ErrUnavailable)
}

// AudioBased marks a Method as one of the audio-download-dependent
// tiers (speech-to-text, third-party transcription API), so the
// pipeline can skip both once a download has been blocked.
type AudioBased interface {
	Method
	audioBased()
}

// Format renders a Transcript in spec.md §4.9's emitted format: one
// line per segment, "HH:MM:SS [Speaker]: text".
func Format(t *Transcript) string {
	out := ""
	for _, seg := range t.Segments {
		out += fmt.Sprintf("%s [%s]: %s\n", formatDuration(seg.Start), seg.Speaker, seg.Text)
	}
	return out
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
