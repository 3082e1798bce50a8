package breakdown

import (
	"sync"

	"github.com/sawpanic/techsignal/internal/analytics"
	"github.com/sawpanic/techsignal/internal/record"
)

// Store holds the latest Breakdown per video, replacing (not
// appending) on re-processing — spec.md §3's "Breakdown and atoms are
// created once per video and overwritten only on explicit
// re-processing." It also implements analytics.LeaderQuoteSource, so
// C8's leader-quote ranking becomes live once a Store is wired in.
type Store struct {
	mu      sync.RWMutex
	byVideo map[string]*Breakdown
}

func NewStore() *Store {
	return &Store{byVideo: make(map[string]*Breakdown)}
}

// Put replaces any existing Breakdown for bd.VideoID.
func (s *Store) Put(bd *Breakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byVideo[bd.VideoID] = bd
}

func (s *Store) Get(videoID string) (*Breakdown, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bd, ok := s.byVideo[videoID]
	return bd, ok
}

// AllLeaderQuotes scans every stored breakdown's segments for
// technology mentions paired with a prediction keyword, per spec.md
// §4.8's "extracted from podcast breakdowns where a segment mentions
// a technology and contains a prediction-keyword."
func (s *Store) AllLeaderQuotes() []analytics.LeaderQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quotes []analytics.LeaderQuote
	for videoID, bd := range s.byVideo {
		for _, seg := range bd.Segments {
			text := seg.TranscriptSnippet
			if text == "" || !containsPredictionKeyword(text) {
				continue
			}

			probe := record.New(record.TypePodcast)
			probe.Title = text
			record.ExtractTechnologies(probe)
			for _, tech := range probe.TechnologyList() {
				quotes = append(quotes, analytics.LeaderQuote{
					Technology:  tech,
					VideoID:     videoID,
					Quote:       text,
					Confidence:  confidenceFor(seg),
					PublishedAt: bd.PublishedAt.Unix(),
				})
			}
		}
	}
	return quotes
}

// confidenceFor derives a leader-quote confidence from the segment's
// strongest insight depth score, defaulting to a modest baseline when
// the segment carries no scored insights (e.g. a keyword-fallback
// segment) — a separate resolution from analytics' per-Signal
// confidence, scoped to this package's own quote-ranking input.
func confidenceFor(seg Segment) float64 {
	best := 0.5
	for _, insight := range seg.Insights {
		if insight.DepthScore > best {
			best = insight.DepthScore
		}
	}
	return best
}
