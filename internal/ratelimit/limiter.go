// Package ratelimit provides the per-source rate gate described in
// spec.md §4.1: the (N+1)-th request blocks until at least 1/rate
// seconds have elapsed since the N-th request started, with FIFO
// ordering among waiters on the same limiter.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned by AcquireBounded when a bounded wait is
// requested and exceeded, per spec.md §4.1 failure mode.
var ErrThrottled = errors.New("ratelimit: throttled")

// Limiter gates outbound requests for a single upstream source using a
// token-bucket (golang.org/x/time/rate), grounded on the teacher's
// internal/net/ratelimit.Limiter — generalized from per-host to
// per-source and reduced to burst=1 (the spec models a single steady
// rate, not bursting).
type Limiter struct {
	inner *rate.Limiter
	rps   float64
}

// New creates a Limiter admitting rps requests per second. rps may be
// fractional (e.g. arXiv's ≤1 rps, Crossref's 10 rps).
func New(rps float64) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(rps), 1),
		rps:   rps,
	}
}

// Acquire blocks until the caller may issue one outbound request, or
// until ctx is cancelled. The caller holds the "slot" for the duration
// of the outbound call; Acquire itself only governs admission timing.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.inner.Wait(ctx)
}

// AcquireBounded blocks up to maxWait for admission; if the wait would
// exceed maxWait it returns ErrThrottled immediately without consuming
// a reservation.
func (l *Limiter) AcquireBounded(ctx context.Context, maxWait time.Duration) error {
	reservation := l.inner.Reserve()
	if !reservation.OK() {
		return ErrThrottled
	}
	delay := reservation.Delay()
	if delay > maxWait {
		reservation.Cancel()
		return ErrThrottled
	}
	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	}
}

// RPS returns the configured rate.
func (l *Limiter) RPS() float64 { return l.rps }

// Manager keeps one Limiter per named source, matching the per-source
// rates enumerated in spec.md §4.1.
type Manager struct {
	limiters map[string]*Limiter
}

// NewManager builds a Manager from a source→rps map. Sources absent
// from the map are unthrottled (Acquire is a no-op).
func NewManager(rates map[string]float64) *Manager {
	m := &Manager{limiters: make(map[string]*Limiter, len(rates))}
	for source, rps := range rates {
		m.limiters[source] = New(rps)
	}
	return m
}

// Acquire blocks admission for the named source. Unknown sources pass
// through immediately.
func (m *Manager) Acquire(ctx context.Context, source string) error {
	l, ok := m.limiters[source]
	if !ok {
		return nil
	}
	return l.Acquire(ctx)
}

// Get returns the Limiter for a source, if configured.
func (m *Manager) Get(source string) (*Limiter, bool) {
	l, ok := m.limiters[source]
	return l, ok
}

// DefaultRates mirrors the recognized per-source rates from spec.md
// §4.1, plus the two supplemented sources (job boards, podcast
// channels) that SPEC_FULL.md adds to the adapter set; both are rate
// limited at a conservative 1 rps since neither upstream publishes a
// documented quota.
var DefaultRates = map[string]float64{
	"arxiv":           1.0,
	"semanticScholar": 1.0,
	"openAlex":        1.0,
	"crossref":        10.0,
	"pubmed":          2.0,
	"dblp":            1.0,
	"github":          0.5,
	"news":            2.0,
	"patent":          1.0,
	"job":             1.0,
	"podcast":         1.0,
}
