// Package sources implements the Source Adapters described in spec.md
// §4.2: one adapter per upstream, each normalizing its responses into
// internal/record.Record and sharing the rate-limited, circuit-broken
// HTTP client in client.go.
package sources

import (
	"context"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

// Adapter is the shared contract every upstream source implements.
// Search and Enrich are optional; adapters that don't support them
// return ErrNotSupported.
type Adapter interface {
	// Name identifies the adapter for logging, rate-limiting, and
	// circuit-breaker bookkeeping (e.g. "arxiv", "github", "news").
	Name() string

	// FetchLatest builds one or more diversified queries, paginates
	// the upstream, and returns Canonical Records published on or
	// after dateThreshold, capped at limit.
	FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error)
}

// Searcher is implemented by adapters that support ad hoc querying
// beyond the latest-window fetch (e.g. GitHub topic search).
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*record.Record, error)
}

// Enricher is implemented by adapters that can backfill a single
// record with additional detail after the fact (e.g. citation counts).
type Enricher interface {
	Enrich(ctx context.Context, rec *record.Record) (*record.Record, error)
}

// Result is what an orchestrator fan-out collects per adapter: the
// records it produced plus a possibly-nil error for a degraded
// (partial or empty) response, per spec.md §4.2 failure semantics.
type Result struct {
	Adapter string
	Records []*record.Record
	Err     error
}
