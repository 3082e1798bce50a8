// Package orchestrator implements the Ingestion Orchestrator (C5):
// one cycle end-to-end, fanning out across Source Adapters, running
// the Deduplicator, and merging into the Catalog Store, per
// spec.md §4.5.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/dedup"
	"github.com/sawpanic/techsignal/internal/record"
	"github.com/sawpanic/techsignal/internal/sources"
)

// windowSteps is the expanding-window retry schedule spec.md §4.5
// describes: 2-day floor, then 14, then 30, capped at three attempts.
var windowSteps = []time.Duration{48 * time.Hour, 14 * 24 * time.Hour, 30 * 24 * time.Hour}

// newRecordThreshold is the minimum count of "truly new" records that
// satisfies a cycle without widening the window.
const newRecordThreshold = 1

// CycleStats mirrors catchup-feed-backend's CrawlStats, generalized
// from a single-fetch-family counter set to the multi-adapter,
// multi-attempt shape this orchestrator fans out across.
type CycleStats struct {
	Attempts       int
	AdaptersRun    int
	AdapterErrors  int
	FetchedTotal   int
	NewRecords     int
	UpdatedRecords int
	Duration       time.Duration
}

// Orchestrator runs ingestion cycles against a configured adapter set.
type Orchestrator struct {
	adapters   []sources.Adapter
	store      *catalog.Store
	maxRecords int
}

func New(adapters []sources.Adapter, store *catalog.Store, maxRecords int) *Orchestrator {
	if maxRecords <= 0 {
		maxRecords = 500
	}
	return &Orchestrator{adapters: adapters, store: store, maxRecords: maxRecords}
}

// RunCycle executes the full expanding-window retry protocol described
// in spec.md §4.5. force=true resets the starting threshold to 7 days
// ago, per the Scheduler's manual-refresh contract (§4.6).
func (o *Orchestrator) RunCycle(ctx context.Context, force bool) (CycleStats, error) {
	start := time.Now()
	stats := CycleStats{}

	dateThreshold := o.startingThreshold(force)

	for attempt := 0; attempt < len(windowSteps); attempt++ {
		select {
		case <-ctx.Done():
			stats.Duration = time.Since(start)
			return stats, ctx.Err()
		default:
		}

		stats.Attempts++
		fetched, fetchErr := o.fanOut(ctx, dateThreshold)
		stats.AdaptersRun += len(o.adapters)
		if fetchErr != nil {
			stats.AdapterErrors++
		}
		stats.FetchedTotal += len(fetched)

		for _, r := range fetched {
			r.Finalize()
		}
		outcome := dedup.Dedupe(fetched, o.store)
		o.store.Merge(outcome.New, outcome.Updated, time.Now())

		stats.NewRecords += len(outcome.New)
		stats.UpdatedRecords += len(outcome.Updated)

		log.Info().
			Int("attempt", stats.Attempts).
			Time("dateThreshold", dateThreshold).
			Int("fetched", len(fetched)).
			Int("new", len(outcome.New)).
			Int("updated", len(outcome.Updated)).
			Msg("ingestion cycle attempt completed")

		if len(outcome.New) >= newRecordThreshold {
			break
		}
		if attempt+1 < len(windowSteps) {
			dateThreshold = time.Now().Add(-windowSteps[attempt+1])
		}

		select {
		case <-ctx.Done():
			stats.Duration = time.Since(start)
			return stats, ctx.Err()
		default:
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// startingThreshold derives dateThreshold from the store's watermark
// and a floor of 48 hours ago, or resets to 7 days ago when force is
// set (manual refresh, spec.md §4.6).
func (o *Orchestrator) startingThreshold(force bool) time.Time {
	if force {
		return time.Now().Add(-7 * 24 * time.Hour)
	}
	lastPaperDate, _ := o.store.Watermarks()
	floor := time.Now().Add(-windowSteps[0])
	if lastPaperDate.After(floor) {
		return lastPaperDate
	}
	return floor
}

// fanOut invokes every adapter concurrently and waits for all to
// settle — successes and failures both — per spec.md §4.5 step 1,
// grounded on catchup-feed-backend's errgroup-based per-source fan-out
// (Service.CrawlAllSources / processFeedItems), generalized from a
// per-item errgroup to a per-adapter one since Canonical Record
// normalization happens inside each adapter already.
func (o *Orchestrator) fanOut(ctx context.Context, dateThreshold time.Time) ([]*record.Record, error) {
	if len(o.adapters) == 0 {
		return nil, nil
	}
	perAdapter := o.maxRecords / len(o.adapters)
	if perAdapter <= 0 {
		perAdapter = 1
	}

	results := make([]sources.Result, len(o.adapters))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		i, adapter := i, adapter
		eg.Go(func() error {
			records, err := adapter.FetchLatest(egCtx, perAdapter, dateThreshold)
			results[i] = sources.Result{Adapter: adapter.Name(), Records: records, Err: err}
			// A single adapter failure is a partial result, not a
			// cycle-ending error — never return err here.
			return nil
		})
	}
	_ = eg.Wait()

	var all []*record.Record
	var firstErr error
	for _, res := range results {
		if res.Err != nil {
			log.Warn().Str("adapter", res.Adapter).Err(res.Err).Msg("adapter failed for this cycle")
			if firstErr == nil {
				firstErr = fmt.Errorf("adapter %s: %w", res.Adapter, res.Err)
			}
			continue
		}
		all = append(all, res.Records...)
	}
	return all, firstErr
}
