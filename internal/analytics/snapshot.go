package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	internalio "github.com/sawpanic/techsignal/internal/io"
	"github.com/sawpanic/techsignal/internal/signals"
)

// defaultAnalyticsWindow is the window used for momentum/emerging/
// prediction recomputation absent an explicit request window.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// Snapshot is one dated computation of every §4.8 output, cached in
// durable storage so "the most recent snapshot is served when the
// engine is idle" (spec.md §4.8).
type Snapshot struct {
	GeneratedAt time.Time
	Momentum    []Momentum
	Growth      []Growth
	Emerging    []Emerging
	Predictions []Prediction
	LeaderQuotes []LeaderQuote
}

// SnapshotStore persists dated Analytics Engine snapshots, grounded on
// the same internal/io.WriteFileAtomic durable-state pattern
// catalog.FilePersister uses — generalized from a single envelope to
// an append-then-trim history so "most recent" queries don't need a
// relational backend.
type SnapshotStore interface {
	SaveSnapshot(s Snapshot) error
	LatestSnapshot() (Snapshot, bool)
}

// FileSnapshotStore writes snapshots to a single JSON file holding a
// bounded history, using the same temp-write-then-rename atomicity as
// catalog.FilePersister.
type FileSnapshotStore struct {
	path     string
	maxKeep  int
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path, maxKeep: 30}
}

type snapshotHistory struct {
	Snapshots []Snapshot `json:"snapshots"`
}

func (f *FileSnapshotStore) SaveSnapshot(s Snapshot) error {
	history := f.load()
	history.Snapshots = append(history.Snapshots, s)
	if len(history.Snapshots) > f.maxKeep {
		history.Snapshots = history.Snapshots[len(history.Snapshots)-f.maxKeep:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("analytics: marshal snapshot history: %w", err)
	}

	if err := internalio.WriteFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("analytics: write snapshot history: %w", err)
	}
	return nil
}

func (f *FileSnapshotStore) LatestSnapshot() (Snapshot, bool) {
	history := f.load()
	if len(history.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return history.Snapshots[len(history.Snapshots)-1], true
}

func (f *FileSnapshotStore) load() snapshotHistory {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return snapshotHistory{}
	}
	var history snapshotHistory
	if err := json.Unmarshal(data, &history); err != nil {
		log.Warn().Str("path", f.path).Err(err).Msg("analytics: snapshot history malformed, starting empty")
		return snapshotHistory{}
	}
	return history
}

// Engine owns the Catalog read surface and computes, caches, and
// serves the Analytics Engine outputs. It satisfies
// scheduler.AnalyticsRefresher structurally (RefreshAll(ctx) error)
// without importing the scheduler package, avoiding an import cycle.
type Engine struct {
	cat     signals.Catalog
	leaders LeaderQuoteSource
	store   SnapshotStore
	window  time.Duration

	mu      sync.RWMutex
	current Snapshot
}

func NewEngine(cat signals.Catalog, leaders LeaderQuoteSource, store SnapshotStore, window time.Duration) *Engine {
	if window <= 0 {
		window = defaultAnalyticsWindow
	}
	e := &Engine{cat: cat, leaders: leaders, store: store, window: window}
	if store != nil {
		if snap, ok := store.LatestSnapshot(); ok {
			e.current = snap
		}
	}
	return e
}

// RefreshAll recomputes every §4.8 output and caches the result as a
// dated snapshot, per spec.md's deep analytics refresh trigger (§4.6).
func (e *Engine) RefreshAll(ctx context.Context) error {
	leaderCounter := LeaderMentionCountFromSource{Source: e.leaders}

	snap := Snapshot{
		GeneratedAt: time.Now(),
		Momentum:    RankMomentum(e.cat, e.window),
		Growth:      RankGrowth(e.cat, 0),
		Emerging:    RankEmerging(e.cat, e.window, leaderCounter),
		Predictions: RankPredictions(e.cat, e.window, leaderCounter),
		LeaderQuotes: RankLeaderQuotes(e.leaders),
	}

	e.mu.Lock()
	e.current = snap
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveSnapshot(snap); err != nil {
			return fmt.Errorf("analytics: save snapshot: %w", err)
		}
	}
	return nil
}

// Latest returns the most recently computed (or loaded) snapshot,
// served while the engine is idle between refreshes.
func (e *Engine) Latest() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}
