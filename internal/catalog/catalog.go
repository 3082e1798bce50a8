// Package catalog implements the Catalog Store (C4): an in-memory
// record map with secondary indices, bounded by a ceiling with
// oldest-published-first eviction, backed by durable persistence.
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sawpanic/techsignal/internal/record"
)

// DefaultCeiling is the default bound on records held in memory before
// eviction kicks in, spec.md §4.4 "e.g., 10 000 records for papers,
// configurable".
const DefaultCeiling = 10000

// Store is the in-memory Catalog Store. All mutations are serialized
// through a single writer (mu.Lock in Merge/evict); readers take
// mu.RLock so a consistent snapshot is always visible, per spec.md §4.4
// and §5 "the merge for a cycle is atomic from the reader's point of
// view".
type Store struct {
	mu sync.RWMutex

	byID          map[string]*record.Record
	byExternalID  map[string]*record.Record // "namespace:value" -> record
	byTitleFP     map[string]*record.Record

	ceiling int

	lastPaperDate time.Time
	lastFetchTime time.Time
}

// NewStore returns an empty Store with the given eviction ceiling (0
// means DefaultCeiling).
func NewStore(ceiling int) *Store {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Store{
		byID:         make(map[string]*record.Record),
		byExternalID: make(map[string]*record.Record),
		byTitleFP:    make(map[string]*record.Record),
		ceiling:      ceiling,
	}
}

// FindByExternalID implements dedup.Lookup.
func (s *Store) FindByExternalID(namespace, value string) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byExternalID[indexKey(namespace, value)]
	return r, ok
}

// FindByTitleFingerprint implements dedup.Lookup.
func (s *Store) FindByTitleFingerprint(fp string) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byTitleFP[fp]
	return r, ok
}

// Get returns the record with the given canonical id.
func (s *Store) Get(id string) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns every record currently held, safe for concurrent
// reads — the caller gets its own slice, the Store's maps are
// untouched.
func (s *Store) Snapshot() []*record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*record.Record, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	return out
}

// Watermarks returns the lastPaperDate/lastFetchTime pair the
// expanding-window retry protocol (C5) reads.
func (s *Store) Watermarks() (lastPaperDate, lastFetchTime time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPaperDate, s.lastFetchTime
}

// Merge applies a batch of new records and a batch of already-merged
// update records (produced by internal/dedup.Dedupe) atomically:
// lock once, index everything, evict if over ceiling, update
// watermarks. Readers never observe a partial merge.
func (s *Store) Merge(newRecords, updatedRecords []*record.Record, fetchTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range newRecords {
		s.index(r)
	}
	for _, r := range updatedRecords {
		s.index(r)
	}

	s.lastFetchTime = fetchTime
	for _, r := range s.byID {
		if r.Published.After(s.lastPaperDate) {
			s.lastPaperDate = r.Published
		}
	}

	s.evictLocked()
}

// index inserts or re-indexes r under its id, external-id namespaces,
// and title fingerprint. Callers must hold mu.
func (s *Store) index(r *record.Record) {
	s.byID[r.ID] = r
	for ns, v := range r.ExternalIDs {
		if v != "" {
			s.byExternalID[indexKey(ns, v)] = r
		}
	}
	if !record.SkipFingerprint(r.Title) {
		fp := record.TitleFingerprint(r.Title, firstAuthor(r.Authors), r.Published.Year())
		s.byTitleFP[fp] = r
	}
}

// evictLocked drops the oldest-published records once the store
// exceeds its ceiling. Callers must hold mu.
func (s *Store) evictLocked() {
	if len(s.byID) <= s.ceiling {
		return
	}
	ordered := make([]*record.Record, 0, len(s.byID))
	for _, r := range s.byID {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Published.Before(ordered[j].Published) })

	toEvict := len(ordered) - s.ceiling
	for i := 0; i < toEvict; i++ {
		s.remove(ordered[i])
	}
}

func (s *Store) remove(r *record.Record) {
	delete(s.byID, r.ID)
	for ns, v := range r.ExternalIDs {
		if v != "" {
			delete(s.byExternalID, indexKey(ns, v))
		}
	}
	if !record.SkipFingerprint(r.Title) {
		fp := record.TitleFingerprint(r.Title, firstAuthor(r.Authors), r.Published.Year())
		delete(s.byTitleFP, fp)
	}
}

// LoadSnapshot replaces the store's contents wholesale — used by
// rehydration on start. Watermarks are recomputed from the loaded
// records rather than trusted blindly, except lastFetchTime which is
// passed through from the persisted envelope.
func (s *Store) LoadSnapshot(records []*record.Record, lastFetchTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*record.Record, len(records))
	s.byExternalID = make(map[string]*record.Record, len(records)*2)
	s.byTitleFP = make(map[string]*record.Record, len(records))
	s.lastPaperDate = time.Time{}
	s.lastFetchTime = lastFetchTime

	for _, r := range records {
		s.index(r)
		if r.Published.After(s.lastPaperDate) {
			s.lastPaperDate = r.Published
		}
	}
}

func indexKey(namespace, value string) string {
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(value)
	return b.String()
}

func firstAuthor(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	return authors[0]
}
