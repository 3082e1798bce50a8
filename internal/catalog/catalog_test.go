package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/record"
)

func paper(id string, published time.Time) *record.Record {
	r := record.New(record.TypePaper)
	r.Title = "Paper " + id
	r.Published = published
	r.ExternalIDs[record.NSDOI] = "10.1/" + id
	r.Finalize()
	return r
}

func TestStore_MergeAndLookup(t *testing.T) {
	s := NewStore(0)
	p := paper("a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	s.Merge([]*record.Record{p}, nil, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	got, ok := s.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Title, got.Title)

	byExt, ok := s.FindByExternalID(record.NSDOI, "10.1/a")
	require.True(t, ok)
	assert.Equal(t, p.ID, byExt.ID)

	lastPaperDate, lastFetchTime := s.Watermarks()
	assert.Equal(t, p.Published, lastPaperDate)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), lastFetchTime)
}

func TestStore_EvictsOldestPublishedOverCeiling(t *testing.T) {
	s := NewStore(2)
	old := paper("old", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	mid := paper("mid", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := paper("new", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	s.Merge([]*record.Record{old, mid, newer}, nil, time.Now())

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(old.ID)
	assert.False(t, ok, "oldest-published record should be evicted")
	_, ok = s.Get(newer.ID)
	assert.True(t, ok)
}

func TestFilePersister_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	persister := NewFilePersister(path)

	s := NewStore(0)
	p := paper("roundtrip", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	s.Merge([]*record.Record{p}, nil, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, persister.Save(s))

	loaded := NewStore(0)
	persister.Load(loaded)

	got, ok := loaded.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Title, got.Title)
	_, lastFetchTime := loaded.Watermarks()
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), lastFetchTime)
}

func TestFilePersister_Load_MissingFileStartsEmpty(t *testing.T) {
	persister := NewFilePersister(filepath.Join(t.TempDir(), "absent.json"))
	s := NewStore(0)
	persister.Load(s)
	assert.Equal(t, 0, s.Len())
}

func TestFilePersister_Load_MalformedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	persister := NewFilePersister(path)
	s := NewStore(0)
	persister.Load(s)
	assert.Equal(t, 0, s.Len())
}
