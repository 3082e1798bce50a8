package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/record"
	"github.com/sawpanic/techsignal/internal/sources"
)

type fakeAdapter struct {
	name    string
	records []*record.Record
	err     error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchLatest(ctx context.Context, limit int, dateThreshold time.Time) ([]*record.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newPaper(id string, published time.Time) *record.Record {
	r := record.New(record.TypePaper)
	r.Title = "Paper " + id
	r.Published = published
	r.ExternalIDs[record.NSDOI] = "10.1/" + id
	return r
}

func TestOrchestrator_RunCycle_MergesAcrossAdapters(t *testing.T) {
	store := catalog.NewStore(0)
	a1 := &fakeAdapter{name: "a1", records: []*record.Record{newPaper("1", time.Now())}}
	a2 := &fakeAdapter{name: "a2", records: []*record.Record{newPaper("2", time.Now())}}

	o := New([]sources.Adapter{a1, a2}, store, 100)
	stats, err := o.RunCycle(context.Background(), false)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NewRecords, 2)
	assert.Equal(t, 2, store.Len())
}

func TestOrchestrator_RunCycle_PartialAdapterFailureContinues(t *testing.T) {
	store := catalog.NewStore(0)
	ok := &fakeAdapter{name: "ok", records: []*record.Record{newPaper("3", time.Now())}}
	bad := &fakeAdapter{name: "bad", err: errors.New("upstream down")}

	o := New([]sources.Adapter{ok, bad}, store, 100)
	stats, err := o.RunCycle(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.GreaterOrEqual(t, stats.AdapterErrors, 1)
}

func TestOrchestrator_RunCycle_ForceResetsThresholdTo7Days(t *testing.T) {
	store := catalog.NewStore(0)
	o := New(nil, store, 100)

	threshold := o.startingThreshold(true)
	assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), threshold, time.Minute)
}
