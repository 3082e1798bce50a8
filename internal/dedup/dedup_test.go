package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/record"
)

type fakeCatalog struct {
	byExternalID map[string]*record.Record
	byTitleFP    map[string]*record.Record
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{byExternalID: map[string]*record.Record{}, byTitleFP: map[string]*record.Record{}}
}

func (f *fakeCatalog) FindByExternalID(namespace, value string) (*record.Record, bool) {
	r, ok := f.byExternalID[namespace+":"+value]
	return r, ok
}

func (f *fakeCatalog) FindByTitleFingerprint(fp string) (*record.Record, bool) {
	r, ok := f.byTitleFP[fp]
	return r, ok
}

func paper(title string, published time.Time, doi string, citations int) *record.Record {
	r := record.New(record.TypePaper)
	r.Title = title
	r.Published = published
	r.Citations = citations
	if doi != "" {
		r.ExternalIDs[record.NSDOI] = doi
	}
	r.Finalize()
	return r
}

func TestDedupe_IntraBatchCollision_HigherCitationWins(t *testing.T) {
	a := paper("Attention Is All You Need", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "10.1/x", 5)
	b := paper("Attention Is All You Need", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "10.1/x", 50)

	catalog := newFakeCatalog()
	out := Dedupe([]*record.Record{a, b}, catalog)

	require.Len(t, out.New, 1)
	assert.Equal(t, 50, out.New[0].Citations)
}

func TestDedupe_CrossCatalogHitByExternalID_ClassifiesAsUpdate(t *testing.T) {
	existing := paper("Existing Paper", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "10.1/existing", 10)
	catalog := newFakeCatalog()
	catalog.byExternalID["doi:10.1/existing"] = existing

	incoming := paper("Existing Paper (Updated Title)", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "10.1/existing", 20)
	out := Dedupe([]*record.Record{incoming}, catalog)

	assert.Empty(t, out.New)
	require.Len(t, out.Updated, 1)
	assert.Equal(t, 20, out.Updated[0].Citations)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), out.Updated[0].Published, "earliest published retained")
}

func TestDedupe_CrossCatalogMissByTitleFingerprint_IsNew(t *testing.T) {
	catalog := newFakeCatalog()
	incoming := paper("A Completely Novel Title With No Match", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "", 0)

	out := Dedupe([]*record.Record{incoming}, catalog)
	assert.Len(t, out.New, 1)
	assert.Empty(t, out.Updated)
}

func TestDedupe_ShortTitleSkipsFingerprintLookup(t *testing.T) {
	catalog := newFakeCatalog()
	short := paper("abcd", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "", 0)
	// Pre-seed the catalog under the fingerprint that would match if
	// the short-title skip were not honored.
	fp := record.TitleFingerprint("abcd", "", 2024)
	catalog.byTitleFP[fp] = paper("abcd", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "", 1)

	out := Dedupe([]*record.Record{short}, catalog)
	assert.Len(t, out.New, 1, "titles under length 5 must skip the fingerprint pass")
}
