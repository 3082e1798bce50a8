package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/record"
)

func newTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store := catalog.NewStore(1000)

	r1 := record.New(record.TypePaper)
	r1.Title = "Transformer Scaling Laws"
	r1.Summary = "A study of transformer models at scale."
	r1.Published = time.Now().Add(-24 * time.Hour)
	r1.Venue = "NeurIPS"
	r1.ExternalIDs[record.NSArxiv] = "2101.00001"
	r1.AddIndustry("Finance")
	r1.Finalize()

	r2 := record.New(record.TypeNews)
	r2.Title = "Quantum Computing Breakthrough Announced"
	r2.Summary = "A new milestone in quantum computing."
	r2.Published = time.Now().Add(-48 * time.Hour)
	r2.Venue = "TechCrunch"
	r2.ExternalIDs[record.NSDOI] = "10.1000/xyz"
	r2.AddIndustry("Healthcare")
	r2.Finalize()

	store.Merge([]*record.Record{r1, r2}, nil, time.Now())
	return store
}

func newTestHandlers(t *testing.T) *Handlers {
	return NewHandlers(newTestCatalog(t), nil, nil, nil, nil)
}

func TestListPapers_ReturnsAllRecordsSortedByPublishedDescending(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers", nil)
	rec := httptest.NewRecorder()

	h.ListPapers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Transformer Scaling Laws", resp.Items[0].Title)
	assert.Equal(t, 2, resp.Total)
}

func TestListPapers_FiltersBySearch(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers?search=quantum", nil)
	rec := httptest.NewRecorder()

	h.ListPapers(rec, req)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Quantum Computing Breakthrough Announced", resp.Items[0].Title)
}

func TestListPapers_RespectsLimitAndOffset(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers?limit=1&offset=0", nil)
	rec := httptest.NewRecorder()

	h.ListPapers(rec, req)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.HasMore)
}

func TestGetPaper_UnknownID_Returns404(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers/bogus", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "bogus"})
	rec := httptest.NewRecorder()

	h.GetPaper(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPaper_KnownID_ReturnsRecord(t *testing.T) {
	h := newTestHandlers(t)
	all := h.Catalog.Snapshot()
	require.NotEmpty(t, all)

	req := httptest.NewRequest(http.MethodGet, "/papers/"+all[0].ID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": all[0].ID})
	rec := httptest.NewRecorder()

	h.GetPaper(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got record.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, all[0].ID, got.ID)
}

func TestAutocomplete_BelowMinLength_ReturnsEmpty(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers/autocomplete?q=a", nil)
	rec := httptest.NewRecorder()

	h.Autocomplete(rec, req)

	var suggestions []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	assert.Empty(t, suggestions)
}

func TestAutocomplete_MatchesTitlePrefix(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/papers/autocomplete?q=transformer", nil)
	rec := httptest.NewRecorder()

	h.Autocomplete(rec, req)

	var suggestions []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Transformer Scaling Laws", suggestions[0])
}

func TestHealth_ReportsCacheSizeAndStatus(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.CacheSize)
	assert.False(t, resp.RefreshInFlight)
}

func TestCombinedSignal_MissingTechnology_Returns400(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/insights/combined-signal", nil)
	rec := httptest.NewRecorder()

	h.CombinedSignal(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshPapers_NoScheduler_ReturnsServiceUnavailable(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/papers/refresh", nil)
	rec := httptest.NewRecorder()

	h.RefreshPapers(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBatchPapers_ReturnsOnlyMatchingIDs(t *testing.T) {
	h := newTestHandlers(t)
	all := h.Catalog.Snapshot()
	require.NotEmpty(t, all)

	body := `{"ids":["` + all[0].ID + `","does-not-exist"]}`
	req := httptest.NewRequest(http.MethodPost, "/papers/batch", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.BatchPapers(rec, req)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, all[0].ID, resp.Items[0].ID)
}
