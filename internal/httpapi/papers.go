package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sawpanic/techsignal/internal/record"
)

// listResponse is spec.md §6's "Responses for list endpoints include
// {items[], total, lastUpdate, hasMore}."
type listResponse struct {
	Items      []*record.Record `json:"items"`
	Total      int              `json:"total"`
	LastUpdate time.Time        `json:"lastUpdate"`
	HasMore    bool             `json:"hasMore"`
}

const defaultListLimit = 50

// ListPapers implements GET /papers: category, venue, search, source,
// limit, offset.
func (h *Handlers) ListPapers(w http.ResponseWriter, r *http.Request) {
	all := h.Catalog.Snapshot()
	sort.Slice(all, func(i, j int) bool { return all[i].Published.After(all[j].Published) })

	category := r.URL.Query().Get("category")
	venue := r.URL.Query().Get("venue")
	search := strings.ToLower(r.URL.Query().Get("search"))
	sources := splitCSV(r.URL.Query().Get("source"))

	var filtered []*record.Record
	for _, rec := range all {
		if category != "" && !containsFold(rec.TagList(), category) && !containsFold(rec.CategoryList(), category) {
			continue
		}
		if venue != "" && !strings.EqualFold(rec.Venue, venue) {
			continue
		}
		if len(sources) > 0 && !containsFold(sources, string(rec.Type)) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.Title), search) && !strings.Contains(strings.ToLower(rec.Summary), search) {
			continue
		}
		filtered = append(filtered, rec)
	}

	limit := parseIntParam(r, "limit", defaultListLimit)
	offset := parseIntParam(r, "offset", 0)
	total := len(filtered)

	page := paginate(filtered, offset, limit)
	_, lastFetch := h.Catalog.Watermarks()

	h.writeJSON(w, http.StatusOK, listResponse{
		Items:      page,
		Total:      total,
		LastUpdate: lastFetch,
		HasMore:    offset+len(page) < total,
	})
}

func paginate(records []*record.Record, offset, limit int) []*record.Record {
	if offset >= len(records) {
		return []*record.Record{}
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// statsResponse implements GET /papers/stats: industry counts bucketed
// by period.
type statsResponse struct {
	Period string         `json:"period"`
	Counts map[string]int `json:"counts"`
}

func (h *Handlers) PapersStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	cutoff := periodCutoff(period)

	counts := make(map[string]int)
	for _, rec := range h.Catalog.Snapshot() {
		if rec.Published.Before(cutoff) {
			continue
		}
		for _, ind := range rec.IndustryList() {
			counts[ind]++
		}
	}

	h.writeJSON(w, http.StatusOK, statsResponse{Period: period, Counts: counts})
}

func periodCutoff(period string) time.Time {
	now := time.Now()
	switch period {
	case "quarter":
		return now.AddDate(0, -3, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// GetPaper implements GET /papers/{id}.
func (h *Handlers) GetPaper(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := h.Catalog.Get(id)
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "no record with that id")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// BatchPapers implements POST /papers/batch.
func (h *Handlers) BatchPapers(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	items := make([]*record.Record, 0, len(req.IDs))
	for _, id := range req.IDs {
		if rec, ok := h.Catalog.Get(id); ok {
			items = append(items, rec)
		}
	}
	h.writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items), HasMore: false})
}

// minAutocompleteLen is spec.md §6's "q (min length 2)."
const minAutocompleteLen = 2

// autocompleteMaxResults caps the suggestion list to a usable size.
const autocompleteMaxResults = 10

// Autocomplete implements GET /papers/autocomplete.
func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if len(q) < minAutocompleteLen {
		h.writeJSON(w, http.StatusOK, []string{})
		return
	}

	seen := make(map[string]struct{})
	var suggestions []string
	for _, rec := range h.Catalog.Snapshot() {
		if !strings.Contains(strings.ToLower(rec.Title), q) {
			continue
		}
		if _, ok := seen[rec.Title]; ok {
			continue
		}
		seen[rec.Title] = struct{}{}
		suggestions = append(suggestions, rec.Title)
		if len(suggestions) >= autocompleteMaxResults {
			break
		}
	}
	h.writeJSON(w, http.StatusOK, suggestions)
}

type refreshResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// RefreshPapers implements POST /papers/refresh.
func (h *Handlers) RefreshPapers(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	result, err := h.Scheduler.RefreshCatalog(r.Context(), force)
	if err != nil {
		// Already-running is not a failure from the caller's point of
		// view: a refresh is in flight either way.
		h.writeJSON(w, http.StatusOK, refreshResponse{Triggered: false, Message: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, refreshResponse{Triggered: result.Success})
}
