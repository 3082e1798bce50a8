package httpapi

import (
	"net/http"
	"time"
)

// healthResponse is spec.md §6's "/health reports cache size, last
// fetch time, uptime, and whether a refresh is in flight."
type healthResponse struct {
	Status          string    `json:"status"`
	CacheSize       int       `json:"cacheSize"`
	LastFetchTime   time.Time `json:"lastFetchTime"`
	UptimeSeconds   float64   `json:"uptimeSeconds"`
	RefreshInFlight bool      `json:"refreshInFlight"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	_, lastFetch := h.Catalog.Watermarks()

	inFlight := false
	if h.Scheduler != nil {
		status := h.Scheduler.GetStatus()
		inFlight = status.CatalogRunning || status.AnalyticsRunning
	}

	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		CacheSize:       h.Catalog.Len(),
		LastFetchTime:   lastFetch,
		UptimeSeconds:   time.Since(h.startedAt).Seconds(),
		RefreshInFlight: inFlight,
	})
}
