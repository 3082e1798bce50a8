package httpapi

import (
	"net/http"
	"time"

	"github.com/sawpanic/techsignal/internal/analytics"
)

const defaultInsightWindow = 30 * 24 * time.Hour

// Technologies implements GET /insights/technologies.
func (h *Handlers) Technologies(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r, defaultInsightWindow)
	h.writeJSON(w, http.StatusOK, analytics.RankMomentum(h.Catalog, window))
}

// Industries implements GET /insights/industries.
func (h *Handlers) Industries(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r, defaultInsightWindow)
	h.writeJSON(w, http.StatusOK, analytics.RankGrowth(h.Catalog, window))
}

// Emerging implements GET /insights/emerging.
func (h *Handlers) Emerging(w http.ResponseWriter, r *http.Request) {
	window := parseWindow(r, defaultInsightWindow)
	h.writeJSON(w, http.StatusOK, analytics.RankEmerging(h.Catalog, window, h.leaderCounter()))
}

// Predictions implements GET /insights/predictions.
func (h *Handlers) Predictions(w http.ResponseWriter, r *http.Request) {
	if h.Analytics == nil {
		h.writeJSON(w, http.StatusOK, []analytics.Prediction{})
		return
	}
	h.writeJSON(w, http.StatusOK, h.Analytics.Latest().Predictions)
}

// LeaderQuotes implements GET /insights/leader-quotes.
func (h *Handlers) LeaderQuotes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, analytics.RankLeaderQuotes(h.Leaders))
}

// combinedSignal is GET /insights/combined-signal's per-technology
// view, assembling every Analytics Engine output for one technology
// in a single response.
type combinedSignal struct {
	Technology string              `json:"technology"`
	Momentum   analytics.Momentum  `json:"momentum"`
	Emerging   analytics.Emerging  `json:"emerging"`
	Prediction analytics.Prediction `json:"prediction"`
}

// CombinedSignal implements GET /insights/combined-signal?technology=.
func (h *Handlers) CombinedSignal(w http.ResponseWriter, r *http.Request) {
	tech := r.URL.Query().Get("technology")
	if tech == "" {
		h.writeError(w, r, http.StatusBadRequest, "technology is required")
		return
	}

	window := parseWindow(r, defaultInsightWindow)
	leaders := h.leaderCounter()
	h.writeJSON(w, http.StatusOK, combinedSignal{
		Technology: tech,
		Momentum:   analytics.ComputeMomentum(h.Catalog, tech, window),
		Emerging:   analytics.ComputeEmerging(h.Catalog, tech, window, leaders),
		Prediction: analytics.ComputePrediction(h.Catalog, tech, window, leaders),
	})
}

func (h *Handlers) leaderCounter() analytics.LeaderMentionCounter {
	return analytics.LeaderMentionCountFromSource{Source: h.Leaders}
}
