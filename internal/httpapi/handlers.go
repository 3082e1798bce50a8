package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sawpanic/techsignal/internal/analytics"
	"github.com/sawpanic/techsignal/internal/catalog"
	"github.com/sawpanic/techsignal/internal/orchestrator"
	"github.com/sawpanic/techsignal/internal/scheduler"
)

// Handlers wires the Catalog Store, Analytics Engine, Scheduler, and
// leader-quote source together behind the HTTP surface. All fields
// besides Catalog are optional — when nil, the corresponding endpoints
// degrade gracefully (e.g. an empty insights list) rather than
// panicking, matching spec.md §7's "never fail" posture for
// cooperative subsystems.
type Handlers struct {
	Catalog     *catalog.Store
	Analytics   *analytics.Engine
	Scheduler   *scheduler.Scheduler
	Leaders     analytics.LeaderQuoteSource
	Orchestrator *orchestrator.Orchestrator
	startedAt   time.Time
}

func NewHandlers(cat *catalog.Store, eng *analytics.Engine, sched *scheduler.Scheduler, leaders analytics.LeaderQuoteSource, orch *orchestrator.Orchestrator) *Handlers {
	return &Handlers{
		Catalog:      cat,
		Analytics:    eng,
		Scheduler:    sched,
		Leaders:      leaders,
		Orchestrator: orch,
		startedAt:    time.Now(),
	}
}

// errorResponse is spec.md §6's "a full internal error returns 5xx
// with a JSON error body."
type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, status, errorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: requestID(r),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "the requested endpoint does not exist")
}
