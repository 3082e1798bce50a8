// Package httpapi implements the read-mostly HTTP surface described in
// spec.md §6: records, aggregate insights, and a liveness probe, all
// served from the in-memory Catalog Store and Analytics Engine
// snapshot — list and detail endpoints never block on an upstream
// fetch.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/techsignal/internal/secrets"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// secureLog redacts credential-shaped query parameters (source adapter
// API keys can arrive on refresh-trigger requests) before a request URI
// reaches the access log.
var secureLog = secrets.NewSecureLogger()

// Server is the read-mostly HTTP surface from spec.md §6, grounded on
// the teacher's interfaces/http.Server: a gorilla/mux router behind a
// fixed middleware chain (request ID, structured logging, timeout,
// CORS, JSON content type).
type Server struct {
	router  *mux.Router
	server  *http.Server
	h       *Handlers
	config  Config
	metrics *MetricsRegistry
}

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 15 * time.Second,
	}
}

func NewServer(config Config, h *Handlers) *Server {
	s := &Server{router: mux.NewRouter(), h: h, config: config, metrics: NewMetricsRegistry()}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.h.Health).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api.HandleFunc("/papers", s.h.ListPapers).Methods(http.MethodGet)
	api.HandleFunc("/papers/stats", s.h.PapersStats).Methods(http.MethodGet)
	api.HandleFunc("/papers/autocomplete", s.h.Autocomplete).Methods(http.MethodGet)
	api.HandleFunc("/papers/batch", s.h.BatchPapers).Methods(http.MethodPost)
	api.HandleFunc("/papers/refresh", s.h.RefreshPapers).Methods(http.MethodPost)
	api.HandleFunc("/papers/{id}", s.h.GetPaper).Methods(http.MethodGet)

	api.HandleFunc("/insights/technologies", s.h.Technologies).Methods(http.MethodGet)
	api.HandleFunc("/insights/industries", s.h.Industries).Methods(http.MethodGet)
	api.HandleFunc("/insights/emerging", s.h.Emerging).Methods(http.MethodGet)
	api.HandleFunc("/insights/predictions", s.h.Predictions).Methods(http.MethodGet)
	api.HandleFunc("/insights/leader-quotes", s.h.LeaderQuotes).Methods(http.MethodGet)
	api.HandleFunc("/insights/combined-signal", s.h.CombinedSignal).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.h.NotFound)
}

// routeTemplate returns the matched mux route's path template (e.g.
// "/papers/{id}") rather than the literal request path, keeping the
// request-duration metric's cardinality bounded regardless of how many
// distinct record IDs are requested.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		uri, _ := secureLog.RedactLogMessage(r.URL.RequestURI(), nil)
		log.Info().
			Str("requestId", fmt.Sprint(r.Context().Value(requestIDKey))).
			Str("method", r.Method).
			Str("path", uri).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("httpapi: request")
		s.metrics.ObserveRequest(routeTemplate(r), strconv.Itoa(rec.status), elapsed)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, s.config.RequestTimeout, `{"error":"request_timeout"}`)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("httpapi: starting server")
	go s.sampleCatalogSize()
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// sampleCatalogSize periodically publishes the Catalog Store's record
// count to the techsignal_catalog_size gauge until the server shuts
// down (the ticker is a daemon goroutine; it exits when the process
// does, matching the server's own unbounded ListenAndServe lifetime).
func (s *Server) sampleCatalogSize() {
	if s.h.Catalog == nil {
		return
	}
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	s.metrics.CatalogSize.Set(float64(s.h.Catalog.Len()))
	for range ticker.C {
		s.metrics.CatalogSize.Set(float64(s.h.Catalog.Len()))
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func parseWindow(r *http.Request, def time.Duration) time.Duration {
	v := r.URL.Query().Get("timeWindow")
	if v == "" {
		return def
	}
	days, err := strconv.Atoi(v)
	if err != nil || days <= 0 {
		return def
	}
	return time.Duration(days) * 24 * time.Hour
}

func requestID(r *http.Request) string {
	if v := r.Context().Value(requestIDKey); v != nil {
		return fmt.Sprint(v)
	}
	return "unknown"
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
