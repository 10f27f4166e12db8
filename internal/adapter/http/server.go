// Package http exposes the query surface the rendering layer calls, plus
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
	"github.com/couchcryptid/quake-region-analytics/internal/region"
)

// Querier is the unified query surface, normally the pipeline coordinator.
type Querier interface {
	HistoricalRegionStats(ctx context.Context, events []domain.Event, strategy region.Strategy, filters domain.Filters) ([]domain.RegionStats, error)
	LiveSnapshot(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error)
	ForceRefresh()
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the analytics API over HTTP.
type Server struct {
	httpServer *http.Server
	querier    Querier
	logger     *slog.Logger
}

// NewServer creates an HTTP server with query, health, readiness, and
// metrics routes.
func NewServer(addr string, querier Querier, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		querier: querier,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/live", s.handleLive)
	mux.HandleFunc("POST /api/v1/live/refresh", s.handleLiveRefresh)
	mux.HandleFunc("POST /api/v1/historical/stats", s.handleHistoricalStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type liveResponse struct {
	Events   []domain.Event       `json:"events"`
	Metadata domain.FetchMetadata `json:"metadata"`
}

// handleLive serves GET /api/v1/live?min_magnitude=2.5&window=24h.
// A feed failure maps to 502 so callers can distinguish "the source is
// unreachable" from a valid empty result.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	minMag, err := parseFloatParam(r, "min_magnitude", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	window, err := parseDurationParam(r, "window", 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	events, meta, err := s.querier.LiveSnapshot(r.Context(), minMag, window)
	if err != nil {
		s.logger.Error("live snapshot failed", "min_magnitude", minMag, "window", window, "error", err)
		status := http.StatusBadGateway
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.Timeout {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, err)
		return
	}

	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, liveResponse{Events: events, Metadata: meta})
}

func (s *Server) handleLiveRefresh(w http.ResponseWriter, _ *http.Request) {
	s.querier.ForceRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cache evicted"})
}

// statsRow mirrors domain.RegionStats with a nullable stddev, because JSON
// has no NaN and stddev is undefined for single-event regions.
type statsRow struct {
	Region          domain.Region `json:"region"`
	Count           int           `json:"count"`
	AvgMagnitude    float64       `json:"avg_magnitude"`
	MaxMagnitude    float64       `json:"max_magnitude"`
	StddevMagnitude *float64      `json:"stddev_magnitude"`
	RiskScore       float64       `json:"risk_score"`
}

// handleHistoricalStats serves POST /api/v1/historical/stats. The body is a
// JSON array of events; strategy, filters, and an optional ranking come from
// query parameters.
func (s *Server) handleHistoricalStats(w http.ResponseWriter, r *http.Request) {
	var events []domain.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("decode events: "+err.Error()))
		return
	}

	strategy := region.Strategy("")
	if v := r.URL.Query().Get("strategy"); v != "" {
		parsed, err := region.ParseStrategy(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		strategy = parsed
	}

	minMag, err := parseFloatParam(r, "min_magnitude", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	filters := domain.Filters{MinMagnitude: minMag, From: from, To: to}
	stats, err := s.querier.HistoricalRegionStats(r.Context(), events, strategy, filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.URL.Query().Get("sort") {
	case "count":
		domain.SortByCount(stats)
	case "max_magnitude":
		domain.SortByMaxMagnitude(stats)
	case "risk":
		domain.SortByRiskScore(stats)
	case "":
	default:
		writeError(w, http.StatusBadRequest, errors.New("invalid sort (want count, max_magnitude, or risk)"))
		return
	}

	rows := make([]statsRow, 0, len(stats))
	for _, st := range stats {
		row := statsRow{
			Region:       st.Region,
			Count:        st.Count,
			AvgMagnitude: st.AvgMagnitude,
			MaxMagnitude: st.MaxMagnitude,
			RiskScore:    st.RiskScore,
		}
		if !math.IsNaN(st.StddevMagnitude) {
			v := st.StddevMagnitude
			row.StddevMagnitude = &v
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, rows)
}

func parseFloatParam(r *http.Request, name string, fallback float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

func parseDurationParam(r *http.Request, name string, fallback time.Duration) (time.Duration, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("invalid " + name + " (want RFC 3339)")
	}
	return t, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
