package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/geomag-field-service/internal/domain"
	"github.com/couchcryptid/geomag-field-service/internal/wmm"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// FieldOptions carries the service-level evaluation policy applied to
// ad-hoc API queries.
type FieldOptions struct {
	AllowOutsideLifespan bool
	StrictZonePolicy     bool
}

// Server exposes the field query endpoint plus health, readiness, and
// metrics routes.
type Server struct {
	httpServer *http.Server
	evaluator  domain.Evaluator
	opts       FieldOptions
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/field, /healthz, /readyz, and
// /metrics routes. Pass a nil evaluator to disable the query endpoint.
func NewServer(addr string, ready ReadinessChecker, evaluator domain.Evaluator, opts FieldOptions, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		opts:      opts,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if evaluator != nil {
		mux.HandleFunc("GET /v1/field", s.handleField)
	}

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

// handleField serves ad-hoc point queries:
//
//	GET /v1/field?lat=47.6205&lon=-122.3493&alt=0.058&time=2025.25
//
// lat and lon are required. alt defaults to 0 (ellipsoid surface). time
// accepts a decimal year or an RFC 3339 timestamp and defaults to now.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := requiredFloat(q.Get("lat"))
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "lat must be a number in [-90, 90]")
		return
	}
	lon, err := requiredFloat(q.Get("lon"))
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lon must be a number in [-180, 180]")
		return
	}

	alt := 0.0
	if v := q.Get("alt"); v != "" {
		if alt, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "alt must be a number (kilometers)")
			return
		}
	}

	year, err := parseTimeParam(q.Get("time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be a decimal year or RFC 3339 timestamp")
		return
	}

	res, err := s.evaluator.Evaluate(wmm.Request{
		Latitude:             lat,
		Longitude:            lon,
		AltitudeKm:           alt,
		DecimalYear:          year,
		AllowOutsideLifespan: s.opts.AllowOutsideLifespan,
		StrictZonePolicy:     s.opts.StrictZonePolicy,
	})
	if err != nil {
		switch {
		case errors.Is(err, wmm.ErrTimeOutOfRange),
			errors.Is(err, wmm.ErrBlackoutZone),
			errors.Is(err, wmm.ErrCautionZone):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("field evaluation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	var unc *wmm.Uncertainty
	if u, err := wmm.EstimateUncertainty(res); err == nil {
		unc = &u
	}

	fix := domain.PositionFix{
		Latitude:    lat,
		Longitude:   lon,
		AltitudeKm:  alt,
		DecimalYear: year,
	}
	writeJSON(w, http.StatusOK, domain.BuildFieldReport(fix, res, unc))
}

func requiredFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	return strconv.ParseFloat(s, 64)
}

// parseTimeParam accepts a decimal year ("2025.25") or an RFC 3339
// timestamp; empty means now.
func parseTimeParam(s string) (float64, error) {
	if s == "" {
		return wmm.DecimalYear(time.Now()), nil
	}
	if year, err := strconv.ParseFloat(s, 64); err == nil {
		return year, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return wmm.DecimalYear(t), nil
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

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
