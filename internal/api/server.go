// Package api exposes match listings, feature vectors and predictions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Predictor is the prediction surface the API serves
type Predictor interface {
	BuildFeatures(ctx context.Context, matchID string) (*features.Vector, error)
	Predict(ctx context.Context, matchID string) (*models.Prediction, error)
}

// FeaturesResponse carries a vector both in canonical order and keyed by name
type FeaturesResponse struct {
	MatchID  string             `json:"match_id"`
	Names    []string           `json:"names"`
	Values   []float64          `json:"values"`
	Features map[string]float64 `json:"features"`
}

// MatchesResponse is the match listing payload
type MatchesResponse struct {
	Count   int             `json:"count"`
	Matches []*models.Match `json:"matches"`
}

// ErrorResponse is returned for every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// Config holds the API server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MetricsPath    string
	MetricsHandler http.Handler
	Logger         *logrus.Logger
}

// Server routes API requests to the ledgers and the prediction service
type Server struct {
	matches   repository.MatchLedger
	predictor Predictor
	cfg       Config
	logger    *logrus.Entry
	server    *http.Server
}

// NewServer creates an API server
func NewServer(matches repository.MatchLedger, predictor Predictor, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	return &Server{
		matches:   matches,
		predictor: predictor,
		cfg:       cfg,
		logger:    cfg.Logger.WithField("component", "api"),
	}
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/matches", s.handleListMatches).Methods(http.MethodGet)
	v1.HandleFunc("/matches/{id}", s.handleGetMatch).Methods(http.MethodGet)
	v1.HandleFunc("/matches/{id}/features", s.handleFeatures).Methods(http.MethodGet)
	v1.HandleFunc("/matches/{id}/prediction", s.handlePrediction).Methods(http.MethodGet)

	if s.cfg.MetricsHandler != nil && s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, s.cfg.MetricsHandler).Methods(http.MethodGet)
	}
	return r
}

// Start serves the API in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the API server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("API server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	filter := models.MatchFilter{Limit: defaultListLimit}
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year %q", v))
			return
		}
		filter.FromYear, filter.ToYear = year, year
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}
	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid completed %q", v))
			return
		}
		filter.CompletedOnly = completed
	}

	matches, err := s.matches.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchesResponse{Count: len(matches), Matches: matches})
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := s.matches.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	vec, err := s.predictor.BuildFeatures(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeaturesResponse{
		MatchID:  vec.MatchID,
		Names:    features.Names,
		Values:   vec.Values,
		Features: vec.Map(),
	})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	pred, err := s.predictor.Predict(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("Request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
