package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/metrics"
)

// HTTPEstimator delegates estimation to a remote model server.
type HTTPEstimator struct {
	client       *RateLimitedHTTPClient
	url          string
	apiKey       string
	featureNames []string
	logger       *logrus.Logger

	mu      sync.RWMutex
	version string
}

// EstimateRequest is the payload posted to the model server.
type EstimateRequest struct {
	FeatureNames []string  `json:"feature_names"`
	Features     []float64 `json:"features"`
}

// EstimateResponse is the model server's reply.
type EstimateResponse struct {
	HomeWinProbability float64 `json:"home_win_probability"`
	ModelVersion       string  `json:"model_version"`
}

// NewHTTPEstimator creates a remote estimator posting to url.
func NewHTTPEstimator(url, apiKey string, featureNames []string, cfg HTTPClientConfig, logger *logrus.Logger) *HTTPEstimator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &HTTPEstimator{
		client:       NewRateLimitedHTTPClient(cfg, logger),
		url:          url,
		apiKey:       apiKey,
		featureNames: featureNames,
		logger:       logger,
		version:      "remote",
	}
}

// Estimate implements Estimator.
func (e *HTTPEstimator) Estimate(ctx context.Context, features []float64) (float64, error) {
	start := time.Now()
	p, err := e.estimate(ctx, features)
	metrics.RecordEstimatorCall(KindHTTP, time.Since(start), errorType(err))
	return p, err
}

func (e *HTTPEstimator) estimate(ctx context.Context, features []float64) (float64, error) {
	if len(e.featureNames) > 0 && len(features) != len(e.featureNames) {
		return 0, fmt.Errorf("%w: got %d values, expected %d", ErrFeatureMismatch, len(features), len(e.featureNames))
	}

	body, err := json.Marshal(EstimateRequest{FeatureNames: e.featureNames, Features: features})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	headers := map[string]string{"Accept": "application/json"}
	if e.apiKey != "" {
		headers["X-API-Key"] = e.apiKey
	}

	resp, err := e.client.Post(ctx, e.url, "application/json", bytes.NewReader(body), headers)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEstimatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= 500 {
		return 0, fmt.Errorf("%w: status %d", ErrEstimatorUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("estimator returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out EstimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	if err := CheckProbability(out.HomeWinProbability); err != nil {
		return 0, err
	}

	if out.ModelVersion != "" {
		e.mu.Lock()
		if e.version != out.ModelVersion {
			e.logger.WithFields(logrus.Fields{
				"url":           e.url,
				"model_version": out.ModelVersion,
			}).Info("Remote estimator model version changed")
			e.version = out.ModelVersion
		}
		e.mu.Unlock()
	}
	return out.HomeWinProbability, nil
}

// Version implements Estimator. It reports the last version the server returned.
func (e *HTTPEstimator) Version() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Close releases idle connections.
func (e *HTTPEstimator) Close() error {
	return e.client.Close()
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrEstimatorUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidPrediction):
		return "invalid_prediction"
	case errors.Is(err, ErrFeatureMismatch):
		return "feature_mismatch"
	default:
		return "other"
	}
}
