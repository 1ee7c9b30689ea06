package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/afl-predictor/internal/models"
)

var testNames = []string{"form_diff", "venue"}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.Equal(t, 1.0, sigmoid(40))
	assert.Equal(t, 0.0, sigmoid(-40))
	assert.InDelta(t, 0.731, sigmoid(1), 0.001)
	assert.Equal(t, 32.0, dot([]float64{1, 2, 3}, []float64{4, 5, 6}))
}

func TestCheckProbability(t *testing.T) {
	for _, p := range []float64{0, 0.37, 1} {
		assert.NoError(t, CheckProbability(p))
	}
	nan := 0.0
	nan = nan / nan
	for _, p := range []float64{-0.01, 1.01, nan} {
		assert.ErrorIs(t, CheckProbability(p), ErrInvalidPrediction)
	}
}

func TestLogisticModelEstimate(t *testing.T) {
	m := &LogisticModel{FeatureNames: testNames, Weights: []float64{2, 0.5}, Bias: -1, ModelVersion: "v1"}

	p, err := m.Estimate(context.Background(), []float64{0.5, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
	assert.Equal(t, "v1", m.Version())

	_, err = m.Estimate(context.Background(), []float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestLogisticModelSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "model.json")
	m := &LogisticModel{
		FeatureNames: testNames,
		Weights:      []float64{1.5, -0.25},
		Bias:         0.1,
		ModelVersion: "v7",
		TrainedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, m.Save(path))

	loaded, err := LoadLogisticModel(path, testNames)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, "v7", loaded.Version())

	_, err = LoadLogisticModel(path, []string{"venue", "form_diff"})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
	_, err = LoadLogisticModel(path, []string{"form_diff"})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestLoadLogisticModelMissingFile(t *testing.T) {
	_, err := LoadLogisticModel(filepath.Join(t.TempDir(), "absent.json"), testNames)
	assert.ErrorIs(t, err, ErrEstimatorUnavailable)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestTrainLogisticLearnsSignal(t *testing.T) {
	var samples [][]float64
	var labels []float64
	for i := 0; i < 60; i++ {
		diff := float64(i%10)/10 - 0.45
		venue := float64(i % 2)
		label := 0.0
		if diff > 0 {
			label = 1
		}
		samples = append(samples, []float64{diff, venue})
		labels = append(labels, label)
	}

	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	model, loss, err := TrainLogistic(testNames, samples, labels, TrainOptions{
		LearningRate: 0.5,
		Epochs:       500,
		Now:          func() time.Time { return fixed },
	})
	require.NoError(t, err)
	assert.Less(t, loss, 0.4)
	assert.Equal(t, "logistic-20250102T030405Z", model.Version())
	assert.Equal(t, testNames, model.FeatureNames)

	hi, err := model.Estimate(context.Background(), []float64{0.45, 0})
	require.NoError(t, err)
	lo, err := model.Estimate(context.Background(), []float64{-0.45, 0})
	require.NoError(t, err)
	assert.Greater(t, hi, 0.5)
	assert.Less(t, lo, 0.5)
}

func TestTrainLogisticDeterministic(t *testing.T) {
	samples := make([][]float64, 12)
	labels := make([]float64, 12)
	for i := range samples {
		samples[i] = []float64{float64(i), 1}
		labels[i] = float64(i % 2)
	}
	opts := TrainOptions{Epochs: 50, Version: "fixed"}

	a, _, err := TrainLogistic(testNames, samples, labels, opts)
	require.NoError(t, err)
	b, _, err := TrainLogistic(testNames, samples, labels, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Bias, b.Bias)
}

func TestTrainLogisticRejectsBadInput(t *testing.T) {
	_, _, err := TrainLogistic(testNames, [][]float64{{1, 0}}, []float64{1}, TrainOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	samples := make([][]float64, MinTrainingSamples)
	labels := make([]float64, MinTrainingSamples)
	for i := range samples {
		samples[i] = []float64{1, 2}
	}
	samples[3] = []float64{1}
	_, _, err = TrainLogistic(testNames, samples, labels, TrainOptions{})
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	_, _, err = TrainLogistic(testNames, samples, labels[:2], TrainOptions{})
	assert.Error(t, err)
}

func fastClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      time.Millisecond,
		CircuitBreakerMax: 2,
	}
}

func TestHTTPEstimatorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		var req EstimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testNames, req.FeatureNames)
		assert.Equal(t, []float64{0.2, 1}, req.Features)

		_ = json.NewEncoder(w).Encode(EstimateResponse{HomeWinProbability: 0.64, ModelVersion: "remote-3"})
	}))
	defer srv.Close()

	est := NewHTTPEstimator(srv.URL, "secret", testNames, fastClientConfig(), nil)
	defer est.Close()

	p, err := est.Estimate(context.Background(), []float64{0.2, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.64, p)
	assert.Equal(t, "remote-3", est.Version())
}

func TestHTTPEstimatorInvalidProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"home_win_probability": 1.5}`))
	}))
	defer srv.Close()

	est := NewHTTPEstimator(srv.URL, "", testNames, fastClientConfig(), nil)
	_, err := est.Estimate(context.Background(), []float64{0, 0})
	assert.ErrorIs(t, err, ErrInvalidPrediction)
}

func TestHTTPEstimatorFeatureMismatch(t *testing.T) {
	est := NewHTTPEstimator("http://127.0.0.1:1", "", testNames, fastClientConfig(), nil)
	_, err := est.Estimate(context.Background(), []float64{0})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestHTTPEstimatorCircuitBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	est := NewHTTPEstimator(srv.URL, "", testNames, fastClientConfig(), nil)
	for i := 0; i < 2; i++ {
		_, err := est.Estimate(context.Background(), []float64{0, 0})
		assert.ErrorIs(t, err, models.ErrModelUnavailable)
	}
	assert.True(t, est.client.IsOpen())

	_, err := est.Estimate(context.Background(), []float64{0, 0})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"home_win_probability": 0.5}`))
	}))
	defer srv.Close()

	cfg := fastClientConfig()
	cfg.CircuitResetAfter = 20 * time.Millisecond
	est := NewHTTPEstimator(srv.URL, "", testNames, cfg, nil)

	for i := 0; i < 2; i++ {
		_, _ = est.Estimate(context.Background(), []float64{0, 0})
	}
	require.True(t, est.client.IsOpen())

	fail.Store(false)
	time.Sleep(30 * time.Millisecond)
	p, err := est.Estimate(context.Background(), []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
	assert.False(t, est.client.IsOpen())
}

type countingEstimator struct {
	calls int
	p     float64
}

func (c *countingEstimator) Estimate(context.Context, []float64) (float64, error) {
	c.calls++
	return c.p, nil
}

func (c *countingEstimator) Version() string { return "count" }

func TestCachedEstimator(t *testing.T) {
	inner := &countingEstimator{p: 0.7}
	ce := NewCachedEstimator(inner, time.Minute)

	for i := 0; i < 3; i++ {
		p, err := ce.Estimate(context.Background(), []float64{1, 0})
		require.NoError(t, err)
		assert.Equal(t, 0.7, p)
	}
	_, err := ce.Estimate(context.Background(), []float64{0, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
	hits, misses, ratio := ce.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
	assert.Equal(t, 0.5, ratio)
	assert.Equal(t, "count", ce.Version())

	ce.Clear()
	_, err = ce.Estimate(context.Background(), []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}
