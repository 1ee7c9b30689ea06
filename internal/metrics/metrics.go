// Package metrics provides the centralized Prometheus registry for the predictor.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afl_predictor"

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Feature derivation metrics
var (
	FeatureBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_builds_total",
		Help:      "Total feature vector builds by status",
	}, []string{"status"})
	FeatureBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feature_build_duration_seconds",
		Help:      "Duration of feature vector builds in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	FeatureCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_cache_requests_total",
		Help:      "Feature cache lookups by kind and result",
	}, []string{"kind", "result"})
	FeatureCacheInvalidatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feature_cache_invalidated_entries_total",
		Help:      "Feature cache entries removed by invalidation",
	})
	MalformedCountersSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "malformed_counters_skipped_total",
		Help:      "Stat counters skipped during aggregation because they were negative",
	}, []string{"stat"})
)

// Prediction metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total predictions by status",
	}, []string{"status"})
	EstimatorLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "estimator_latency_seconds",
		Help:      "Probability estimator latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"estimator"})
	EstimatorErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimator_errors_total",
		Help:      "Probability estimator errors by type",
	}, []string{"estimator", "error_type"})
	ModelTrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "model_training_duration_seconds",
		Help:      "Duration of model training runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(FeatureBuildsTotal)
		registry.MustRegister(FeatureBuildDuration)
		registry.MustRegister(FeatureCacheRequestsTotal)
		registry.MustRegister(FeatureCacheInvalidatedTotal)
		registry.MustRegister(MalformedCountersSkippedTotal)

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(EstimatorLatency)
		registry.MustRegister(EstimatorErrorsTotal)
		registry.MustRegister(ModelTrainingDuration)

		registry.MustRegister(IngestionRowsTotal)
		registry.MustRegister(IngestionRunsTotal)
		registry.MustRegister(IngestionDuration)
		registry.MustRegister(LastIngestionTimestamp)

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestScore)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordFeatureBuild records a feature vector build outcome.
func RecordFeatureBuild(status string, duration time.Duration) {
	FeatureBuildsTotal.WithLabelValues(status).Inc()
	FeatureBuildDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss for kind.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	FeatureCacheRequestsTotal.WithLabelValues(kind, result).Inc()
}

// RecordCacheInvalidation records removed cache entries.
func RecordCacheInvalidation(removed int) {
	FeatureCacheInvalidatedTotal.Add(float64(removed))
}

// RecordMalformedCounter records a skipped stat counter.
func RecordMalformedCounter(stat string) {
	MalformedCountersSkippedTotal.WithLabelValues(stat).Inc()
}

// RecordPrediction records a prediction outcome.
func RecordPrediction(status string) {
	PredictionsTotal.WithLabelValues(status).Inc()
}

// RecordEstimatorCall records estimator latency and, when errType is set, an error.
func RecordEstimatorCall(estimator string, duration time.Duration, errType string) {
	EstimatorLatency.WithLabelValues(estimator).Observe(duration.Seconds())
	if errType != "" {
		EstimatorErrorsTotal.WithLabelValues(estimator, errType).Inc()
	}
}

// RecordModelTraining records a training run duration.
func RecordModelTraining(duration time.Duration) {
	ModelTrainingDuration.Observe(duration.Seconds())
}
