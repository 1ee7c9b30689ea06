package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()
	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordCacheLookup(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(FeatureCacheRequestsTotal.WithLabelValues("form", "hit"))

	RecordCacheLookup("form", true)
	RecordCacheLookup("form", false)

	assert.Equal(t, before+1, testutil.ToFloat64(FeatureCacheRequestsTotal.WithLabelValues("form", "hit")))
}

func TestRecordEstimatorCall(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(EstimatorErrorsTotal.WithLabelValues("http", "timeout"))

	RecordEstimatorCall("http", 20*time.Millisecond, "")
	RecordEstimatorCall("http", 20*time.Millisecond, "timeout")

	assert.Equal(t, before+1, testutil.ToFloat64(EstimatorErrorsTotal.WithLabelValues("http", "timeout")))
}

func TestRecordIngestion(t *testing.T) {
	InitRegistry()
	beforeSkipped := testutil.ToFloat64(IngestionRowsTotal.WithLabelValues("matches", "skipped"))
	beforeFailed := testutil.ToFloat64(IngestionRunsTotal.WithLabelValues("failure"))

	RecordIngestionRows("matches", 10, 2)
	RecordIngestionRun("matches", time.Second, errors.New("boom"))

	assert.Equal(t, beforeSkipped+2, testutil.ToFloat64(IngestionRowsTotal.WithLabelValues("matches", "skipped")))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(IngestionRunsTotal.WithLabelValues("failure")))
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordPrediction("success")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "afl_predictor_predictions_total")
}

func TestRecordBacktest(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("replay", "failure"))

	RecordBacktestRun("replay", errors.New("no matches"))
	RecordBacktestScores("walk_forward", 0.64, 0.7, 0.21)

	assert.Equal(t, before+1, testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("replay", "failure")))
	assert.Equal(t, 0.64, testutil.ToFloat64(BacktestScore.WithLabelValues("walk_forward", "accuracy")))
	assert.Equal(t, 0.21, testutil.ToFloat64(BacktestScore.WithLabelValues("walk_forward", "brier")))
}
