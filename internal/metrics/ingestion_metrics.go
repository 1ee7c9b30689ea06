package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion metrics
var (
	IngestionRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_rows_total",
		Help:      "Rows processed by import kind and status",
	}, []string{"kind", "status"})
	IngestionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_runs_total",
		Help:      "Import runs by status",
	}, []string{"status"})
	IngestionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of file imports in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"kind"})
	LastIngestionTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_ingestion_timestamp_seconds",
		Help:      "Unix time of the last successful import run",
	})
)

// RecordIngestionRows records imported and skipped rows for kind.
func RecordIngestionRows(kind string, imported, skipped int) {
	IngestionRowsTotal.WithLabelValues(kind, "imported").Add(float64(imported))
	IngestionRowsTotal.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

// RecordIngestionRun records a finished import run.
func RecordIngestionRun(kind string, duration time.Duration, err error) {
	IngestionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		IngestionRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	IngestionRunsTotal.WithLabelValues("success").Inc()
	LastIngestionTimestamp.SetToCurrentTime()
}
