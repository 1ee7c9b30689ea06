package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest metrics
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by method and status",
	}, []string{"method", "status"})
	BacktestScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_score",
		Help:      "Latest backtest score by method and measure",
	}, []string{"method", "measure"})
)

// RecordBacktestRun records a backtest run event.
// method is "replay" or "walk_forward"; an error marks the run as failed.
func RecordBacktestRun(method string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	BacktestRunsTotal.WithLabelValues(method, status).Inc()
}

// RecordBacktestScores publishes the accuracy, AUC and Brier score of the
// latest run of method.
func RecordBacktestScores(method string, accuracy, auc, brier float64) {
	BacktestScore.WithLabelValues(method, "accuracy").Set(accuracy)
	BacktestScore.WithLabelValues(method, "auc").Set(auc)
	BacktestScore.WithLabelValues(method, "brier").Set(brier)
}
