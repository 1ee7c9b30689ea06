package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourusername/afl-predictor/internal/features"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(modelVersion string, m Metrics) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Model: %s\n", modelVersion))
	builder.WriteString(fmt.Sprintf("Matches: %d\n", m.Samples))
	builder.WriteString(fmt.Sprintf("Accuracy: %.3f (baseline %.3f)\n", m.Accuracy, m.BaselineAccuracy()))
	builder.WriteString(fmt.Sprintf("AUC: %.3f\n", m.AUC))
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", m.BrierScore))
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", m.LogLoss))
	builder.WriteString("Confusion Matrix (rows actual away/home, columns predicted away/home):\n")
	builder.WriteString(fmt.Sprintf("  [%d %d]\n", m.Confusion.TrueNegative, m.Confusion.FalsePositive))
	builder.WriteString(fmt.Sprintf("  [%d %d]\n", m.Confusion.FalseNegative, m.Confusion.TruePositive))
	return builder.String()
}

// GenerateWalkForwardReport formats per-season results for terminal output
func GenerateWalkForwardReport(result WalkForwardResult) string {
	var builder strings.Builder
	builder.WriteString("Walk-Forward Report\n")
	builder.WriteString("===================\n")
	for _, w := range result.Windows {
		builder.WriteString(fmt.Sprintf("%d: trained on %d, tested on %d, accuracy %.3f (train %.3f), AUC %.3f\n",
			w.Season, w.TrainSamples, w.TestMetrics.Samples, w.TestMetrics.Accuracy, w.TrainMetrics.Accuracy, w.TestMetrics.AUC))
	}
	builder.WriteString(fmt.Sprintf("Pooled accuracy: %.3f over %d matches\n", result.AggregatedMetrics.Accuracy, result.AggregatedMetrics.Samples))
	builder.WriteString(fmt.Sprintf("Consistency: %.2f\n", result.ConsistencyScore))
	builder.WriteString(fmt.Sprintf("Overfit Score: %.3f\n", result.OverfitScore))
	return builder.String()
}

// WriteOutcomesCSV writes one row per match: the canonical features, then
// actual, predicted and predicted_prob.
func WriteOutcomesCSV(outputPath string, outcomes []Outcome) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"match_id"}, features.Names...)
	header = append(header, "actual", "predicted", "predicted_prob")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, o := range outcomes {
		row := make([]string, 0, len(header))
		row = append(row, o.MatchID)
		for _, v := range o.Features {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		row = append(row,
			strconv.Itoa(o.Actual),
			strconv.Itoa(o.Predicted),
			strconv.FormatFloat(o.Probability, 'f', 6, 64),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
