package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// WalkForwardWindow is one season scored by a model trained on every
// earlier season
type WalkForwardWindow struct {
	Season       int     `json:"season"`
	ModelVersion string  `json:"model_version"`
	TrainSamples int     `json:"train_samples"`
	TrainLoss    float64 `json:"train_loss"`
	TrainMetrics Metrics `json:"train_metrics"`
	TestMetrics  Metrics `json:"test_metrics"`
}

// WalkForwardResult represents walk-forward evaluation result
type WalkForwardResult struct {
	Windows           []WalkForwardWindow `json:"windows"`
	AggregatedMetrics Metrics             `json:"aggregated_metrics"`
	ConsistencyScore  float64             `json:"consistency_score"`
	OverfitScore      float64             `json:"overfit_score"`
}

type sample struct {
	match  *models.Match
	values []float64
	label  float64
}

// RunWalkForward retrains the logistic model before each test season on all
// completed matches of earlier seasons and scores the season with it.
func RunWalkForward(ctx context.Context, ledger repository.MatchLedger, builder FeatureBuilder, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if err := cfg.Validate(); err != nil {
		return WalkForwardResult{}, err
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MinTrainSamples < ml.MinTrainingSamples {
		cfg.MinTrainSamples = ml.MinTrainingSamples
	}

	matches, err := ledger.List(ctx, models.MatchFilter{FromYear: cfg.FromYear, CompletedOnly: true})
	if err != nil {
		return WalkForwardResult{}, fmt.Errorf("failed to list matches: %w", err)
	}

	bySeason := make(map[int][]sample)
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}
		vec, err := builder.BuildForMatch(ctx, m)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("failed to build features for %s: %w", m.ID, err)
		}
		label := 0.0
		if m.HomeWon() {
			label = 1
		}
		bySeason[m.Year] = append(bySeason[m.Year], sample{match: m, values: vec.Values, label: label})
	}

	seasons := make([]int, 0, len(bySeason))
	for y := range bySeason {
		seasons = append(seasons, y)
	}
	sort.Ints(seasons)
	if len(seasons) < 2 {
		return WalkForwardResult{}, fmt.Errorf("%w: walk-forward needs at least two seasons", ml.ErrInsufficientData)
	}

	first, last := cfg.FirstTestYear, cfg.LastTestYear
	if first == 0 {
		first = seasons[1]
	}
	if last == 0 {
		last = seasons[len(seasons)-1]
	}

	var windows []WalkForwardWindow
	var pooled []Outcome
	var train []sample
	for _, season := range seasons {
		if season >= first && season <= last && len(train) >= cfg.MinTrainSamples {
			window, outcomes, err := runWindow(season, train, bySeason[season], cfg)
			if err != nil {
				return WalkForwardResult{}, err
			}
			windows = append(windows, window)
			pooled = append(pooled, outcomes...)
		}
		train = append(train, bySeason[season]...)
	}

	result := WalkForwardResult{
		Windows:           windows,
		AggregatedMetrics: CalculateMetrics(pooled),
		ConsistencyScore:  CalculateConsistency(windows),
		OverfitScore:      calculateOverfitScore(windows),
	}
	metrics.RecordBacktestRun("walk_forward", nil)
	agg := result.AggregatedMetrics
	metrics.RecordBacktestScores("walk_forward", agg.Accuracy, agg.AUC, agg.BrierScore)
	return result, nil
}

func runWindow(season int, train, test []sample, cfg WalkForwardConfig) (WalkForwardWindow, []Outcome, error) {
	samples := make([][]float64, len(train))
	labels := make([]float64, len(train))
	for i, s := range train {
		samples[i] = s.values
		labels[i] = s.label
	}

	opts := cfg.Options
	if opts.Version == "" {
		opts.Version = fmt.Sprintf("walk-forward-%d", season)
	}
	model, loss, err := ml.TrainLogistic(features.Names, samples, labels, opts)
	if err != nil {
		return WalkForwardWindow{}, nil, fmt.Errorf("season %d: %w", season, err)
	}

	trainOutcomes := predictAll(model, train, cfg.Threshold)
	testOutcomes := predictAll(model, test, cfg.Threshold)
	return WalkForwardWindow{
		Season:       season,
		ModelVersion: model.Version(),
		TrainSamples: len(train),
		TrainLoss:    loss,
		TrainMetrics: CalculateMetrics(trainOutcomes),
		TestMetrics:  CalculateMetrics(testOutcomes),
	}, testOutcomes, nil
}

func predictAll(model *ml.LogisticModel, samples []sample, threshold float64) []Outcome {
	out := make([]Outcome, 0, len(samples))
	for _, s := range samples {
		// Widths were checked by TrainLogistic.
		p, _ := model.Estimate(context.Background(), s.values)
		out = append(out, newOutcome(s.match, s.values, p, threshold))
	}
	return out
}

// CalculateConsistency returns the fraction of seasons where the model beat
// always picking the more frequent result.
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	beat := 0
	for _, w := range windows {
		if w.TestMetrics.Accuracy > w.TestMetrics.BaselineAccuracy() {
			beat++
		}
	}
	return float64(beat) / float64(len(windows))
}

// calculateOverfitScore is the relative drop from mean train accuracy to mean
// test accuracy.
func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	trainAcc, testAcc := 0.0, 0.0
	for _, w := range windows {
		trainAcc += w.TrainMetrics.Accuracy
		testAcc += w.TestMetrics.Accuracy
	}
	if trainAcc == 0 {
		return 0
	}
	return (trainAcc - testAcc) / trainAcc
}

// ExportJSON renders the walk-forward result for downstream tooling
func (w WalkForwardResult) ExportJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}
