package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// FeatureBuilder builds the leakage-free vector of a known match.
// features.Assembler implements it.
type FeatureBuilder interface {
	BuildForMatch(ctx context.Context, match *models.Match) (*features.Vector, error)
}

// Result is the outcome of a backtest run
type Result struct {
	ModelVersion string        `json:"model_version"`
	Metrics      Metrics       `json:"metrics"`
	Outcomes     []Outcome     `json:"-"`
	Duration     time.Duration `json:"duration"`
}

// Engine replays recent completed matches through an estimator
type Engine struct {
	matches   repository.MatchLedger
	builder   FeatureBuilder
	estimator ml.Estimator
	config    Config
	logger    *logrus.Entry
}

// NewEngine creates a backtest engine
func NewEngine(matches repository.MatchLedger, builder FeatureBuilder, estimator ml.Estimator, cfg Config, log *logrus.Logger) (*Engine, error) {
	if estimator == nil {
		return nil, ml.ErrEstimatorUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		matches:   matches,
		builder:   builder,
		estimator: estimator,
		config:    cfg,
		logger:    log.WithField("component", "backtest"),
	}, nil
}

// Run scores the configured number of most recent completed matches.
func (e *Engine) Run(ctx context.Context) (result *Result, err error) {
	defer func() { metrics.RecordBacktestRun("replay", err) }()
	start := time.Now()

	matches, err := e.matches.List(ctx, models.MatchFilter{
		FromYear:      e.config.FromYear,
		CompletedOnly: true,
		Limit:         e.config.Matches,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	outcomes, err := e.score(ctx, matches)
	if err != nil {
		return nil, err
	}

	result = &Result{
		ModelVersion: e.estimator.Version(),
		Metrics:      CalculateMetrics(outcomes),
		Outcomes:     outcomes,
		Duration:     time.Since(start),
	}
	metrics.RecordBacktestScores("replay", result.Metrics.Accuracy, result.Metrics.AUC, result.Metrics.BrierScore)
	e.logger.WithFields(logrus.Fields{
		"model_version": result.ModelVersion,
		"samples":       result.Metrics.Samples,
		"accuracy":      result.Metrics.Accuracy,
		"auc":           result.Metrics.AUC,
		"duration_ms":   result.Duration.Milliseconds(),
	}).Info("Backtest completed")

	if e.config.OutputPath != "" {
		if err := WriteOutcomesCSV(e.config.OutputPath, outcomes); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) score(ctx context.Context, matches []*models.Match) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.builder.BuildForMatch(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("failed to build features for %s: %w", m.ID, err)
		}
		p, err := e.estimator.Estimate(ctx, vec.Values)
		if err != nil {
			return nil, fmt.Errorf("estimate for %s: %w", m.ID, err)
		}
		if err := ml.CheckProbability(p); err != nil {
			return nil, fmt.Errorf("estimate for %s: %w", m.ID, err)
		}
		outcomes = append(outcomes, newOutcome(m, vec.Values, p, e.config.Threshold))
	}
	return outcomes, nil
}

func newOutcome(m *models.Match, values []float64, p, threshold float64) Outcome {
	o := Outcome{
		MatchID:     m.ID,
		Year:        m.Year,
		Round:       m.Round,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		Features:    values,
		Probability: p,
	}
	if p >= threshold {
		o.Predicted = 1
	}
	if m.HomeWon() {
		o.Actual = 1
	}
	return o
}
