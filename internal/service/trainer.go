package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// DefaultTrainingFromYear is the first season used for training.
const DefaultTrainingFromYear = 2010

// TrainerConfig configures a training run
type TrainerConfig struct {
	FromYear  int
	ModelPath string
	Options   ml.TrainOptions
}

// TrainingReport summarizes a training run
type TrainingReport struct {
	Samples      int
	HomeWins     int
	FinalLoss    float64
	ModelVersion string
	ModelPath    string
	Duration     time.Duration
}

// Trainer fits a logistic model on completed matches using the same feature
// assembler that serves predictions.
type Trainer struct {
	matches   repository.MatchLedger
	assembler *features.Assembler
	cfg       TrainerConfig
	logger    *logger.PredictionLogger
}

// NewTrainer creates a trainer
func NewTrainer(matches repository.MatchLedger, assembler *features.Assembler, cfg TrainerConfig, log *logrus.Logger) *Trainer {
	if cfg.FromYear <= 0 {
		cfg.FromYear = DefaultTrainingFromYear
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Trainer{
		matches:   matches,
		assembler: assembler,
		cfg:       cfg,
		logger:    logger.NewPredictionLogger(log),
	}
}

// Train builds one sample per completed match, labelled 1 when the home team
// won, fits the model and saves it when a model path is configured.
func (t *Trainer) Train(ctx context.Context) (*ml.LogisticModel, *TrainingReport, error) {
	start := time.Now()

	matches, err := t.matches.List(ctx, models.MatchFilter{FromYear: t.cfg.FromYear, CompletedOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list training matches: %w", err)
	}

	report := &TrainingReport{ModelPath: t.cfg.ModelPath}
	samples := make([][]float64, 0, len(matches))
	labels := make([]float64, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		vec, err := t.assembler.BuildForMatch(ctx, m)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build features for %s: %w", m.ID, err)
		}
		label := 0.0
		if m.HomeWon() {
			label = 1
			report.HomeWins++
		}
		samples = append(samples, vec.Values)
		labels = append(labels, label)
	}
	report.Samples = len(samples)

	model, loss, err := ml.TrainLogistic(features.Names, samples, labels, t.cfg.Options)
	if err != nil {
		return nil, report, fmt.Errorf("training failed: %w", err)
	}
	report.FinalLoss = loss
	report.ModelVersion = model.Version()

	if t.cfg.ModelPath != "" {
		if err := model.Save(t.cfg.ModelPath); err != nil {
			return nil, report, err
		}
	}

	report.Duration = time.Since(start)
	metrics.RecordModelTraining(report.Duration)
	t.logger.LogModelTraining(report.ModelVersion, report.Samples, report.Duration, loss)
	return model, report, nil
}
