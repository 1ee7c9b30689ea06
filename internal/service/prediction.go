// Package service composes the ledgers, feature assembler and estimator into
// the prediction, training and ingestion workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// PredictionService turns a match id into home and away win probabilities
type PredictionService struct {
	matches   repository.MatchLedger
	assembler *features.Assembler
	logger    *logger.PredictionLogger

	mu        sync.RWMutex
	estimator ml.Estimator
}

// NewPredictionService creates a prediction service. estimator may be nil, in
// which case Predict reports the model as unavailable until SetEstimator is called.
func NewPredictionService(matches repository.MatchLedger, assembler *features.Assembler, estimator ml.Estimator, log *logrus.Logger) *PredictionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PredictionService{
		matches:   matches,
		assembler: assembler,
		estimator: estimator,
		logger:    logger.NewPredictionLogger(log),
	}
}

// SetEstimator swaps the active estimator, for example after retraining.
func (s *PredictionService) SetEstimator(e ml.Estimator, kind string) {
	s.mu.Lock()
	s.estimator = e
	s.mu.Unlock()
	if e != nil {
		s.logger.LogModelLoaded(kind, e.Version())
	}
}

// Estimator returns the active estimator or nil.
func (s *PredictionService) Estimator() ml.Estimator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.estimator
}

// BuildFeatures returns the canonical feature vector for a match. It does not
// need an estimator.
func (s *PredictionService) BuildFeatures(ctx context.Context, matchID string) (*features.Vector, error) {
	return s.assembler.BuildFeatures(ctx, matchID)
}

// Predict estimates the match outcome. Errors wrap models.ErrNotFound for an
// unknown id and models.ErrModelUnavailable when no estimator can answer.
// The estimator is checked first, so an unknown id reports
// ErrModelUnavailable while no model is loaded.
func (s *PredictionService) Predict(ctx context.Context, matchID string) (*models.Prediction, error) {
	start := time.Now()
	pred, err := s.predict(ctx, matchID)
	if err != nil {
		metrics.RecordPrediction(predictionStatus(err))
		s.logger.LogPredictionError(matchID, err)
		return nil, err
	}
	metrics.RecordPrediction("success")
	s.logger.LogPrediction(matchID, pred.ModelVersion, pred.HomeWinProbability, time.Since(start))
	return pred, nil
}

func (s *PredictionService) predict(ctx context.Context, matchID string) (*models.Prediction, error) {
	est := s.Estimator()
	if est == nil {
		return nil, ml.ErrEstimatorUnavailable
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	vec, err := s.assembler.BuildForMatch(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to build features for %s: %w", matchID, err)
	}

	p, err := est.Estimate(ctx, vec.Values)
	if err != nil {
		return nil, fmt.Errorf("estimate for %s: %w", matchID, err)
	}
	if err := ml.CheckProbability(p); err != nil {
		return nil, err
	}

	return models.NewPrediction(match, p, vec.Map(), est.Version()), nil
}

func predictionStatus(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ml.ErrInvalidPrediction):
		return "invalid_prediction"
	default:
		return "error"
	}
}
