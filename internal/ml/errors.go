// Package ml provides the probability estimators that turn feature vectors
// into home-win probabilities.
package ml

import (
	"errors"
	"fmt"

	"github.com/yourusername/afl-predictor/internal/models"
)

var (
	// ErrEstimatorUnavailable indicates no usable model is loaded or reachable
	ErrEstimatorUnavailable = fmt.Errorf("estimator unavailable: %w", models.ErrModelUnavailable)

	// ErrInvalidPrediction indicates the estimator returned something that is not a probability
	ErrInvalidPrediction = errors.New("invalid prediction")

	// ErrFeatureMismatch indicates a model was trained on a different feature order
	ErrFeatureMismatch = errors.New("feature names do not match model")

	// ErrConnectionFailed indicates the remote estimator could not be reached
	ErrConnectionFailed = errors.New("estimator connection failed")

	// ErrCircuitOpen indicates the remote estimator circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrInsufficientData indicates there are too few samples to train
	ErrInsufficientData = errors.New("insufficient training data")
)
