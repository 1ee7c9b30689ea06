package ml

import (
	"context"
	"fmt"
	"math"
)

// Estimator maps a canonical feature vector to P(home team wins).
type Estimator interface {
	Estimate(ctx context.Context, features []float64) (float64, error)
	Version() string
}

// Kind labels used in metrics and logs.
const (
	KindLogistic = "logistic"
	KindHTTP     = "http"
)

// CheckProbability rejects NaN, infinities and values outside [0, 1].
func CheckProbability(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidPrediction, p)
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z > 35 {
		return 1.0
	}
	if z < -35 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
