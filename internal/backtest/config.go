// Package backtest scores an estimator against recorded match results.
package backtest

import (
	"fmt"

	"github.com/yourusername/afl-predictor/internal/ml"
)

// DefaultMatches is how many recent completed matches a backtest replays.
const DefaultMatches = 1000

// DefaultThreshold is the home-win probability at or above which the home
// team is the predicted winner.
const DefaultThreshold = 0.5

// Config configures a backtest run. OutputPath receives the per-match
// results CSV when set.
type Config struct {
	Matches    int
	FromYear   int
	Threshold  float64
	OutputPath string
}

// DefaultConfig returns the settings used when flags leave them unset
func DefaultConfig() Config {
	return Config{Matches: DefaultMatches, Threshold: DefaultThreshold}
}

// Validate validates backtest parameters
func (c Config) Validate() error {
	if c.Matches <= 0 {
		return fmt.Errorf("matches must be positive")
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	if c.FromYear < 0 {
		return fmt.Errorf("from year cannot be negative")
	}
	return nil
}

// WalkForwardConfig configures season-by-season retrain and test.
//
// FromYear is the first season admitted to any training set. FirstTestYear
// defaults to the second season with completed matches and LastTestYear to
// the latest. Seasons whose training set is smaller than MinTrainSamples are
// skipped.
type WalkForwardConfig struct {
	FromYear        int
	FirstTestYear   int
	LastTestYear    int
	MinTrainSamples int
	Threshold       float64
	Options         ml.TrainOptions
}

// Validate validates walk-forward parameters
func (c WalkForwardConfig) Validate() error {
	if c.FirstTestYear < 0 || c.LastTestYear < 0 || c.FromYear < 0 {
		return fmt.Errorf("years cannot be negative")
	}
	if c.LastTestYear > 0 && c.FirstTestYear > c.LastTestYear {
		return fmt.Errorf("first test year must not be after last test year")
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	return nil
}
