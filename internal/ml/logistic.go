package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LogisticModel is a trained logistic regression over the canonical features.
type LogisticModel struct {
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	ModelVersion string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
}

// LoadLogisticModel reads a model file and checks it was trained on expected.
// A missing file yields ErrEstimatorUnavailable.
func LoadLogisticModel(path string, expected []string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model file %s: %w", path, ErrEstimatorUnavailable)
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	if err := m.check(expected); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LogisticModel) check(expected []string) error {
	if len(m.Weights) != len(m.FeatureNames) {
		return fmt.Errorf("%w: %d weights for %d features", ErrFeatureMismatch, len(m.Weights), len(m.FeatureNames))
	}
	if expected == nil {
		return nil
	}
	if len(expected) != len(m.FeatureNames) {
		return fmt.Errorf("%w: model has %d features, expected %d", ErrFeatureMismatch, len(m.FeatureNames), len(expected))
	}
	for i, name := range expected {
		if m.FeatureNames[i] != name {
			return fmt.Errorf("%w: position %d is %q, expected %q", ErrFeatureMismatch, i, m.FeatureNames[i], name)
		}
	}
	return nil
}

// Save writes the model as indented JSON, creating parent directories.
func (m *LogisticModel) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// Estimate implements Estimator.
func (m *LogisticModel) Estimate(_ context.Context, features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("%w: got %d values, model expects %d", ErrFeatureMismatch, len(features), len(m.Weights))
	}
	p := sigmoid(dot(m.Weights, features) + m.Bias)
	if err := CheckProbability(p); err != nil {
		return 0, err
	}
	return p, nil
}

// Version implements Estimator.
func (m *LogisticModel) Version() string {
	return m.ModelVersion
}
