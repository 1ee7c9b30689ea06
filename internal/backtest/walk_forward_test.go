package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/afl-predictor/internal/ml"
)

func TestRunWalkForward(t *testing.T) {
	store := seedSeasons(t, []int{2021, 2022, 2023, 2024}, 14)

	result, err := RunWalkForward(context.Background(), store, signalBuilder{}, WalkForwardConfig{
		FirstTestYear: 2022,
		Options:       ml.TrainOptions{Epochs: 500},
	})
	require.NoError(t, err)

	require.Len(t, result.Windows, 3)
	for i, w := range result.Windows {
		assert.Equal(t, 2022+i, w.Season)
		assert.Equal(t, 14*(i+1), w.TrainSamples, "trains only on earlier seasons")
		assert.Equal(t, 14, w.TestMetrics.Samples)
		assert.Equal(t, 1.0, w.TestMetrics.Accuracy)
		assert.Contains(t, w.ModelVersion, "walk-forward-")
	}
	assert.Equal(t, 42, result.AggregatedMetrics.Samples)
	assert.Equal(t, 1.0, result.ConsistencyScore)
	assert.InDelta(t, 0, result.OverfitScore, 1e-9)
	assert.Contains(t, result.ExportJSON(), `"season":2024`)
}

func TestRunWalkForwardBounds(t *testing.T) {
	store := seedSeasons(t, []int{2021, 2022, 2023}, 14)

	result, err := RunWalkForward(context.Background(), store, signalBuilder{}, WalkForwardConfig{
		LastTestYear: 2022,
		Options:      ml.TrainOptions{Epochs: 200},
	})
	require.NoError(t, err)
	require.Len(t, result.Windows, 1)
	assert.Equal(t, 2022, result.Windows[0].Season)

	_, err = RunWalkForward(context.Background(), store, signalBuilder{}, WalkForwardConfig{FirstTestYear: 2023, LastTestYear: 2022})
	assert.Error(t, err)
}

func TestRunWalkForwardNeedsTwoSeasons(t *testing.T) {
	store := seedSeasons(t, []int{2024}, 14)
	_, err := RunWalkForward(context.Background(), store, signalBuilder{}, WalkForwardConfig{})
	assert.ErrorIs(t, err, ml.ErrInsufficientData)
}

func TestWalkForwardSkipsSmallTrainingSets(t *testing.T) {
	store := seedSeasons(t, []int{2023, 2024}, 6)
	result, err := RunWalkForward(context.Background(), store, signalBuilder{}, WalkForwardConfig{})
	require.NoError(t, err)
	assert.Empty(t, result.Windows, "6 training matches is below the minimum")
	assert.Equal(t, 0.0, result.ConsistencyScore)
}
