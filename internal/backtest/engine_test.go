package backtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// signalBuilder puts +1 in the first feature when the home team won and -1
// otherwise, so any sensible model separates the classes.
type signalBuilder struct{}

func (signalBuilder) BuildForMatch(_ context.Context, m *models.Match) (*features.Vector, error) {
	values := make([]float64, len(features.Names))
	values[0] = -1
	if m.HomeWon() {
		values[0] = 1
	}
	values[len(values)-1] = float64(m.Round % 2)
	return &features.Vector{MatchID: m.ID, Values: values}, nil
}

type signEstimator struct{}

func (signEstimator) Estimate(_ context.Context, v []float64) (float64, error) {
	if v[0] > 0 {
		return 0.8, nil
	}
	return 0.3, nil
}

func (signEstimator) Version() string { return "sign" }

// seedSeasons stores rounds-per-season completed matches for each season plus
// one pending match.
func seedSeasons(t *testing.T, seasons []int, rounds int) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	var ms []*models.Match
	for _, year := range seasons {
		start := time.Date(year, time.March, 15, 0, 0, 0, 0, time.UTC)
		for r := 1; r <= rounds; r++ {
			m := &models.Match{
				ID:       fmt.Sprintf("%d-r%d", year, r),
				Year:     year,
				Round:    r,
				Date:     start.AddDate(0, 0, 7*(r-1)),
				HomeTeam: "Collingwood",
				AwayTeam: "Essendon",
				Venue:    "MCG",
				Winner:   "Collingwood",
			}
			if r%3 == 0 {
				m.Winner = "Essendon"
			}
			if r%7 == 0 {
				m.Winner = models.Draw
			}
			ms = append(ms, m)
		}
	}
	last := seasons[len(seasons)-1]
	ms = append(ms, &models.Match{
		ID: "pending", Year: last, Round: rounds + 1,
		Date:     time.Date(last, time.September, 1, 0, 0, 0, 0, time.UTC),
		HomeTeam: "Collingwood", AwayTeam: "Essendon", Venue: "MCG",
	})
	require.NoError(t, store.UpsertMatches(context.Background(), ms))
	return store
}

func TestEngineRun(t *testing.T) {
	store := seedSeasons(t, []int{2022, 2023}, 12)
	out := filepath.Join(t.TempDir(), "results", "backtest.csv")

	engine, err := NewEngine(store, signalBuilder{}, signEstimator{}, Config{Matches: 20, Threshold: 0.5, OutputPath: out}, quietLogger())
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sign", result.ModelVersion)
	assert.Equal(t, 20, result.Metrics.Samples, "limit applies and pending matches are skipped")
	assert.Equal(t, 1.0, result.Metrics.Accuracy)
	assert.Equal(t, 1.0, result.Metrics.AUC)
	assert.Equal(t, "2023-r12", result.Outcomes[0].MatchID, "most recent first")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 21)
	assert.Equal(t, "match_id", rows[0][0])
	assert.Equal(t, features.Names[0], rows[0][1])
	assert.Equal(t, "predicted_prob", rows[0][len(rows[0])-1])
	assert.Equal(t, "0.300000", rows[1][len(rows[1])-1], "2023-r12 is an away win")
}

func TestNewEngineValidation(t *testing.T) {
	store := repository.NewMemoryStore()

	_, err := NewEngine(store, signalBuilder{}, nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	_, err = NewEngine(store, signalBuilder{}, signEstimator{}, Config{Matches: 0, Threshold: 0.5}, nil)
	assert.Error(t, err)

	_, err = NewEngine(store, signalBuilder{}, signEstimator{}, Config{Matches: 5, Threshold: 1}, nil)
	assert.Error(t, err)
}

func TestEngineRejectsInvalidProbability(t *testing.T) {
	store := seedSeasons(t, []int{2023}, 3)
	engine, err := NewEngine(store, signalBuilder{}, badEstimator{}, DefaultConfig(), quietLogger())
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	assert.ErrorIs(t, err, ml.ErrInvalidPrediction)
}

type badEstimator struct{}

func (badEstimator) Estimate(context.Context, []float64) (float64, error) { return 1.4, nil }
func (badEstimator) Version() string                                      { return "bad" }
