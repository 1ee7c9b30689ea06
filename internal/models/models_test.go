package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestChronoKeyOrdering(t *testing.T) {
	r1 := ChronoKey{Year: 2024, Round: 1, Date: day("2024-03-14")}
	r2 := ChronoKey{Year: 2024, Round: 2, Date: day("2024-03-10")}
	r2Later := ChronoKey{Year: 2024, Round: 2, Date: day("2024-03-11")}
	prevYear := ChronoKey{Year: 2023, Round: 24, Date: day("2023-09-30")}

	assert.True(t, r1.Before(r2), "round beats date")
	assert.True(t, r2.Before(r2Later), "date breaks round ties")
	assert.True(t, prevYear.Before(r1), "year beats round")
	assert.False(t, r1.Before(r1), "equal keys are not before")
	assert.Equal(t, 0, r1.Compare(r1))
	assert.Equal(t, 1, r2.Compare(r1))
}

func TestChronoKeyIgnoresTimeOfDay(t *testing.T) {
	a := ChronoKey{Year: 2024, Round: 5, Date: time.Date(2024, 4, 12, 19, 40, 0, 0, time.UTC)}
	b := ChronoKey{Year: 2024, Round: 5, Date: time.Date(2024, 4, 12, 13, 10, 0, 0, time.UTC)}
	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, "2024-R05-2024-04-12", a.String())
}

func TestMatchValidate(t *testing.T) {
	m := &Match{ID: "m1", HomeTeam: "Geelong", AwayTeam: "Carlton", Winner: "Geelong"}
	require.NoError(t, m.Validate())
	assert.True(t, m.HomeWon())
	assert.True(t, m.WonBy("Geelong"))
	assert.False(t, m.WonBy("Carlton"))

	m.Winner = "Richmond"
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))

	m.Winner = Draw
	require.NoError(t, m.Validate())
	assert.True(t, m.IsCompleted())
	assert.True(t, m.IsDraw())
	assert.False(t, m.HomeWon())
	assert.False(t, m.WonBy("Geelong"))
	assert.False(t, m.WonBy(Draw))
}

func TestPlayerStatLineCounters(t *testing.T) {
	line := &PlayerStatLine{MatchID: "m1", Player: "p", Team: "Geelong"}
	for _, s := range TrackedStats {
		assert.Nil(t, line.Counter(s))
	}

	line.SetCounter(StatHitouts, IntPtr(31))
	require.NotNil(t, line.Counter(StatHitouts))
	assert.Equal(t, 31, *line.Counter(StatHitouts))
	assert.Nil(t, line.Counter(Stat("bounces")))
}

func TestNewPredictionComplementary(t *testing.T) {
	m := &Match{ID: "m1", HomeTeam: "Geelong", AwayTeam: "Carlton"}
	p := NewPrediction(m, 0.625, nil, "v1")

	assert.InDelta(t, 1.0, p.HomeWinProbability+p.AwayWinProbability, 1e-12)
	assert.Equal(t, "1.6", p.HomeFairOdds.String())
	assert.Equal(t, "2.67", p.AwayFairOdds.String())
	assert.Equal(t, "Geelong", p.Favourite())
	assert.True(t, FairOdds(0).IsZero())
}
