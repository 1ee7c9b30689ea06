package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

var seasonStart = time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	store *repository.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, store: repository.NewMemoryStore()}
}

// match adds a 2024 match in round r. winner may be empty for a scheduled match.
func (f *fixture) match(id string, round int, home, away, winner, venue string) *models.Match {
	f.t.Helper()
	m := &models.Match{
		ID: id, Year: 2024, Round: round, Date: seasonStart.AddDate(0, 0, 7*(round-1)),
		HomeTeam: home, AwayTeam: away, Winner: winner, Venue: venue,
	}
	require.NoError(f.t, f.store.UpsertMatches(context.Background(), []*models.Match{m}))
	return m
}

func (f *fixture) line(matchID, player, team string, set func(*models.PlayerStatLine)) {
	f.t.Helper()
	l := &models.PlayerStatLine{MatchID: matchID, Player: player, Team: team}
	set(l)
	require.NoError(f.t, f.store.UpsertStatLines(context.Background(), []*models.PlayerStatLine{l}))
}

func (f *fixture) assembler(opts ...Option) *Assembler {
	return NewAssembler(f.store, f.store, opts...)
}

func value(t *testing.T, v *Vector, name string) float64 {
	t.Helper()
	x, ok := v.Value(name)
	require.True(t, ok, "feature %s missing", name)
	return x
}

func TestNamesCanonicalOrder(t *testing.T) {
	require.Len(t, Names, 15)
	assert.Equal(t, HomeRecentForm, Names[0])
	assert.Equal(t, AwayRecentForm, Names[1])
	assert.Equal(t, "home_avg_kicks", Names[2])
	assert.Equal(t, "home_avg_tackles", Names[7])
	assert.Equal(t, "away_avg_kicks", Names[8])
	assert.Equal(t, "away_avg_tackles", Names[13])
	assert.Equal(t, IsHomeAdvantage, Names[14])

	assert.True(t, SameNames(append([]string(nil), Names...)))
	assert.False(t, SameNames(Names[:14]))
}

func TestRecentFormOrdering(t *testing.T) {
	f := newFixture(t)
	// Inserted out of order on purpose.
	target := f.match("r3", 3, "Geelong", "Carlton", "", "GMHBA Stadium")
	f.match("r2", 2, "Richmond", "Geelong", "Richmond", "MCG")
	f.match("r1", 1, "Geelong", "Sydney", "Geelong", "GMHBA Stadium")

	form, err := NewFormCalculator(f.store).RecentForm(context.Background(), "Geelong", target.Key(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, form)
}

func TestRecentFormWindowBound(t *testing.T) {
	f := newFixture(t)
	// 20 prior matches with 12 wins; the five most recent hold two wins.
	results := []bool{
		true, true, true, false, true, true, true, false, true, true,
		false, false, true, true, false,
		true, false, false, true, false,
	}
	wins := 0
	for i, won := range results {
		winner := "Sydney"
		if won {
			winner = "Geelong"
			wins++
		}
		f.match(fmt.Sprintf("m%02d", i+1), i+1, "Geelong", "Sydney", winner, "GMHBA Stadium")
	}
	require.Equal(t, 12, wins)
	target := f.match("target", 21, "Geelong", "Sydney", "", "GMHBA Stadium")

	calc := NewFormCalculator(f.store)
	form, err := calc.RecentForm(context.Background(), "Geelong", target.Key(), 5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/5.0, form, 1e-12)

	all, err := calc.RecentForm(context.Background(), "Geelong", target.Key(), 100)
	require.NoError(t, err)
	assert.InDelta(t, 12.0/20.0, all, 1e-12)
}

func TestRecentFormDefaultsAndPartialWindow(t *testing.T) {
	f := newFixture(t)
	first := f.match("r1", 1, "Geelong", "Carlton", "Carlton", "GMHBA Stadium")
	target := f.match("r2", 2, "Geelong", "Carlton", "", "GMHBA Stadium")
	calc := NewFormCalculator(f.store)

	form, err := calc.RecentForm(context.Background(), "Geelong", first.Key(), 5)
	require.NoError(t, err)
	assert.Equal(t, NeutralForm, form)

	form, err = calc.RecentForm(context.Background(), "Carlton", target.Key(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, form, "divisor is the number of matches found")
}

func TestRecentFormExcludesPendingAndSameRound(t *testing.T) {
	f := newFixture(t)
	f.match("r1", 1, "Geelong", "Carlton", "Geelong", "GMHBA Stadium")
	f.match("r2-pending", 2, "Geelong", "Sydney", "", "SCG")
	target := f.match("r3", 3, "Geelong", "Carlton", "", "GMHBA Stadium")
	// Same year and round as the target but a later date.
	require.NoError(t, f.store.UpsertMatches(context.Background(), []*models.Match{{
		ID: "r3-later", Year: 2024, Round: 3, Date: target.Date.AddDate(0, 0, 1),
		HomeTeam: "Sydney", AwayTeam: "Geelong", Winner: "Sydney",
	}}))

	form, err := NewFormCalculator(f.store).RecentForm(context.Background(), "Geelong", target.Key(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, form)
}

func TestRecentAveragesFlatMean(t *testing.T) {
	f := newFixture(t)
	f.match("r1", 1, "Geelong", "Carlton", "Geelong", "GMHBA Stadium")
	f.match("r2", 2, "Carlton", "Geelong", "Carlton", "MCG")
	target := f.match("r3", 3, "Geelong", "Carlton", "", "GMHBA Stadium")

	f.line("r1", "a", "Geelong", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(10); l.Goals = models.IntPtr(1) })
	f.line("r1", "b", "Geelong", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(20) })
	f.line("r2", "a", "Geelong", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(30); l.Tackles = models.IntPtr(-4) })
	f.line("r2", "z", "Carlton", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(99) })
	// At the target match itself, must never count.
	f.line("r3", "a", "Geelong", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(1000) })

	agg := NewStatAggregator(f.store, f.store, nil)
	avg, err := agg.RecentAverages(context.Background(), "Geelong", target.Key(), 5)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, avg.Get(models.StatKicks), 1e-12)
	assert.InDelta(t, 1.0, avg.Get(models.StatGoals), 1e-12, "absent counters are not zeros")
	assert.Equal(t, 0.0, avg.Get(models.StatTackles), "negative counter skipped, no other rows")
	assert.Equal(t, 0.0, avg.Get(models.StatHitouts))
	assert.Equal(t, 1, f.store.StatQueries(), "one batched query per window")
}

func TestBuildFeaturesUnknownMatch(t *testing.T) {
	f := newFixture(t)
	vec, err := f.assembler().BuildFeatures(context.Background(), "missing")
	assert.Nil(t, vec)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestBuildFeaturesDefaultFallback(t *testing.T) {
	f := newFixture(t)
	f.match("r1", 1, "Gold Coast", "West Coast", "", "People First Stadium")

	vec, err := f.assembler().BuildFeatures(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, vec.Values, len(Names))

	assert.Equal(t, NeutralForm, value(t, vec, HomeRecentForm))
	assert.Equal(t, NeutralForm, value(t, vec, AwayRecentForm))
	for _, side := range []string{"home", "away"} {
		for _, s := range models.TrackedStats {
			assert.Equal(t, 0.0, value(t, vec, AverageName(side, s)))
		}
	}
	assert.Equal(t, 1.0, value(t, vec, IsHomeAdvantage))
}

func TestBuildFeaturesVenueIndicator(t *testing.T) {
	f := newFixture(t)
	f.match("home", 1, "Geelong", "Carlton", "", "GMHBA Stadium")
	f.match("away-ground", 2, "Geelong", "Carlton", "", "MCG")
	f.match("spacing", 3, "Carlton", "Geelong", "", "  marvel   stadium ")
	a := f.assembler()

	for id, want := range map[string]float64{"home": 1, "away-ground": 0, "spacing": 1} {
		vec, err := a.BuildFeatures(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, value(t, vec, IsHomeAdvantage), id)
	}
}

func TestBuildFeaturesHomeGroundOverride(t *testing.T) {
	f := newFixture(t)
	f.match("r1", 1, "Geelong", "Carlton", "", "MCG")

	vec, err := f.assembler(WithHomeGrounds(NewHomeGrounds(map[string][]string{"geelong": {"MCG"}}))).
		BuildFeatures(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, value(t, vec, IsHomeAdvantage))
}

func seedSeason(f *fixture) {
	f.match("r1", 1, "Geelong", "Carlton", "Geelong", "GMHBA Stadium")
	f.match("r2", 2, "Carlton", "Geelong", "Carlton", "MCG")
	f.match("r3", 3, "Geelong", "Sydney", "Geelong", "GMHBA Stadium")
	f.match("r4", 4, "Sydney", "Carlton", "Sydney", "SCG")
	f.match("r5", 5, "Geelong", "Carlton", "", "GMHBA Stadium")
	for _, id := range []string{"r1", "r2", "r3"} {
		f.line(id, "Dangerfield", "Geelong", func(l *models.PlayerStatLine) {
			l.Kicks, l.Marks, l.Disposals = models.IntPtr(14), models.IntPtr(5), models.IntPtr(27)
		})
	}
	for _, id := range []string{"r1", "r2", "r4"} {
		f.line(id, "Cripps", "Carlton", func(l *models.PlayerStatLine) {
			l.Kicks, l.Tackles, l.Hitouts = models.IntPtr(11), models.IntPtr(7), models.IntPtr(0)
		})
	}
}

func TestBuildFeaturesDeterministic(t *testing.T) {
	f := newFixture(t)
	seedSeason(f)
	a := f.assembler()

	first, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	second, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.InDelta(t, 2.0/3.0, value(t, first, HomeRecentForm), 1e-12)
	assert.InDelta(t, 1.0/3.0, value(t, first, AwayRecentForm), 1e-12)
	assert.Equal(t, 14.0, value(t, first, "home_avg_kicks"))
	assert.Equal(t, 7.0, value(t, first, "away_avg_tackles"))
	assert.Equal(t, 0.0, value(t, first, "away_avg_hitouts"))
}

func TestBuildFeaturesNoLeakage(t *testing.T) {
	f := newFixture(t)
	seedSeason(f)
	a := f.assembler()

	before, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)

	// Record the target's own result, its stat lines, and later matches.
	f.match("r5", 5, "Geelong", "Carlton", "Carlton", "GMHBA Stadium")
	f.line("r5", "Dangerfield", "Geelong", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(40) })
	f.match("r6", 6, "Carlton", "Geelong", "Geelong", "MCG")
	f.line("r6", "Cripps", "Carlton", func(l *models.PlayerStatLine) { l.Kicks = models.IntPtr(40) })

	after, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	assert.Equal(t, before.Values, after.Values)
}

func TestBuildFeaturesUsesCacheAndInvalidates(t *testing.T) {
	f := newFixture(t)
	seedSeason(f)
	cache := NewMemoryCache(0)
	a := f.assembler(WithCache(cache), WithWindow(5))

	first, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.ItemCount())
	queries := f.store.StatQueries()

	again, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	assert.Equal(t, first.Values, again.Values)
	assert.Equal(t, queries, f.store.StatQueries(), "served from cache")
	hits, _, _ := cache.Stats()
	assert.Equal(t, uint64(2), hits)

	// A late correction to round 4 changes Carlton's history before r5.
	r4 := f.match("r4", 4, "Sydney", "Carlton", "Carlton", "SCG")
	assert.Equal(t, 0, a.Invalidate(context.Background(), "Geelong", models.ChronoKey{Year: 2024, Round: 6}))
	assert.Equal(t, 1, a.Invalidate(context.Background(), "Carlton", r4.Key()))

	updated, err := a.BuildFeatures(context.Background(), "r5")
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, value(t, updated, AwayRecentForm), 1e-12)
	assert.Equal(t, value(t, first, HomeRecentForm), value(t, updated, HomeRecentForm))
}

func TestHomeGroundsUnknownTeam(t *testing.T) {
	hg := NewHomeGrounds(nil)
	assert.False(t, hg.IsHomeGround("Fitzroy", "Brunswick Street Oval"))
	assert.True(t, hg.IsHomeGround("carlton", "MARVEL STADIUM"))
	assert.False(t, hg.IsHomeGround("Geelong", "MCG"))
}
