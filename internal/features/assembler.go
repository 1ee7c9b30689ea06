package features

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// Assembler builds the canonical feature vector for a match using only
// history strictly before the match's chronological key.
type Assembler struct {
	matches repository.MatchLedger
	stats   *StatAggregator
	grounds *HomeGrounds
	cache   Cache
	window  int
	log     *logger.FeatureLogger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithCache memoizes team snapshots in c.
func WithCache(c Cache) Option {
	return func(a *Assembler) { a.cache = c }
}

// WithWindow overrides DefaultWindow.
func WithWindow(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.window = n
		}
	}
}

// WithHomeGrounds replaces the default home-ground lookup.
func WithHomeGrounds(hg *HomeGrounds) Option {
	return func(a *Assembler) { a.grounds = hg }
}

// WithLogger attaches a feature logger.
func WithLogger(l *logger.FeatureLogger) Option {
	return func(a *Assembler) { a.log = l }
}

// NewAssembler creates an assembler over the two ledgers.
func NewAssembler(matches repository.MatchLedger, stats repository.PlayerPerformanceLedger, opts ...Option) *Assembler {
	a := &Assembler{
		matches: matches,
		grounds: NewHomeGrounds(nil),
		window:  DefaultWindow,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.stats = NewStatAggregator(matches, stats, a.log)
	return a
}

// Window returns the configured window size.
func (a *Assembler) Window() int {
	return a.window
}

// BuildFeatures returns the feature vector for matchID, or an error wrapping
// models.ErrNotFound when the match does not exist. Teams without enough
// history get neutral defaults rather than an error.
func (a *Assembler) BuildFeatures(ctx context.Context, matchID string) (*Vector, error) {
	start := time.Now()

	match, err := a.matches.GetByID(ctx, matchID)
	if err != nil {
		metrics.RecordFeatureBuild("error", time.Since(start))
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}

	vec, homeN, awayN, err := a.build(ctx, match)
	if err != nil {
		metrics.RecordFeatureBuild("error", time.Since(start))
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.RecordFeatureBuild("success", elapsed)
	if a.log != nil {
		a.log.LogFeaturesBuilt(matchID, homeN, awayN, elapsed)
	}
	return vec, nil
}

// BuildForMatch builds features for an already loaded match.
func (a *Assembler) BuildForMatch(ctx context.Context, match *models.Match) (*Vector, error) {
	vec, _, _, err := a.build(ctx, match)
	return vec, err
}

func (a *Assembler) build(ctx context.Context, match *models.Match) (*Vector, int, int, error) {
	ref := match.Key()

	home, err := a.snapshot(ctx, match.HomeTeam, ref)
	if err != nil {
		return nil, 0, 0, err
	}
	away, err := a.snapshot(ctx, match.AwayTeam, ref)
	if err != nil {
		return nil, 0, 0, err
	}

	values := make([]float64, 0, len(Names))
	values = append(values, home.Form, away.Form)
	for _, s := range models.TrackedStats {
		values = append(values, home.Averages.Get(s))
	}
	for _, s := range models.TrackedStats {
		values = append(values, away.Averages.Get(s))
	}
	advantage := 0.0
	if a.grounds.IsHomeGround(match.HomeTeam, match.Venue) {
		advantage = 1
	}
	values = append(values, advantage)

	return &Vector{MatchID: match.ID, Values: values}, home.Matches, away.Matches, nil
}

// snapshot derives form and averages for team from a single window fetch.
func (a *Assembler) snapshot(ctx context.Context, team string, ref models.ChronoKey) (*TeamSnapshot, error) {
	key := CacheKey{Team: team, Ref: ref, Window: a.window}
	if a.cache != nil {
		if snap, ok := a.cache.Get(ctx, key); ok {
			return snap, nil
		}
	}

	window, err := priorWindow(ctx, a.matches, team, ref, a.window)
	if err != nil {
		return nil, err
	}
	if len(window) < a.window && a.log != nil {
		a.log.LogInsufficientHistory(team, len(window), a.window)
	}

	averages, err := a.stats.averagesFor(ctx, team, window)
	if err != nil {
		return nil, err
	}

	snap := &TeamSnapshot{
		Form:     WinFraction(team, window),
		Averages: averages,
		Matches:  len(window),
	}
	if a.cache != nil {
		a.cache.Set(ctx, key, snap)
	}
	return snap, nil
}

// Invalidate drops cached snapshots that a record for team at key could affect.
func (a *Assembler) Invalidate(ctx context.Context, team string, at models.ChronoKey) int {
	if a.cache == nil {
		return 0
	}
	removed := a.cache.Invalidate(ctx, team, at)
	if a.log != nil && removed > 0 {
		a.log.LogCacheInvalidated(team, at.Year, at.Round, removed)
	}
	return removed
}
