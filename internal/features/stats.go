package features

import (
	"context"
	"fmt"

	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// StatAverages holds a team's rolling mean per tracked statistic. Statistics
// with no contributing rows are zero.
type StatAverages map[models.Stat]float64

// Get returns the average for stat, zero when absent.
func (a StatAverages) Get(stat models.Stat) float64 {
	return a[stat]
}

// StatAggregator computes rolling per-team averages of player statistics.
type StatAggregator struct {
	matches repository.MatchLedger
	stats   repository.PlayerPerformanceLedger
	log     *logger.FeatureLogger
}

// NewStatAggregator creates a stat aggregator. log may be nil.
func NewStatAggregator(matches repository.MatchLedger, stats repository.PlayerPerformanceLedger, log *logger.FeatureLogger) *StatAggregator {
	return &StatAggregator{matches: matches, stats: stats, log: log}
}

// RecentAverages averages every player row of team across the same window
// FormCalculator uses.
func (sa *StatAggregator) RecentAverages(ctx context.Context, team string, ref models.ChronoKey, window int) (StatAverages, error) {
	prior, err := priorWindow(ctx, sa.matches, team, ref, window)
	if err != nil {
		return nil, err
	}
	return sa.averagesFor(ctx, team, prior)
}

// averagesFor issues one batched query for the window's match ids and takes a
// flat mean per statistic over all rows. Missing counters are left out of that
// statistic's mean; negative counters are skipped and reported.
func (sa *StatAggregator) averagesFor(ctx context.Context, team string, window []*models.Match) (StatAverages, error) {
	avg := make(StatAverages, len(models.TrackedStats))
	for _, s := range models.TrackedStats {
		avg[s] = 0
	}
	if len(window) == 0 {
		return avg, nil
	}

	ids := make([]string, len(window))
	inWindow := make(map[string]struct{}, len(window))
	for i, m := range window {
		ids[i] = m.ID
		inWindow[m.ID] = struct{}{}
	}

	lines, err := sa.stats.StatLinesForTeam(ctx, team, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat lines for %s: %w", team, err)
	}

	sums := make(map[models.Stat]int, len(models.TrackedStats))
	counts := make(map[models.Stat]int, len(models.TrackedStats))
	for _, line := range lines {
		if _, ok := inWindow[line.MatchID]; !ok || line.Team != team {
			continue
		}
		for _, s := range models.TrackedStats {
			v := line.Counter(s)
			if v == nil {
				continue
			}
			if *v < 0 {
				metrics.RecordMalformedCounter(string(s))
				if sa.log != nil {
					sa.log.LogMalformedCounter(line.MatchID, line.Player, string(s), *v)
				}
				continue
			}
			sums[s] += *v
			counts[s]++
		}
	}

	for _, s := range models.TrackedStats {
		if counts[s] > 0 {
			avg[s] = float64(sums[s]) / float64(counts[s])
		}
	}
	return avg, nil
}
