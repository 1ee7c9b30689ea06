package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// FeatureLogger provides dedicated logging for feature derivation.
type FeatureLogger struct {
	*logrus.Entry
}

// NewFeatureLogger creates a new feature logger.
func NewFeatureLogger(baseLogger *logrus.Logger) *FeatureLogger {
	return &FeatureLogger{
		Entry: baseLogger.WithField("component", "features"),
	}
}

// LogFeaturesBuilt logs a completed feature vector build.
func (fl *FeatureLogger) LogFeaturesBuilt(matchID string, homeHistory, awayHistory int, duration time.Duration) {
	fl.WithFields(logrus.Fields{
		"match_id":     matchID,
		"home_history": homeHistory,
		"away_history": awayHistory,
		"duration_ms":  float64(duration.Microseconds()) / 1000,
	}).Debug("Feature vector built")
}

// LogInsufficientHistory logs that defaults replaced a team's history.
func (fl *FeatureLogger) LogInsufficientHistory(team string, available, window int) {
	fl.WithFields(logrus.Fields{
		"team":      team,
		"available": available,
		"window":    window,
	}).Debug("Insufficient history, using defaults")
}

// LogMalformedCounter logs a stat counter skipped during aggregation.
func (fl *FeatureLogger) LogMalformedCounter(matchID, player, stat string, value int) {
	fl.WithFields(logrus.Fields{
		"match_id": matchID,
		"player":   player,
		"stat":     stat,
		"value":    value,
	}).Warn("Skipping malformed stat counter")
}

// LogCacheInvalidated logs a cache invalidation for a team.
func (fl *FeatureLogger) LogCacheInvalidated(team string, year, round, removed int) {
	fl.WithFields(logrus.Fields{
		"team":    team,
		"year":    year,
		"round":   round,
		"removed": removed,
	}).Debug("Feature cache invalidated")
}
