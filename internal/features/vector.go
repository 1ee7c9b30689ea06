// Package features derives leakage-free feature vectors from the match ledgers.
package features

import (
	"fmt"

	"github.com/yourusername/afl-predictor/internal/models"
)

// Canonical feature names.
const (
	HomeRecentForm  = "home_team_recent_form"
	AwayRecentForm  = "away_team_recent_form"
	IsHomeAdvantage = "is_home_advantage"
)

// Names is the canonical feature order shared by vector construction and
// every estimator. Changing it invalidates trained models.
var Names = buildNames()

func buildNames() []string {
	names := []string{HomeRecentForm, AwayRecentForm}
	for _, side := range []string{"home", "away"} {
		for _, s := range models.TrackedStats {
			names = append(names, AverageName(side, s))
		}
	}
	return append(names, IsHomeAdvantage)
}

// AverageName returns the feature name of a side's rolling average for stat.
func AverageName(side string, stat models.Stat) string {
	return fmt.Sprintf("%s_avg_%s", side, stat)
}

// Vector is a fully populated feature vector in canonical order.
type Vector struct {
	MatchID string    `json:"match_id"`
	Values  []float64 `json:"values"`
}

// Value returns the named feature, or false when the name is not canonical.
func (v *Vector) Value(name string) (float64, bool) {
	for i, n := range Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by feature name.
func (v *Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(Names))
	for i, n := range Names {
		out[n] = v.Values[i]
	}
	return out
}

// SameNames reports whether names matches the canonical order exactly.
func SameNames(names []string) bool {
	if len(names) != len(Names) {
		return false
	}
	for i := range names {
		if names[i] != Names[i] {
			return false
		}
	}
	return true
}
