package features

import (
	"context"
	"fmt"

	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// DefaultWindow is the number of prior matches considered when none is configured.
const DefaultWindow = 5

// NeutralForm is the form reported for a team with no prior completed matches.
const NeutralForm = 0.5

// FormCalculator computes a team's recent win rate as of a reference point.
type FormCalculator struct {
	matches repository.MatchLedger
}

// NewFormCalculator creates a form calculator over the match ledger.
func NewFormCalculator(matches repository.MatchLedger) *FormCalculator {
	return &FormCalculator{matches: matches}
}

// RecentForm returns the fraction of wins among the team's last window
// completed matches strictly before ref. The divisor is the number of matches
// actually found, so a team with two prior matches is judged on those two.
// No prior matches yields NeutralForm.
func (fc *FormCalculator) RecentForm(ctx context.Context, team string, ref models.ChronoKey, window int) (float64, error) {
	prior, err := priorWindow(ctx, fc.matches, team, ref, window)
	if err != nil {
		return 0, err
	}
	return WinFraction(team, prior), nil
}

// WinFraction returns wins over len(matches), or NeutralForm for an empty window.
func WinFraction(team string, matches []*models.Match) float64 {
	if len(matches) == 0 {
		return NeutralForm
	}
	wins := 0
	for _, m := range matches {
		if m.WonBy(team) {
			wins++
		}
	}
	return float64(wins) / float64(len(matches))
}

// priorWindow fetches the window and re-checks the ledger's contract so a
// misbehaving ledger cannot leak the target match or later ones.
func priorWindow(ctx context.Context, ledger repository.MatchLedger, team string, ref models.ChronoKey, window int) ([]*models.Match, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	prior, err := ledger.PriorMatches(ctx, team, ref, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior matches for %s: %w", team, err)
	}

	out := make([]*models.Match, 0, len(prior))
	for _, m := range prior {
		if m.IsCompleted() && m.Involves(team) && m.Key().Before(ref) {
			out = append(out, m)
		}
		if len(out) == window {
			break
		}
	}
	return out, nil
}
