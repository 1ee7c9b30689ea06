package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prediction is the outcome of estimating one match
type Prediction struct {
	ID                 uuid.UUID          `json:"id"`
	MatchID            string             `json:"match_id"`
	HomeTeam           string             `json:"home_team"`
	AwayTeam           string             `json:"away_team"`
	HomeWinProbability float64            `json:"home_win_probability"`
	AwayWinProbability float64            `json:"away_win_probability"`
	HomeFairOdds       decimal.Decimal    `json:"home_fair_odds"`
	AwayFairOdds       decimal.Decimal    `json:"away_fair_odds"`
	Features           map[string]float64 `json:"features"`
	ModelVersion       string             `json:"model_version"`
	PredictedAt        time.Time          `json:"predicted_at"`
}

// NewPrediction fills in the complementary probability and fair odds.
func NewPrediction(match *Match, homeWinProbability float64, features map[string]float64, modelVersion string) *Prediction {
	away := 1 - homeWinProbability
	return &Prediction{
		ID:                 uuid.New(),
		MatchID:            match.ID,
		HomeTeam:           match.HomeTeam,
		AwayTeam:           match.AwayTeam,
		HomeWinProbability: homeWinProbability,
		AwayWinProbability: away,
		HomeFairOdds:       FairOdds(homeWinProbability),
		AwayFairOdds:       FairOdds(away),
		Features:           features,
		ModelVersion:       modelVersion,
		PredictedAt:        time.Now().UTC(),
	}
}

// FairOdds converts a probability into decimal odds rounded to two places.
// A zero probability has no fair price and returns zero.
func FairOdds(probability float64) decimal.Decimal {
	if probability <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(probability)).Round(2)
}

// Favourite returns the team with the higher win probability. Ties go to the home team.
func (p *Prediction) Favourite() string {
	if p.AwayWinProbability > p.HomeWinProbability {
		return p.AwayTeam
	}
	return p.HomeTeam
}
