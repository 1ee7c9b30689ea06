package backtest

import (
	"math"
	"sort"
)

// Outcome is one scored match
type Outcome struct {
	MatchID     string    `json:"match_id"`
	Year        int       `json:"year"`
	Round       int       `json:"round"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Features    []float64 `json:"features,omitempty"`
	Probability float64   `json:"predicted_prob"`
	Predicted   int       `json:"predicted"`
	Actual      int       `json:"actual"`
}

// ConfusionMatrix counts predictions against results, home win positive
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Metrics represents estimator performance over a set of outcomes. AUC is
// zero when the outcomes hold only one class.
type Metrics struct {
	Samples     int             `json:"samples"`
	HomeWinRate float64         `json:"home_win_rate"`
	Accuracy    float64         `json:"accuracy"`
	AUC         float64         `json:"auc"`
	BrierScore  float64         `json:"brier_score"`
	LogLoss     float64         `json:"log_loss"`
	Confusion   ConfusionMatrix `json:"confusion_matrix"`
}

const logLossEpsilon = 1e-15

// CalculateMetrics scores outcomes
func CalculateMetrics(outcomes []Outcome) Metrics {
	m := Metrics{Samples: len(outcomes)}
	if len(outcomes) == 0 {
		return m
	}

	var correct, homeWins int
	var brier, logLoss float64
	for _, o := range outcomes {
		if o.Predicted == o.Actual {
			correct++
		}
		switch {
		case o.Predicted == 1 && o.Actual == 1:
			m.Confusion.TruePositive++
		case o.Predicted == 1:
			m.Confusion.FalsePositive++
		case o.Actual == 1:
			m.Confusion.FalseNegative++
		default:
			m.Confusion.TrueNegative++
		}

		y := float64(o.Actual)
		homeWins += o.Actual
		brier += (o.Probability - y) * (o.Probability - y)

		p := math.Min(math.Max(o.Probability, logLossEpsilon), 1-logLossEpsilon)
		logLoss -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}

	n := float64(len(outcomes))
	m.Accuracy = float64(correct) / n
	m.HomeWinRate = float64(homeWins) / n
	m.BrierScore = brier / n
	m.LogLoss = logLoss / n
	m.AUC = calculateAUC(outcomes)
	return m
}

// BaselineAccuracy is the accuracy of always picking the more frequent result.
func (m Metrics) BaselineAccuracy() float64 {
	return math.Max(m.HomeWinRate, 1-m.HomeWinRate)
}

// calculateAUC is the Mann-Whitney rank statistic with average ranks for ties.
func calculateAUC(outcomes []Outcome) float64 {
	idx := make([]int, len(outcomes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return outcomes[idx[a]].Probability < outcomes[idx[b]].Probability
	})

	var positives, negatives int
	var positiveRankSum float64
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && outcomes[idx[j]].Probability == outcomes[idx[i]].Probability {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if outcomes[idx[k]].Actual == 1 {
				positives++
				positiveRankSum += avgRank
			} else {
				negatives++
			}
		}
		i = j
	}

	if positives == 0 || negatives == 0 {
		return 0
	}
	p, n := float64(positives), float64(negatives)
	return (positiveRankSum - p*(p+1)/2) / (p * n)
}
