package models

import (
	"time"
)

// DateLayout is the civil date format used for match dates.
const DateLayout = "2006-01-02"

// Draw is the winner value recorded for a drawn match. A draw is completed
// but won by neither team.
const Draw = "draw"

// Match represents a scheduled or completed AFL match
type Match struct {
	ID        string    `db:"match_id" json:"match_id" validate:"required"`
	Date      time.Time `db:"match_date" json:"date" validate:"required"`
	Round     int       `db:"round" json:"round" validate:"gte=0"`
	Year      int       `db:"year" json:"year" validate:"required,gt=1896"`
	HomeTeam  string    `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam  string    `db:"away_team" json:"away_team" validate:"required,nefield=HomeTeam"`
	HomeScore int       `db:"home_score" json:"home_score" validate:"gte=0"`
	AwayScore int       `db:"away_score" json:"away_score" validate:"gte=0"`
	Venue     string    `db:"venue" json:"venue"`
	Winner    string    `db:"winner" json:"winner,omitempty"`
}

// Key returns the match's chronological key.
func (m *Match) Key() ChronoKey {
	return ChronoKey{Year: m.Year, Round: m.Round, Date: m.Date}
}

// IsCompleted reports whether a winner has been recorded.
func (m *Match) IsCompleted() bool {
	return m.Winner != ""
}

// Involves reports whether team played in the match.
func (m *Match) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// WonBy reports whether team is the recorded winner.
func (m *Match) WonBy(team string) bool {
	return m.Winner != "" && m.Winner != Draw && m.Winner == team
}

// IsDraw reports whether the match was drawn.
func (m *Match) IsDraw() bool {
	return m.Winner == Draw
}

// HomeWon reports whether the home team won. Only meaningful for completed matches.
func (m *Match) HomeWon() bool {
	return m.Winner == m.HomeTeam
}

// Validate checks the record invariants that struct tags cannot express.
func (m *Match) Validate() error {
	if m.Winner != "" && m.Winner != Draw && m.Winner != m.HomeTeam && m.Winner != m.AwayTeam {
		return &ValidationError{Field: "winner", Code: "winner_not_participant", Message: "winner must be the home or away team or a draw"}
	}
	return nil
}

// MatchFilter narrows ledger listings.
type MatchFilter struct {
	FromYear      int
	ToYear        int
	CompletedOnly bool
	Limit         int
}
