// Package datasource reads raw match and player-stat records from external files.
package datasource

import (
	"context"
	"errors"
)

// DataSource defines the interface for fetching AFL history from a provider
type DataSource interface {
	// FetchMatches returns every match row the source holds
	FetchMatches(ctx context.Context) (*MatchBatch, error)

	// FetchPlayerStats returns every player stat row the source holds
	FetchPlayerStats(ctx context.Context) (*StatBatch, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// MatchRecord is one unparsed match row. Fields keep the provider's text.
type MatchRecord struct {
	Line      int    `json:"line"`
	MatchID   string `json:"match_id"`
	Date      string `json:"date"`
	Round     string `json:"round"`
	Year      string `json:"year"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore string `json:"home_score"`
	AwayScore string `json:"away_score"`
	Venue     string `json:"venue"`
	Winner    string `json:"winner"`
}

// StatRecord is one unparsed player stat row. Counters holds only the stat
// columns present in the source, keyed by stat name.
type StatRecord struct {
	Line     int               `json:"line"`
	MatchID  string            `json:"match_id"`
	Player   string            `json:"player_name"`
	Team     string            `json:"team"`
	Counters map[string]string `json:"counters"`
}

// RowError records a row the reader could not turn into a record
type RowError struct {
	Line   int
	Reason string
}

// MatchBatch is the result of reading a match source
type MatchBatch struct {
	Records  []MatchRecord
	Rejected []RowError
}

// StatBatch is the result of reading a player stat source
type StatBatch struct {
	Records  []StatRecord
	Rejected []RowError
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "invalid_data")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNotFound    = "not_found"
	ErrCodeInvalidData = "invalid_data"
	ErrCodeDisabled    = "disabled"
	ErrCodeUnknown     = "unknown"
)

// Error constructors
var (
	ErrNotFound       = errors.New("data not found")
	ErrInvalidData    = errors.New("invalid data format")
	ErrSourceDisabled = errors.New("data source disabled")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
