package repository

import (
	"context"

	"github.com/yourusername/afl-predictor/internal/models"
)

// MatchLedger is the read-only view over match history used by feature derivation
type MatchLedger interface {
	// GetByID returns models.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.Match, error)
	// PriorMatches returns up to limit completed matches involving team whose
	// key is strictly before the reference key, most recent first.
	PriorMatches(ctx context.Context, team string, before models.ChronoKey, limit int) ([]*models.Match, error)
	// List returns matches ordered most recent first.
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error)
}

// PlayerPerformanceLedger is the read-only view over per-player stat lines
type PlayerPerformanceLedger interface {
	// StatLinesForTeam returns every line of team across matchIDs in one query.
	StatLinesForTeam(ctx context.Context, team string, matchIDs []string) ([]*models.PlayerStatLine, error)
}

// MatchRepository adds the write side used by ingestion
type MatchRepository interface {
	MatchLedger
	UpsertMatches(ctx context.Context, matches []*models.Match) error
	Count(ctx context.Context) (int, error)
}

// PlayerStatRepository adds the write side used by ingestion
type PlayerStatRepository interface {
	PlayerPerformanceLedger
	UpsertStatLines(ctx context.Context, lines []*models.PlayerStatLine) error
}
