package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/afl-predictor/internal/database"
	"github.com/yourusername/afl-predictor/internal/models"
)

const (
	matchColumns = `match_id, match_date, round, year, home_team, away_team,
		       home_score, away_score, venue, winner`
	errScanMatch = "failed to scan match: %w"
)

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

// GetByID retrieves a match by its identifier
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_id = $1`

	match, err := scanMatch(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// PriorMatches retrieves completed matches of team strictly before the reference key
func (r *PostgresMatchRepository) PriorMatches(ctx context.Context, team string, before models.ChronoKey, limit int) ([]*models.Match, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (home_team = $1 OR away_team = $1)
		  AND winner IS NOT NULL
		  AND (year, round, match_date) < ($2::int, $3::int, $4::date)
		ORDER BY year DESC, round DESC, match_date DESC, match_id DESC
		LIMIT $5
	`

	rows, err := r.db.Query(ctx, query, team, before.Year, before.Round, before.Date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prior matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// List retrieves matches ordered most recent first
func (r *PostgresMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	var (
		conds []string
		args  []any
	)
	if filter.FromYear > 0 {
		args = append(args, filter.FromYear)
		conds = append(conds, fmt.Sprintf("year >= $%d", len(args)))
	}
	if filter.ToYear > 0 {
		args = append(args, filter.ToYear)
		conds = append(conds, fmt.Sprintf("year <= $%d", len(args)))
	}
	if filter.CompletedOnly {
		conds = append(conds, "winner IS NOT NULL")
	}

	query := `SELECT ` + matchColumns + ` FROM matches`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year DESC, round DESC, match_date DESC, match_id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// UpsertMatches inserts or replaces matches in one transaction
func (r *PostgresMatchRepository) UpsertMatches(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	query := `
		INSERT INTO matches (match_id, match_date, round, year, home_team, away_team,
		                     home_score, away_score, venue, winner)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (match_id) DO UPDATE SET
			match_date = EXCLUDED.match_date,
			round      = EXCLUDED.round,
			year       = EXCLUDED.year,
			home_team  = EXCLUDED.home_team,
			away_team  = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			venue      = EXCLUDED.venue,
			winner     = EXCLUDED.winner,
			updated_at = now()
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range matches {
			batch.Queue(query,
				m.ID, m.Date, m.Round, m.Year, m.HomeTeam, m.AwayTeam,
				m.HomeScore, m.AwayScore, m.Venue, nullableString(m.Winner),
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range matches {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert match %s: %w", matches[i].ID, err)
			}
		}
		return results.Close()
	})
}

// Count returns the number of stored matches
func (r *PostgresMatchRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM matches").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	m := &models.Match{}
	var winner *string
	if err := row.Scan(
		&m.ID, &m.Date, &m.Round, &m.Year, &m.HomeTeam, &m.AwayTeam,
		&m.HomeScore, &m.AwayScore, &m.Venue, &winner,
	); err != nil {
		return nil, err
	}
	if winner != nil {
		m.Winner = *winner
	}
	return m, nil
}

func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
