package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/afl-predictor/internal/database"
	"github.com/yourusername/afl-predictor/internal/models"
)

// PostgresPlayerStatRepository implements PlayerStatRepository for PostgreSQL
type PostgresPlayerStatRepository struct {
	db *database.DB
}

// NewPostgresPlayerStatRepository creates a new player stat repository
func NewPostgresPlayerStatRepository(db *database.DB) *PostgresPlayerStatRepository {
	return &PostgresPlayerStatRepository{db: db}
}

// StatLinesForTeam retrieves every stat line of team across matchIDs in one query
func (r *PostgresPlayerStatRepository) StatLinesForTeam(ctx context.Context, team string, matchIDs []string) ([]*models.PlayerStatLine, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT match_id, player_name, team, kicks, marks, goals, disposals, hitouts, tackles
		FROM player_stats
		WHERE team = $1 AND match_id = ANY($2)
		ORDER BY match_id, player_name
	`

	rows, err := r.db.Query(ctx, query, team, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query stat lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.PlayerStatLine
	for rows.Next() {
		l := &models.PlayerStatLine{}
		if err := rows.Scan(
			&l.MatchID, &l.Player, &l.Team,
			&l.Kicks, &l.Marks, &l.Goals, &l.Disposals, &l.Hitouts, &l.Tackles,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stat line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stat lines: %w", err)
	}

	return lines, nil
}

// UpsertStatLines inserts or replaces stat lines in one transaction
func (r *PostgresPlayerStatRepository) UpsertStatLines(ctx context.Context, lines []*models.PlayerStatLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO player_stats (match_id, player_name, team, kicks, marks, goals, disposals, hitouts, tackles)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, player_name, team) DO UPDATE SET
			kicks     = EXCLUDED.kicks,
			marks     = EXCLUDED.marks,
			goals     = EXCLUDED.goals,
			disposals = EXCLUDED.disposals,
			hitouts   = EXCLUDED.hitouts,
			tackles   = EXCLUDED.tackles
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, l := range lines {
			batch.Queue(query,
				l.MatchID, l.Player, l.Team,
				l.Kicks, l.Marks, l.Goals, l.Disposals, l.Hitouts, l.Tackles,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range lines {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert stat line %s/%s: %w", lines[i].MatchID, lines[i].Player, err)
			}
		}
		return results.Close()
	})
}
