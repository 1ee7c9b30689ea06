package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/config"
	"github.com/yourusername/afl-predictor/internal/database/migrations"
)

// Initialize opens the pool and applies any pending schema migrations
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	applied, err := migrations.Apply(ctx, db.pool)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if len(applied) > 0 {
		log.WithField("migrations", applied).Info("Applied database migrations")
	}

	return db, nil
}
