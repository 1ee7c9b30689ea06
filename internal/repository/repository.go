// Package repository provides the match and player-performance ledgers.
package repository

import (
	"fmt"

	"github.com/yourusername/afl-predictor/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Matches     MatchRepository
	PlayerStats PlayerStatRepository
}

// NewRepositories creates the PostgreSQL-backed repositories
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Matches:     NewPostgresMatchRepository(db),
		PlayerStats: NewPostgresPlayerStatRepository(db),
	}, nil
}

// NewMemoryRepositories creates repositories sharing one in-memory store
func NewMemoryRepositories() *Repositories {
	store := NewMemoryStore()
	return &Repositories{
		Matches:     store,
		PlayerStats: store,
	}
}
