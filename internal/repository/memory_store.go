package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/afl-predictor/internal/models"
)

type statKey struct {
	matchID string
	player  string
	team    string
}

// MemoryStore is an in-memory implementation of both ledgers. Values are
// copied on the way in and out so callers cannot mutate stored records.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*models.Match
	stats   map[statKey]*models.PlayerStatLine
	// statQueries counts StatLinesForTeam calls so tests can assert batching.
	statQueries int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*models.Match),
		stats:   make(map[statKey]*models.PlayerStatLine),
	}
}

// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	matchCopy := *m
	return &matchCopy, nil
}

// PriorMatches returns completed matches of team strictly before the key, most recent first.
func (s *MemoryStore) PriorMatches(_ context.Context, team string, before models.ChronoKey, limit int) ([]*models.Match, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	var result []*models.Match
	for _, m := range s.matches {
		if !m.Involves(team) || !m.IsCompleted() || !m.Key().Before(before) {
			continue
		}
		matchCopy := *m
		result = append(result, &matchCopy)
	}
	s.mu.RUnlock()

	sortRecentFirst(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// List returns matches most recent first.
func (s *MemoryStore) List(_ context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	s.mu.RLock()
	var result []*models.Match
	for _, m := range s.matches {
		if filter.FromYear > 0 && m.Year < filter.FromYear {
			continue
		}
		if filter.ToYear > 0 && m.Year > filter.ToYear {
			continue
		}
		if filter.CompletedOnly && !m.IsCompleted() {
			continue
		}
		matchCopy := *m
		result = append(result, &matchCopy)
	}
	s.mu.RUnlock()

	sortRecentFirst(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpsertMatches inserts or replaces matches.
func (s *MemoryStore) UpsertMatches(_ context.Context, matches []*models.Match) error {
	for _, m := range matches {
		if m == nil || m.ID == "" {
			return models.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range matches {
		matchCopy := *m
		s.matches[m.ID] = &matchCopy
	}
	return nil
}

// Count returns the number of stored matches.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches), nil
}

// StatLinesForTeam returns the team's lines across matchIDs ordered by match then player.
func (s *MemoryStore) StatLinesForTeam(_ context.Context, team string, matchIDs []string) ([]*models.PlayerStatLine, error) {
	s.mu.Lock()
	s.statQueries++
	s.mu.Unlock()

	if len(matchIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	var result []*models.PlayerStatLine
	for k, l := range s.stats {
		if k.team != team {
			continue
		}
		if _, ok := wanted[k.matchID]; !ok {
			continue
		}
		lineCopy := *l
		result = append(result, &lineCopy)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].MatchID != result[j].MatchID {
			return result[i].MatchID < result[j].MatchID
		}
		return result[i].Player < result[j].Player
	})
	return result, nil
}

// UpsertStatLines inserts or replaces stat lines.
func (s *MemoryStore) UpsertStatLines(_ context.Context, lines []*models.PlayerStatLine) error {
	for _, l := range lines {
		if l == nil || l.MatchID == "" || l.Player == "" || l.Team == "" {
			return models.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		lineCopy := *l
		s.stats[statKey{matchID: l.MatchID, player: l.Player, team: l.Team}] = &lineCopy
	}
	return nil
}

// StatQueries reports how many StatLinesForTeam calls the store has served.
func (s *MemoryStore) StatQueries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statQueries
}

func sortRecentFirst(matches []*models.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if c := matches[i].Key().Compare(matches[j].Key()); c != 0 {
			return c > 0
		}
		return matches[i].ID > matches[j].ID
	})
}
