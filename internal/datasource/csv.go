package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yourusername/afl-predictor/internal/models"
)

// Column names used by the match and player stat files.
var (
	requiredMatchColumns = []string{"match_id", "date", "round", "year", "home_team", "away_team"}
	requiredStatColumns  = []string{"match_id", "player_name", "team"}
)

// CSVSource reads matches and player stats from two CSV files
type CSVSource struct {
	matchesPath string
	statsPath   string
	enabled     bool
}

// NewCSVSource creates a CSV source. Either path may be empty.
func NewCSVSource(matchesPath, statsPath string) *CSVSource {
	return &CSVSource{
		matchesPath: matchesPath,
		statsPath:   statsPath,
		enabled:     matchesPath != "" || statsPath != "",
	}
}

// Name returns the name of the data source
func (s *CSVSource) Name() string {
	return "csv"
}

// IsEnabled returns whether this data source is currently enabled
func (s *CSVSource) IsEnabled() bool {
	return s.enabled
}

// FetchMatches reads the matches file
func (s *CSVSource) FetchMatches(ctx context.Context) (*MatchBatch, error) {
	if s.matchesPath == "" {
		return &MatchBatch{}, nil
	}
	f, err := os.Open(s.matchesPath)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, s.matchesPath, err)
	}
	defer f.Close()
	return ReadMatches(ctx, f)
}

// FetchPlayerStats reads the player stats file
func (s *CSVSource) FetchPlayerStats(ctx context.Context) (*StatBatch, error) {
	if s.statsPath == "" {
		return &StatBatch{}, nil
	}
	f, err := os.Open(s.statsPath)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeNotFound, s.statsPath, err)
	}
	defer f.Close()
	return ReadPlayerStats(ctx, f)
}

// ReadMatches parses match rows from r. Rows with the wrong shape are
// returned in Rejected rather than failing the read.
func ReadMatches(ctx context.Context, r io.Reader) (*MatchBatch, error) {
	batch := &MatchBatch{}
	err := readRows(ctx, r, requiredMatchColumns, func(line int, raw func(string) string) {
		get := func(col string) string {
			v, _ := lookup(raw, col)
			return v
		}
		batch.Records = append(batch.Records, MatchRecord{
			Line:      line,
			MatchID:   get("match_id"),
			Date:      get("date"),
			Round:     get("round"),
			Year:      get("year"),
			HomeTeam:  get("home_team"),
			AwayTeam:  get("away_team"),
			HomeScore: get("home_score"),
			AwayScore: get("away_score"),
			Venue:     get("venue"),
			Winner:    get("winner"),
		})
	}, func(e RowError) {
		batch.Rejected = append(batch.Rejected, e)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ReadPlayerStats parses player stat rows from r. Only stat columns that
// appear in the header are carried into Counters.
func ReadPlayerStats(ctx context.Context, r io.Reader) (*StatBatch, error) {
	batch := &StatBatch{}
	err := readRows(ctx, r, requiredStatColumns, func(line int, get func(string) string) {
		rec := StatRecord{
			Line:     line,
			MatchID:  get("match_id"),
			Player:   get("player_name"),
			Team:     get("team"),
			Counters: make(map[string]string, len(models.TrackedStats)),
		}
		for _, stat := range models.TrackedStats {
			if v, ok := lookup(get, string(stat)); ok {
				rec.Counters[string(stat)] = v
			}
		}
		batch.Records = append(batch.Records, rec)
	}, func(e RowError) {
		batch.Rejected = append(batch.Rejected, e)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// missingColumn is returned by a row getter for columns absent from the header.
const missingColumn = "\x00"

func lookup(get func(string) string, col string) (string, bool) {
	v := get(col)
	if v == missingColumn {
		return "", false
	}
	return v, true
}

func readRows(ctx context.Context, r io.Reader, required []string, emit func(int, func(string) string), reject func(RowError)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewDataSourceError("csv", ErrCodeInvalidData, "empty file", ErrInvalidData)
		}
		return NewDataSourceError("csv", ErrCodeInvalidData, "unreadable header", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return NewDataSourceError("csv", ErrCodeInvalidData, fmt.Sprintf("missing column %q", col), ErrInvalidData)
		}
	}

	for rows := 0; ; rows++ {
		if rows%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			reject(RowError{Line: parseErr.StartLine, Reason: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return NewDataSourceError("csv", ErrCodeUnknown, "read failed", err)
		}

		line, _ := reader.FieldPos(0)
		if len(row) != len(header) {
			reject(RowError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(row))})
			continue
		}

		emit(line, func(col string) string {
			i, ok := index[col]
			if !ok {
				return missingColumn
			}
			return strings.TrimSpace(row[i])
		})
	}
}
