package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/afl-predictor/internal/config"
)

const matchesCSV = `match_id,date,round,year,home_team,away_team,home_score,away_score,venue,winner
1001,2024-03-14,1,2024,Carlton,Richmond,86,81,M.C.G.,Carlton
1002,15-Mar-2024,1,2024,Collingwood,Sydney,
1003,"Sat, 16-Mar-2024",1,2024,Geelong,St Kilda,0,0,Kardinia Park,
`

const statsCSV = `match_id,player_name,team,goals,disposals,marks,tackles
1001,Charlie Curnow,Carlton,4,15,8,1
1001,Dustin Martin,Richmond,1,22,,3
`

func TestReadMatches(t *testing.T) {
	batch, err := ReadMatches(context.Background(), strings.NewReader(matchesCSV))
	require.NoError(t, err)

	require.Len(t, batch.Records, 2)
	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, 3, batch.Rejected[0].Line)

	first := batch.Records[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "1001", first.MatchID)
	assert.Equal(t, "M.C.G.", first.Venue)
	assert.Equal(t, "Carlton", first.Winner)

	pending := batch.Records[1]
	assert.Equal(t, "Sat, 16-Mar-2024", pending.Date)
	assert.Empty(t, pending.Winner)
}

func TestReadMatchesOptionalColumns(t *testing.T) {
	data := "match_id,date,round,year,home_team,away_team\n9,2024-06-01,12,2024,Adelaide,Port Adelaide\n"
	batch, err := ReadMatches(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Empty(t, batch.Records[0].Venue)
	assert.Empty(t, batch.Records[0].HomeScore)
}

func TestReadMatchesMissingColumn(t *testing.T) {
	_, err := ReadMatches(context.Background(), strings.NewReader("match_id,date,round\n1,2024-01-01,1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidData))

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeInvalidData, dsErr.Code)
}

func TestReadMatchesEmpty(t *testing.T) {
	_, err := ReadMatches(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestReadPlayerStats(t *testing.T) {
	batch, err := ReadPlayerStats(context.Background(), strings.NewReader(statsCSV))
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Empty(t, batch.Rejected)

	curnow := batch.Records[0]
	assert.Equal(t, "Charlie Curnow", curnow.Player)
	assert.Equal(t, "4", curnow.Counters["goals"])
	_, hasKicks := curnow.Counters["kicks"]
	assert.False(t, hasKicks)

	martin := batch.Records[1]
	v, ok := martin.Counters["marks"]
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestReadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadPlayerStats(ctx, strings.NewReader(statsCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVSourceFromFiles(t *testing.T) {
	dir := t.TempDir()
	matches := filepath.Join(dir, "matches.csv")
	stats := filepath.Join(dir, "player_stats.csv")
	require.NoError(t, os.WriteFile(matches, []byte(matchesCSV), 0o644))
	require.NoError(t, os.WriteFile(stats, []byte(statsCSV), 0o644))

	src, err := NewFactory(&config.IngestionConfig{MatchesFile: matches, PlayerStatsFile: stats}).Create(CSVSourceType)
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())
	assert.True(t, src.IsEnabled())

	mb, err := src.FetchMatches(context.Background())
	require.NoError(t, err)
	assert.Len(t, mb.Records, 2)

	sb, err := src.FetchPlayerStats(context.Background())
	require.NoError(t, err)
	assert.Len(t, sb.Records, 2)
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "")
	_, err := src.FetchMatches(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	sb, err := src.FetchPlayerStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sb.Records)
}

func TestFactory(t *testing.T) {
	_, err := NewFactory(&config.IngestionConfig{}).Create(CSVSourceType)
	assert.ErrorIs(t, err, ErrSourceDisabled)

	_, err = NewFactory(&config.IngestionConfig{MatchesFile: "m.csv"}).Create("ftp")
	assert.Error(t, err)
}
