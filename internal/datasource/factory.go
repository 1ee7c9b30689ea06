package datasource

import (
	"fmt"

	"github.com/yourusername/afl-predictor/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// CSVSourceType reads the configured match and player stat files
	CSVSourceType SourceType = "csv"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	config *config.IngestionConfig
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.IngestionConfig) *Factory {
	return &Factory{config: cfg}
}

// Create creates a new data source based on the type
func (f *Factory) Create(sourceType SourceType) (DataSource, error) {
	switch sourceType {
	case CSVSourceType:
		return f.createCSVSource()
	default:
		return nil, fmt.Errorf("unknown data source type: %s", sourceType)
	}
}

func (f *Factory) createCSVSource() (DataSource, error) {
	if f.config == nil {
		return nil, fmt.Errorf("ingestion config is required")
	}
	src := NewCSVSource(f.config.MatchesFile, f.config.PlayerStatsFile)
	if !src.IsEnabled() {
		return nil, NewDataSourceError(src.Name(), ErrCodeDisabled, "no matches_file or player_stats_file configured", ErrSourceDisabled)
	}
	return src, nil
}
