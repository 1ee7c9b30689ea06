package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/datasource"
	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
)

// CacheInvalidator drops cached feature state that a new record for team at
// key could change. features.Assembler implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, team string, at models.ChronoKey) int
}

// IngestionService handles the CSV import workflow: read, normalize,
// validate, persist in batches, then invalidate affected cache entries.
type IngestionService struct {
	matches     repository.MatchRepository
	stats       repository.PlayerStatRepository
	invalidator CacheInvalidator
	validator   *DataValidator
	normalizer  *DataNormalizer
	logger      *logger.IngestionLogger
	batchSize   int
}

// DefaultBatchSize is used when the configured batch size is not positive.
const DefaultBatchSize = 500

// NewIngestionService creates a new ingestion service. invalidator may be nil
// when no feature cache is in use.
func NewIngestionService(
	matches repository.MatchRepository,
	stats repository.PlayerStatRepository,
	invalidator CacheInvalidator,
	log *logrus.Logger,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &IngestionService{
		matches:     matches,
		stats:       stats,
		invalidator: invalidator,
		validator:   NewDataValidator(1897, time.Now().Year()+1),
		normalizer:  NewDataNormalizer(),
		logger:      logger.NewIngestionLogger(log),
		batchSize:   batchSize,
	}
}

// ImportMatches loads a matches CSV file. Malformed rows are skipped and
// counted; only read or storage failures return an error.
func (s *IngestionService) ImportMatches(ctx context.Context, path string) (*ImportReport, error) {
	return s.importMatches(ctx, datasource.NewCSVSource(path, ""), path)
}

// ImportPlayerStats loads a player stats CSV file. Matches must be imported first.
func (s *IngestionService) ImportPlayerStats(ctx context.Context, path string) (*ImportReport, error) {
	return s.importPlayerStats(ctx, datasource.NewCSVSource("", path), path)
}

// IngestFromSource imports matches and then player stats from src.
func (s *IngestionService) IngestFromSource(ctx context.Context, src datasource.DataSource) ([]*ImportReport, error) {
	if !src.IsEnabled() {
		return nil, fmt.Errorf("data source %s: %w", src.Name(), datasource.ErrSourceDisabled)
	}

	mr, err := s.importMatches(ctx, src, src.Name())
	if err != nil {
		return []*ImportReport{mr}, err
	}
	sr, err := s.importPlayerStats(ctx, src, src.Name())
	return []*ImportReport{mr, sr}, err
}

func (s *IngestionService) importMatches(ctx context.Context, src datasource.DataSource, label string) (report *ImportReport, err error) {
	report = newImportReport(KindMatches, label)
	defer s.finish(report, &err)

	batch, err := src.FetchMatches(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read matches: %w", err)
	}
	s.recordReaderRejects(report, batch.Rejected)
	report.TotalRows = len(batch.Records) + len(batch.Rejected)

	pending := make([]*models.Match, 0, s.batchSize)
	for _, rec := range batch.Records {
		m, err := s.normalizer.NormalizeMatch(rec)
		if err == nil {
			err = s.validator.ValidateMatch(m)
		}
		if err != nil {
			s.rejectRecord(report, rec.Line, err)
			continue
		}

		pending = append(pending, m)
		if len(pending) >= s.batchSize {
			if err := s.flushMatches(ctx, report, pending); err != nil {
				return report, err
			}
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := s.flushMatches(ctx, report, pending); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *IngestionService) flushMatches(ctx context.Context, report *ImportReport, batch []*models.Match) error {
	// A replaced match also invalidates from its previous position and teams.
	earliest := make(map[string]models.ChronoKey)
	for _, m := range batch {
		prev, err := s.matches.GetByID(ctx, m.ID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up match %s: %w", m.ID, err)
		}
		for _, team := range []string{prev.HomeTeam, prev.AwayTeam} {
			noteEarliest(earliest, team, prev.Key())
		}
	}

	if err := s.matches.UpsertMatches(ctx, batch); err != nil {
		return fmt.Errorf("failed to store match batch: %w", err)
	}
	report.Imported += len(batch)
	report.Batches++

	for _, m := range batch {
		for _, team := range []string{m.HomeTeam, m.AwayTeam} {
			noteEarliest(earliest, team, m.Key())
		}
	}
	report.Invalidated += s.invalidate(ctx, earliest)
	return nil
}

func (s *IngestionService) importPlayerStats(ctx context.Context, src datasource.DataSource, label string) (report *ImportReport, err error) {
	report = newImportReport(KindPlayerStats, label)
	defer s.finish(report, &err)

	batch, err := src.FetchPlayerStats(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read player stats: %w", err)
	}
	s.recordReaderRejects(report, batch.Rejected)
	report.TotalRows = len(batch.Records) + len(batch.Rejected)

	known := make(map[string]*models.Match)
	pending := make([]*models.PlayerStatLine, 0, s.batchSize)
	for _, rec := range batch.Records {
		line, err := s.normalizer.NormalizeStatLine(rec)
		if err != nil {
			s.rejectRecord(report, rec.Line, err)
			continue
		}

		match, err := s.lookupMatch(ctx, known, line.MatchID)
		if err != nil {
			return report, err
		}
		if err := s.validator.ValidateStatLine(line, match); err != nil {
			s.rejectRecord(report, rec.Line, err)
			continue
		}

		pending = append(pending, line)
		if len(pending) >= s.batchSize {
			if err := s.flushStatLines(ctx, report, pending, known); err != nil {
				return report, err
			}
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := s.flushStatLines(ctx, report, pending, known); err != nil {
			return report, err
		}
	}
	return report, nil
}

// lookupMatch returns nil without error for unknown match ids.
func (s *IngestionService) lookupMatch(ctx context.Context, known map[string]*models.Match, id string) (*models.Match, error) {
	if m, ok := known[id]; ok {
		return m, nil
	}
	m, err := s.matches.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		known[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up match %s: %w", id, err)
	}
	known[id] = m
	return m, nil
}

func (s *IngestionService) flushStatLines(ctx context.Context, report *ImportReport, batch []*models.PlayerStatLine, known map[string]*models.Match) error {
	if err := s.stats.UpsertStatLines(ctx, batch); err != nil {
		return fmt.Errorf("failed to store stat batch: %w", err)
	}
	report.Imported += len(batch)
	report.Batches++

	earliest := make(map[string]models.ChronoKey)
	for _, l := range batch {
		if m := known[l.MatchID]; m != nil {
			noteEarliest(earliest, l.Team, m.Key())
		}
	}
	report.Invalidated += s.invalidate(ctx, earliest)
	return nil
}

func noteEarliest(earliest map[string]models.ChronoKey, team string, key models.ChronoKey) {
	if cur, ok := earliest[team]; !ok || key.Before(cur) {
		earliest[team] = key
	}
}

func (s *IngestionService) invalidate(ctx context.Context, earliest map[string]models.ChronoKey) int {
	if s.invalidator == nil {
		return 0
	}
	removed := 0
	for team, key := range earliest {
		removed += s.invalidator.Invalidate(ctx, team, key)
	}
	return removed
}

func (s *IngestionService) recordReaderRejects(report *ImportReport, rejected []datasource.RowError) {
	for _, r := range rejected {
		report.reject("bad_row")
		s.logger.LogRowRejected(report.Kind, r.Line, r.Reason)
	}
}

func (s *IngestionService) rejectRecord(report *ImportReport, line int, err error) {
	code := "invalid"
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		code = ve.Code
	}
	report.reject(code)
	s.logger.LogRowRejected(report.Kind, line, err.Error())
}

func (s *IngestionService) finish(report *ImportReport, errp *error) {
	report.Duration = time.Since(report.StartTime)
	metrics.RecordIngestionRows(report.Kind, report.Imported, report.Skipped)
	metrics.RecordIngestionRun(report.Kind, report.Duration, *errp)
	if *errp != nil {
		s.logger.WithError(*errp).WithField("kind", report.Kind).Error("Import failed")
		return
	}
	s.logger.LogImportCompleted(report.Kind, report.Source, report.Imported, report.Skipped, report.Duration)
}
