// Package scheduler runs periodic re-imports of the match history.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/datasource"
	"github.com/yourusername/afl-predictor/internal/service"
)

// Ingester imports everything a data source holds
type Ingester interface {
	IngestFromSource(ctx context.Context, src datasource.DataSource) ([]*service.ImportReport, error)
}

// Scheduler manages scheduled data ingestion jobs
type Scheduler struct {
	cron            *cron.Cron
	ingester        Ingester
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	afterImport     func(ctx context.Context)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithJobTimeout bounds each scheduled run
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.jobTimeout = d }
}

// WithAfterImport registers a hook run after every successful import
func WithAfterImport(fn func(ctx context.Context)) Option {
	return func(s *Scheduler) { s.afterImport = fn }
}

// NewScheduler creates a new scheduler
func NewScheduler(ingester Ingester, logger *logrus.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		ingester:        ingester,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      time.Hour,
		gracefulTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleReimport re-imports src on the standard five-field cron expression
func (s *Scheduler) ScheduleReimport(cronExpression string, src datasource.DataSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		_ = s.RunNow(ctx, src)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"schedule": cronExpression,
		"source":   src.Name(),
	}).Info("Scheduled re-import job")

	return nil
}

// RunNow performs one re-import immediately and logs the outcome
func (s *Scheduler) RunNow(ctx context.Context, src datasource.DataSource) error {
	start := time.Now()
	s.logger.WithField("source", src.Name()).Info("Starting scheduled re-import")

	reports, err := s.ingester.IngestFromSource(ctx, src)
	for _, r := range reports {
		if r != nil {
			s.logger.WithField("source", src.Name()).Info(r.String())
		}
	}
	if err != nil {
		s.logger.WithError(err).WithField("source", src.Name()).Error("Scheduled re-import failed")
		return err
	}

	if s.afterImport != nil {
		s.afterImport(ctx)
	}
	s.logger.WithFields(logrus.Fields{
		"source":   src.Name(),
		"duration": time.Since(start).String(),
	}).Info("Scheduled re-import completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs up to the graceful timeout and stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
