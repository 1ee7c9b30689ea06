package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/afl-predictor/internal/config"
	"github.com/yourusername/afl-predictor/internal/database"
	"github.com/yourusername/afl-predictor/internal/datasource"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/health"
	"github.com/yourusername/afl-predictor/internal/logger"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/models"
	"github.com/yourusername/afl-predictor/internal/repository"
	"github.com/yourusername/afl-predictor/internal/service"
)

const estimatorCacheTTL = 10 * time.Minute

// app holds the wired dependencies shared by the subcommands
type app struct {
	cfg        *config.Config
	log        *logrus.Logger
	db         *database.DB
	redis      *redis.Client
	repos      *repository.Repositories
	assembler  *features.Assembler
	ingestion  *service.IngestionService
	prediction *service.PredictionService
	closers    []func()
}

// newApp connects the ledgers and builds the services. The estimator is
// loaded only when withEstimator is set.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, withEstimator bool) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if inMemory {
		a.repos = repository.NewMemoryRepositories()
	} else {
		db, err := database.Initialize(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		if a.repos, err = repository.NewRepositories(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
	}

	opts := []features.Option{
		features.WithWindow(cfg.Features.WindowSize),
		features.WithHomeGrounds(features.NewHomeGrounds(cfg.Features.HomeGrounds)),
		features.WithLogger(logger.NewFeatureLogger(log)),
	}
	cache, err := a.buildCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cache != nil {
		opts = append(opts, features.WithCache(cache))
	}
	a.assembler = features.NewAssembler(a.repos.Matches, a.repos.PlayerStats, opts...)
	a.ingestion = service.NewIngestionService(a.repos.Matches, a.repos.PlayerStats, a.assembler, log, cfg.Ingestion.BatchSize)

	var est ml.Estimator
	if withEstimator {
		est, err = a.buildEstimator()
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.prediction = service.NewPredictionService(a.repos.Matches, a.assembler, nil, log)
	if est != nil {
		a.prediction.SetEstimator(est, cfg.Estimator.Type)
	}

	if inMemory {
		if err := a.seedFromFiles(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *app) buildCache(ctx context.Context) (features.Cache, error) {
	switch a.cfg.Features.CacheBackend {
	case "memory":
		return features.NewMemoryCache(a.cfg.CacheTTL()), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		rc := features.NewRedisCache(client, a.cfg.Redis.KeyPrefix, a.cfg.CacheTTL(), a.log)
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", a.cfg.Redis.Addr, err)
		}
		a.redis = client
		return rc, nil
	default:
		return nil, nil
	}
}

// buildEstimator returns nil without error when the configured model is
// absent, so feature endpoints keep working and predictions report the
// model as unavailable.
func (a *app) buildEstimator() (ml.Estimator, error) {
	ec := a.cfg.Estimator
	switch ec.Type {
	case ml.KindLogistic:
		model, err := ml.LoadLogisticModel(ec.ModelPath, features.Names)
		if errors.Is(err, models.ErrModelUnavailable) {
			a.log.WithError(err).Warn("No trained model found; predictions are unavailable until one is trained")
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return model, nil
	case ml.KindHTTP:
		hc := ml.DefaultHTTPClientConfig()
		hc.Timeout = a.cfg.EstimatorTimeout()
		if ec.RetryAttempts > 0 {
			hc.MaxRetries = ec.RetryAttempts
		}
		if ec.RequestsPerSecond > 0 {
			hc.RateLimit = ec.RequestsPerSecond
		}
		remote := ml.NewHTTPEstimator(ec.URL, ec.APIKey, features.Names, hc, a.log)
		a.closers = append(a.closers, func() { _ = remote.Close() })
		return ml.NewCachedEstimator(remote, estimatorCacheTTL), nil
	default:
		return nil, nil
	}
}

func (a *app) csvSource(matchesFile, statsFile string) (datasource.DataSource, error) {
	ic := a.cfg.Ingestion
	if matchesFile != "" {
		ic.MatchesFile = matchesFile
	}
	if statsFile != "" {
		ic.PlayerStatsFile = statsFile
	}
	return datasource.NewFactory(&ic).Create(datasource.CSVSourceType)
}

func (a *app) seedFromFiles(ctx context.Context) error {
	src, err := a.csvSource("", "")
	if errors.Is(err, datasource.ErrSourceDisabled) {
		a.log.Warn("In-memory ledgers start empty: no ingestion files configured")
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := a.ingestion.IngestFromSource(ctx, src); err != nil {
		return fmt.Errorf("failed to seed in-memory ledgers: %w", err)
	}
	return nil
}

// healthChecks names every dependency readiness depends on.
func (a *app) healthChecks() map[string]health.Checker {
	checks := make(map[string]health.Checker)
	if a.cfg.Estimator.Type != "none" {
		checks["estimator"] = health.CheckerFunc(func(context.Context) error {
			if a.prediction.Estimator() == nil {
				return ml.ErrEstimatorUnavailable
			}
			return nil
		})
	}
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis != nil {
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	return checks
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
