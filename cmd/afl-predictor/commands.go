package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/afl-predictor/internal/api"
	"github.com/yourusername/afl-predictor/internal/database"
	"github.com/yourusername/afl-predictor/internal/database/migrations"
	"github.com/yourusername/afl-predictor/internal/features"
	"github.com/yourusername/afl-predictor/internal/health"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/ml"
	"github.com/yourusername/afl-predictor/internal/scheduler"
	"github.com/yourusername/afl-predictor/internal/service"
)

var (
	importMatchesFile string
	importStatsFile   string
	trainFromYear     int
	trainOutput       string
	trainEpochs       int
)

func init() {
	importCmd.Flags().StringVar(&importMatchesFile, "matches", "", "Matches CSV file (defaults to ingestion.matches_file)")
	importCmd.Flags().StringVar(&importStatsFile, "stats", "", "Player stats CSV file (defaults to ingestion.player_stats_file)")

	trainCmd.Flags().IntVar(&trainFromYear, "from-year", service.DefaultTrainingFromYear, "First season used for training")
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "", "Model output path (defaults to estimator.model_path)")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "Gradient descent epochs (defaults to estimator.epochs)")
}

var featuresCmd = &cobra.Command{
	Use:   "features <match-id>",
	Short: "Print the feature vector of a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, appLogger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		vec, err := a.prediction.BuildFeatures(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(api.FeaturesResponse{
			MatchID:  vec.MatchID,
			Names:    features.Names,
			Values:   vec.Values,
			Features: vec.Map(),
		})
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <match-id>",
	Short: "Estimate home and away win probabilities for a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, appLogger, true)
		if err != nil {
			return err
		}
		defer a.Close()

		pred, err := a.prediction.Predict(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(pred)
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the logistic model on completed matches and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, appLogger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := trainOptions()
		if trainEpochs > 0 {
			opts.Epochs = trainEpochs
		}
		output := trainOutput
		if output == "" {
			output = cfg.Estimator.ModelPath
		}

		trainer := service.NewTrainer(a.repos.Matches, a.assembler, service.TrainerConfig{
			FromYear:  trainFromYear,
			ModelPath: output,
			Options:   opts,
		}, appLogger)

		_, report, err := trainer.Train(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Trained %s on %d matches (%d home wins), final loss %.4f, saved to %s in %s\n",
			report.ModelVersion, report.Samples, report.HomeWins, report.FinalLoss, report.ModelPath, report.Duration.Round(time.Millisecond))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import match and player stat CSV files into the ledgers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inMemory {
			return fmt.Errorf("import needs a persistent ledger; drop --in-memory")
		}
		a, err := newApp(cmd.Context(), cfg, appLogger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		src, err := a.csvSource(importMatchesFile, importStatsFile)
		if err != nil {
			return err
		}
		reports, err := a.ingestion.IngestFromSource(cmd.Context(), src)
		for _, r := range reports {
			fmt.Println(r.String())
		}
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inMemory {
			return fmt.Errorf("migrate needs PostgreSQL; drop --in-memory")
		}
		db, err := database.NewDB(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		applied, err := migrations.Apply(cmd.Context(), db.GetPool())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("Schema is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Printf("Applied %s\n", name)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API, health probes and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, appLogger, true)
		if err != nil {
			return err
		}
		defer a.Close()

		metrics.InitRegistry()

		healthServer := health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        strconv.Itoa(cfg.Server.HealthPort),
			Logger:      appLogger,
			Checks:      a.healthChecks(),
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}

		apiCfg := api.Config{
			Port:         cfg.Server.Port,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			Logger:       appLogger,
		}
		if cfg.Metrics.Enabled {
			apiCfg.MetricsPath = cfg.Metrics.Path
			apiCfg.MetricsHandler = metrics.Handler()
		}
		if err := api.NewServer(a.repos.Matches, a.prediction, apiCfg).Start(ctx); err != nil {
			return err
		}

		sched, err := startScheduler(a)
		if err != nil {
			return err
		}
		if sched != nil {
			defer sched.Stop()
		}

		healthServer.SetReady(true)
		appLogger.WithField("port", cfg.Server.Port).Info("afl-predictor serving")

		<-ctx.Done()
		healthServer.SetReady(false)
		appLogger.Info("Shutting down")
		return nil
	},
}

// startScheduler schedules periodic re-imports when a schedule and source
// files are configured.
func startScheduler(a *app) (*scheduler.Scheduler, error) {
	if cfg.Ingestion.Schedule == "" {
		return nil, nil
	}
	src, err := a.csvSource("", "")
	if err != nil {
		appLogger.WithError(err).Info("Scheduled re-import disabled")
		return nil, nil
	}

	sched := scheduler.NewScheduler(a.ingestion, appLogger, scheduler.WithAfterImport(func(ctx context.Context) {
		if c, ok := a.prediction.Estimator().(*ml.CachedEstimator); ok {
			c.Clear()
		}
	}))
	if err := sched.ScheduleReimport(cfg.Ingestion.Schedule, src); err != nil {
		return nil, err
	}
	if err := sched.Start(); err != nil {
		return nil, err
	}
	appLogger.WithField("next_run", sched.GetNextRun()).Info("Scheduled re-import enabled")
	return sched, nil
}

// trainOptions applies the estimator section over the training defaults.
func trainOptions() ml.TrainOptions {
	opts := ml.DefaultTrainOptions()
	if cfg.Estimator.LearningRate > 0 {
		opts.LearningRate = cfg.Estimator.LearningRate
	}
	if cfg.Estimator.Epochs > 0 {
		opts.Epochs = cfg.Estimator.Epochs
	}
	return opts
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
