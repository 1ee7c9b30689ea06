package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/afl-predictor/internal/backtest"
	"github.com/yourusername/afl-predictor/internal/service"
)

var (
	backtestCfg       = backtest.DefaultConfig()
	backtestWalk      bool
	backtestFirstYear int
	backtestLastYear  int
	backtestRetrain   bool
)

func init() {
	f := backtestCmd.Flags()
	f.IntVar(&backtestCfg.Matches, "matches", backtest.DefaultMatches, "Number of most recent completed matches to score")
	f.IntVar(&backtestCfg.FromYear, "from-year", 0, "Ignore matches before this season")
	f.Float64Var(&backtestCfg.Threshold, "threshold", backtest.DefaultThreshold, "Home-win probability at which the home team is picked")
	f.StringVarP(&backtestCfg.OutputPath, "output", "o", "", "Write per-match results to this CSV file")
	f.BoolVar(&backtestWalk, "walk-forward", false, "Retrain before each season on earlier seasons and score that season")
	f.IntVar(&backtestFirstYear, "first-test-year", 0, "First season scored in walk-forward mode")
	f.IntVar(&backtestLastYear, "last-test-year", 0, "Last season scored in walk-forward mode")
	f.BoolVar(&backtestRetrain, "retrain", false, "Retrain on all completed matches and save the model afterwards")

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score the estimator against recorded results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, appLogger, !backtestWalk)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := trainOptions()

		if backtestWalk {
			result, err := backtest.RunWalkForward(ctx, a.repos.Matches, a.assembler, backtest.WalkForwardConfig{
				FromYear:      backtestCfg.FromYear,
				FirstTestYear: backtestFirstYear,
				LastTestYear:  backtestLastYear,
				Threshold:     backtestCfg.Threshold,
				Options:       opts,
			})
			if err != nil {
				return err
			}
			fmt.Print(backtest.GenerateWalkForwardReport(result))
		} else {
			engine, err := backtest.NewEngine(a.repos.Matches, a.assembler, a.prediction.Estimator(), backtestCfg, appLogger)
			if err != nil {
				return err
			}
			result, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Print(backtest.GenerateConsoleReport(result.ModelVersion, result.Metrics))
			if backtestCfg.OutputPath != "" {
				fmt.Printf("Saved detailed results to %s\n", backtestCfg.OutputPath)
			}
		}

		if !backtestRetrain {
			return nil
		}
		trainer := service.NewTrainer(a.repos.Matches, a.assembler, service.TrainerConfig{
			FromYear:  backtestCfg.FromYear,
			ModelPath: cfg.Estimator.ModelPath,
			Options:   opts,
		}, appLogger)
		_, report, err := trainer.Train(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Retrained %s on %d matches, saved to %s\n", report.ModelVersion, report.Samples, report.ModelPath)
		return nil
	},
}
