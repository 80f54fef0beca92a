package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/datasource"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/optimizer"
	"github.com/rxtech-lab/argo-walkforward/internal/store"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// optimizeAction runs the walk-forward grid search and writes the ranked
// results. An interrupt cancels the search between evaluations and still
// persists whatever completed.
func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	configPath := cmd.String("config")
	outputDir := cmd.String("output")
	storePath := cmd.String("store")
	resumeID := cmd.String("resume")

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	if resumeID != "" {
		return resumeAction(resumeID, storePath, appLogger)
	}

	if dataPath == "" {
		return fmt.Errorf("--data is required unless resuming a stored run")
	}

	config := optimizer.DefaultConfig()

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = optimizer.ParseConfig(string(content))
		if err != nil {
			return err
		}
	}

	if cmd.IsSet("workers") {
		config.Workers = int(cmd.Int("workers"))
	}

	if cmd.IsSet("top-k") {
		config.TopK = int(cmd.Int("top-k"))
	}

	loader := datasource.NewCSVLoader(appLogger)

	bars, err := loader.Load(dataPath, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	if len(bars) == 0 {
		return errors.NewInsufficientDataErrorf(1, 0, "no usable bars loaded from %s", dataPath)
	}

	search, err := optimizer.NewOptimizer(config, appLogger)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(config.Grid())))
	bar.Describe(fmt.Sprintf("Evaluating %d parameter sets", len(config.Grid())))

	search.OnProgress(func(completed, total int) {
		_ = bar.Set(completed)
	})

	// SIGINT/SIGTERM cancel cooperatively between grid evaluations.
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := search.Run(runCtx, bars)

	cancelled := runErr != nil && errors.HasCode(runErr, errors.ErrCodeOptimizationCancelled)
	if runErr != nil && !cancelled {
		return runErr
	}

	_ = bar.Finish()

	if err := optimizer.WriteText(os.Stdout, summary); err != nil {
		return err
	}

	runID := uuid.New().String()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		if err := optimizer.WriteYAML(filepath.Join(outputDir, "results.yaml"), summary.Results); err != nil {
			return err
		}

		if err := optimizer.WriteCSV(filepath.Join(outputDir, "results.csv"), summary.Results); err != nil {
			return err
		}
	}

	if storePath != "" {
		resultStore, err := store.NewResultStore(storePath, appLogger)
		if err != nil {
			return err
		}
		defer resultStore.Close()

		if err := resultStore.SaveResults(runID, summary.Results); err != nil {
			return err
		}

		appLogger.Info("results persisted",
			zap.String("run_id", runID),
			zap.String("store", storePath),
		)
	}

	if cancelled {
		appLogger.Warn("search interrupted, partial results written",
			zap.Int("scored_candidates", len(summary.Results)),
		)

		return runErr
	}

	return nil
}

// resumeAction reloads the ranked results of an earlier run from the store
// and re-renders the report without re-running the search.
func resumeAction(runID, storePath string, appLogger *logger.Logger) error {
	if storePath == "" {
		return fmt.Errorf("--resume requires --store")
	}

	resultStore, err := store.NewResultStore(storePath, appLogger)
	if err != nil {
		return err
	}
	defer resultStore.Close()

	results, err := resultStore.LoadResults(runID)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		return fmt.Errorf("no stored results for run %s", runID)
	}

	return optimizer.WriteText(os.Stdout, optimizer.Summarize(results))
}

func main() {
	cmd := &cli.Command{
		Name:  "optimize",
		Usage: "Walk-forward optimize mean reversion parameters over a CSV bar series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the CSV bar series",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML optimizer config",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for the results YAML and CSV files",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to a DuckDB database for the ranked results",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent grid evaluations, overrides the config",
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of candidates scored out of sample, overrides the config",
			},
			&cli.StringFlag{
				Name:  "resume",
				Usage: "Run ID of stored results to re-render instead of searching",
			},
		},
		Action: optimizeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
