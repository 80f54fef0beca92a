package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/backtest"
	"github.com/rxtech-lab/argo-walkforward/internal/datasource"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/store"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the bar series, runs a single backtest and prints the
// trade events and the summary block.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	configPath := cmd.String("config")
	outputDir := cmd.String("output")
	storePath := cmd.String("store")

	appLogger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	config := backtest.DefaultConfig()

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = backtest.ParseConfig(string(content))
		if err != nil {
			return err
		}
	}

	// Flags override the config file.
	if cmd.IsSet("window") {
		config.WindowPeriod = int(cmd.Int("window"))
	}

	if cmd.IsSet("multiplier") {
		config.BandMultiplier = cmd.Float("multiplier")
	}

	if cmd.IsSet("start") {
		config.StartTime = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		config.EndTime = optional.Some(cmd.Timestamp("end"))
	}

	loader := datasource.NewCSVLoader(appLogger)

	bars, err := loader.Load(dataPath, config.StartTime, config.EndTime)
	if err != nil {
		return err
	}

	if len(bars) == 0 {
		return errors.NewInsufficientDataErrorf(1, 0, "no usable bars loaded from %s", dataPath)
	}

	runner, err := backtest.NewRunner(config.Params(), nil, appLogger)
	if err != nil {
		return err
	}

	result, err := runner.Run(bars)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, config.Params(), result)

	if outputDir != "" {
		if err := writeOutputs(outputDir, result); err != nil {
			return err
		}
	}

	if storePath != "" {
		resultStore, err := store.NewResultStore(storePath, appLogger)
		if err != nil {
			return err
		}
		defer resultStore.Close()

		if err := resultStore.SaveTrades(result.ID, result.Trades); err != nil {
			return err
		}
	}

	return nil
}

func newLogger(verbose bool) (*logger.Logger, error) {
	if verbose {
		return logger.NewDebugLogger()
	}

	return logger.NewLogger()
}

func printSummary(w *os.File, params types.ParameterSet, result *backtest.Result) {
	metrics := result.Metrics

	fmt.Fprintln(w)
	fmt.Fprintf(w, "=== Backtest Summary (%s) ===\n", params.String())
	fmt.Fprintf(w, "total trades:     %d\n", metrics.TotalTrades)
	fmt.Fprintf(w, "winning trades:   %d\n", metrics.WinningTrades)
	fmt.Fprintf(w, "losing trades:    %d\n", metrics.LosingTrades)
	fmt.Fprintf(w, "win rate:         %.1f%%\n", metrics.WinRate)
	fmt.Fprintf(w, "total pnl:        %.2f\n", metrics.TotalPnL)
	fmt.Fprintf(w, "buy and hold pnl: %.2f\n", metrics.BuyAndHoldPnL)
	fmt.Fprintf(w, "max drawdown:     %.2f\n", metrics.MaxDrawdown)
	fmt.Fprintf(w, "avg win:          %.2f\n", metrics.AvgWin)
	fmt.Fprintf(w, "avg loss:         %.2f\n", metrics.AvgLoss)
	fmt.Fprintf(w, "largest win:      %.2f\n", metrics.LargestWin)
	fmt.Fprintf(w, "largest loss:     %.2f\n", metrics.LargestLoss)
	fmt.Fprintf(w, "profit factor:    %.2f\n", metrics.ProfitFactor)
	fmt.Fprintf(w, "expectancy:       %.2f\n", metrics.Expectancy)
}

func writeOutputs(outputDir string, result *backtest.Result) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := types.WriteRunMetrics(filepath.Join(outputDir, "metrics.yaml"), result.Metrics); err != nil {
		return err
	}

	if err := backtest.WriteTradesCSV(filepath.Join(outputDir, "trades.csv"), result.Trades); err != nil {
		return err
	}

	return backtest.WriteEquityCurveCSV(filepath.Join(outputDir, "equity.csv"), result.EquityCurve)
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a single mean reversion backtest over a CSV bar series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the CSV bar series",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML backtest config",
			},
			&cli.IntFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Trailing window length, overrides the config",
			},
			&cli.FloatFlag{
				Name:    "multiplier",
				Aliases: []string{"m"},
				Usage:   "Band multiplier, overrides the config",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start of the backtest period in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End of the backtest period in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for the metrics, trades and equity curve files",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to a DuckDB database for the trade log",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
