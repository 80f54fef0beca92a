package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
)

// reportColumns is the shared column order for the text and CSV reports.
var reportColumns = []string{
	"window_period",
	"band_multiplier",
	"train_pnl",
	"train_trades",
	"validation_pnl",
	"validation_trades",
	"test_pnl",
	"test_trades",
	"win_rate",
	"profit_factor",
	"expectancy",
	"consistency",
	"validation_ratio",
	"test_ratio",
}

func reportRow(result types.OptimizationResult) []string {
	return []string{
		strconv.Itoa(result.Params.WindowPeriod),
		strconv.FormatFloat(result.Params.BandMultiplier, 'f', 2, 64),
		strconv.FormatFloat(result.Train.TotalPnL, 'f', 2, 64),
		strconv.Itoa(result.Train.TotalTrades),
		strconv.FormatFloat(result.Validation.TotalPnL, 'f', 2, 64),
		strconv.Itoa(result.Validation.TotalTrades),
		strconv.FormatFloat(result.Test.TotalPnL, 'f', 2, 64),
		strconv.Itoa(result.Test.TotalTrades),
		strconv.FormatFloat(result.Train.WinRate, 'f', 1, 64),
		strconv.FormatFloat(result.Train.ProfitFactor, 'f', 2, 64),
		strconv.FormatFloat(result.Train.Expectancy, 'f', 2, 64),
		strconv.FormatBool(result.Consistency),
		strconv.FormatFloat(result.ValidationRatio, 'f', 2, 64),
		strconv.FormatFloat(result.TestRatio, 'f', 2, 64),
	}
}

// WriteText renders the ranked results table and the recommendation block as
// an aligned, human-readable report.
func WriteText(w io.Writer, summary *Summary) error {
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, column := range reportColumns {
		if i > 0 {
			fmt.Fprint(table, "\t")
		}

		fmt.Fprint(table, column)
	}

	fmt.Fprintln(table)

	for _, result := range summary.Results {
		for i, cell := range reportRow(result) {
			if i > 0 {
				fmt.Fprint(table, "\t")
			}

			fmt.Fprint(table, cell)
		}

		fmt.Fprintln(table)
	}

	if err := table.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "consistency rate: %.0f%%\n", summary.ConsistencyRate*100)
	fmt.Fprintf(w, "generalization:   %s\n", summary.Generalization)

	if summary.Recommendation.IsSome() {
		recommended := summary.Recommendation.Unwrap()
		fmt.Fprintf(w, "recommended:      %s (avg out-of-sample pnl %.2f)\n",
			recommended.Params.String(), recommended.AvgOutOfSamplePnL())
	} else {
		fmt.Fprintln(w, "recommended:      none (no consistent candidate)")
	}

	return nil
}

// WriteCSV writes the ranked results table to a CSV file at the given path.
func WriteCSV(path string, results []types.OptimizationResult) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to create results file %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(reportColumns); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write results header", err)
	}

	for _, result := range results {
		if err := writer.Write(reportRow(result)); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write results row", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteYAML writes the ranked results table to a YAML file at the given path.
func WriteYAML(path string, results []types.OptimizationResult) error {
	return types.WriteOptimizationResults(path, results)
}
