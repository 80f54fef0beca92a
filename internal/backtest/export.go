package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
)

// WriteTradesCSV writes a run's trade log to a CSV file at the given path.
func WriteTradesCSV(path string, trades []types.Trade) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to create trades file %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"entry_time", "exit_time", "side", "entry_price", "exit_price", "pnl"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write trades header", err)
	}

	for _, trade := range trades {
		row := []string{
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			string(trade.Side),
			strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(trade.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(trade.PnL, 'f', -1, 64),
		}

		if err := writer.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write trade row", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// WriteEquityCurveCSV writes a run's realized equity curve to a CSV file at
// the given path.
func WriteEquityCurveCSV(path string, curve []types.EquityPoint) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to create equity curve file %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"time", "equity"}); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write equity curve header", err)
	}

	for _, point := range curve {
		row := []string{
			point.Time.Format(time.RFC3339),
			strconv.FormatFloat(point.Equity, 'f', -1, 64),
		}

		if err := writer.Write(row); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write equity curve row", err)
		}
	}

	writer.Flush()

	return writer.Error()
}
