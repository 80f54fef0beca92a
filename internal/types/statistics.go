package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfitFactorNoLosses is the sentinel reported when every trade in a run is
// a winner and the win/loss ratio is undefined.
const ProfitFactorNoLosses = 999.99

// EquityPoint is one sample of the realized P&L curve, taken after each bar.
type EquityPoint struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Equity float64   `csv:"equity" yaml:"equity"`
}

// RunMetrics is the read-only summary derived once at the end of a run.
type RunMetrics struct {
	// Count of all realized trades.
	TotalTrades int `yaml:"total_trades" csv:"total_trades"`
	// Count of trades with positive pnl.
	WinningTrades int `yaml:"winning_trades" csv:"winning_trades"`
	// Count of trades with zero or negative pnl.
	LosingTrades int `yaml:"losing_trades" csv:"losing_trades"`
	// Win rate in percent, 0 when there are no trades.
	WinRate float64 `yaml:"win_rate" csv:"win_rate"`
	// Average winning trade pnl, 0 when there are no winners.
	AvgWin float64 `yaml:"avg_win" csv:"avg_win"`
	// Average losing trade pnl magnitude, 0 when there are no losers.
	AvgLoss float64 `yaml:"avg_loss" csv:"avg_loss"`
	// Summed wins over summed losses; ProfitFactorNoLosses when undefined.
	ProfitFactor float64 `yaml:"profit_factor" csv:"profit_factor"`
	// Probability-weighted average pnl per trade.
	Expectancy float64 `yaml:"expectancy" csv:"expectancy"`
	// Largest gap between peak equity and realized pnl over the run.
	MaxDrawdown float64 `yaml:"max_drawdown" csv:"max_drawdown"`
	// Sum of all realized trade pnls. Open positions are excluded.
	TotalPnL float64 `yaml:"total_pnl" csv:"total_pnl"`
	// Buy and hold benchmark pnl over the same segment.
	BuyAndHoldPnL float64 `yaml:"buy_and_hold_pnl" csv:"buy_and_hold_pnl"`
	// Largest single winning trade pnl.
	LargestWin float64 `yaml:"largest_win" csv:"largest_win"`
	// Largest single losing trade pnl (as a negative number).
	LargestLoss float64 `yaml:"largest_loss" csv:"largest_loss"`
}

// OptimizationResult is one row of the walk-forward results table: a
// parameter set with its train metrics and out-of-sample scores.
type OptimizationResult struct {
	Params ParameterSet `yaml:"params"`
	// Train holds the metrics from the training segment run.
	Train RunMetrics `yaml:"train"`
	// Validation holds the metrics from the validation segment run.
	Validation RunMetrics `yaml:"validation"`
	// Test holds the metrics from the test segment run.
	Test RunMetrics `yaml:"test"`
	// Consistency is true when both out-of-sample pnls are positive.
	Consistency bool `yaml:"consistency"`
	// ValidationRatio is validation pnl over train pnl, 0 when train pnl is 0.
	ValidationRatio float64 `yaml:"validation_ratio"`
	// TestRatio is test pnl over train pnl, 0 when train pnl is 0.
	TestRatio float64 `yaml:"test_ratio"`
}

// AvgOutOfSamplePnL is the average of validation and test pnl, the ranking
// key for the recommendation.
func (r OptimizationResult) AvgOutOfSamplePnL() float64 {
	return (r.Validation.TotalPnL + r.Test.TotalPnL) / 2
}

// WriteOptimizationResults marshals the results table to YAML and writes it
// to the given path.
func WriteOptimizationResults(path string, results []OptimizationResult) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write optimization results to file: %w", err)
	}

	return nil
}

// WriteRunMetrics marshals a run summary to YAML and writes it to the given path.
func WriteRunMetrics(path string, metrics RunMetrics) error {
	data, err := yaml.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal run metrics to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run metrics to file: %w", err)
	}

	return nil
}
