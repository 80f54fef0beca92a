// Package store persists optimization results and trade logs in DuckDB so
// interrupted or finished searches can be inspected later with SQL.
package store

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"go.uber.org/zap"
)

// InMemory is the path for a non-persistent store, useful in tests.
const InMemory = ":memory:"

// ResultStore records walk-forward results and trade logs in a DuckDB
// database, keyed by run ID. Saving the same run twice replaces the earlier
// rows.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens (or creates) a DuckDB database at the given path and
// ensures the result tables exist. Use InMemory for a throwaway store.
func NewResultStore(path string, log *logger.Logger) (*ResultStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreUnavailable, err, "failed to open database at %s", path)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeStoreUnavailable, err, "failed to connect to database at %s", path)
	}

	store := &ResultStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *ResultStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS optimization_results (
			run_id TEXT,
			rank INTEGER,
			window_period INTEGER,
			band_multiplier DOUBLE,
			train_pnl DOUBLE,
			train_trades INTEGER,
			validation_pnl DOUBLE,
			validation_trades INTEGER,
			test_pnl DOUBLE,
			test_trades INTEGER,
			win_rate DOUBLE,
			profit_factor DOUBLE,
			expectancy DOUBLE,
			consistency BOOLEAN,
			validation_ratio DOUBLE,
			test_ratio DOUBLE,
			created_at TIMESTAMP,
			PRIMARY KEY (run_id, window_period, band_multiplier)
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create optimization_results table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			side TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create trades table", err)
	}

	return nil
}

// SaveResults replaces any earlier rows for runID with the given ranked
// results. Partial results from a cancelled search save the same way as
// complete ones.
func (s *ResultStore) SaveResults(runID string, results []types.OptimizationResult) error {
	deleteQuery := s.sq.
		Delete("optimization_results").
		Where(squirrel.Eq{"run_id": runID}).
		RunWith(s.db)

	if _, err := deleteQuery.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to clear earlier results for run %s", runID)
	}

	now := time.Now().UTC()

	for rank, result := range results {
		insertQuery := s.sq.
			Insert("optimization_results").
			Columns(
				"run_id", "rank", "window_period", "band_multiplier",
				"train_pnl", "train_trades",
				"validation_pnl", "validation_trades",
				"test_pnl", "test_trades",
				"win_rate", "profit_factor", "expectancy",
				"consistency", "validation_ratio", "test_ratio",
				"created_at",
			).
			Values(
				runID, rank+1, result.Params.WindowPeriod, result.Params.BandMultiplier,
				result.Train.TotalPnL, result.Train.TotalTrades,
				result.Validation.TotalPnL, result.Validation.TotalTrades,
				result.Test.TotalPnL, result.Test.TotalTrades,
				result.Train.WinRate, result.Train.ProfitFactor, result.Train.Expectancy,
				result.Consistency, result.ValidationRatio, result.TestRatio,
				now,
			).
			RunWith(s.db)

		if _, err := insertQuery.Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to insert result for %s", result.Params.String())
		}
	}

	s.logger.Debug("saved optimization results",
		zap.String("run_id", runID),
		zap.Int("rows", len(results)),
	)

	return nil
}

// LoadResults returns the ranked results saved for runID, in rank order.
// Fields not stored in the table, such as the full per-segment metrics, come
// back zeroed.
func (s *ResultStore) LoadResults(runID string) ([]types.OptimizationResult, error) {
	selectQuery := s.sq.
		Select(
			"window_period", "band_multiplier",
			"train_pnl", "train_trades",
			"validation_pnl", "validation_trades",
			"test_pnl", "test_trades",
			"win_rate", "profit_factor", "expectancy",
			"consistency", "validation_ratio", "test_ratio",
		).
		From("optimization_results").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("rank ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "failed to query results for run %s", runID)
	}
	defer rows.Close()

	var results []types.OptimizationResult

	for rows.Next() {
		var result types.OptimizationResult

		err := rows.Scan(
			&result.Params.WindowPeriod,
			&result.Params.BandMultiplier,
			&result.Train.TotalPnL,
			&result.Train.TotalTrades,
			&result.Validation.TotalPnL,
			&result.Validation.TotalTrades,
			&result.Test.TotalPnL,
			&result.Test.TotalTrades,
			&result.Train.WinRate,
			&result.Train.ProfitFactor,
			&result.Train.Expectancy,
			&result.Consistency,
			&result.ValidationRatio,
			&result.TestRatio,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan result row", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "error iterating result rows", err)
	}

	return results, nil
}

// SaveTrades appends a run's trade log.
func (s *ResultStore) SaveTrades(runID string, trades []types.Trade) error {
	for _, trade := range trades {
		insertQuery := s.sq.
			Insert("trades").
			Columns("run_id", "entry_time", "exit_time", "side", "entry_price", "exit_price", "pnl").
			Values(runID, trade.EntryTime, trade.ExitTime, string(trade.Side), trade.EntryPrice, trade.ExitPrice, trade.PnL).
			RunWith(s.db)

		if _, err := insertQuery.Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeStoreWriteFailed, err, "failed to insert trade for run %s", runID)
		}
	}

	return nil
}

// LoadTrades returns a run's trade log in entry time order.
func (s *ResultStore) LoadTrades(runID string) ([]types.Trade, error) {
	selectQuery := s.sq.
		Select("entry_time", "exit_time", "side", "entry_price", "exit_price", "pnl").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("entry_time ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreReadFailed, err, "failed to query trades for run %s", runID)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var side string

		err := rows.Scan(&trade.EntryTime, &trade.ExitTime, &side, &trade.EntryPrice, &trade.ExitPrice, &trade.PnL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "failed to scan trade row", err)
		}

		trade.Side = types.PositionType(side)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreReadFailed, "error iterating trade rows", err)
	}

	return trades, nil
}

// Close releases the underlying database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
