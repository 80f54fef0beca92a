// Package datasource loads ordered OHLCV bar series from delimited text
// files. Row order in the file is chronological order; the loader never
// reorders bars.
package datasource

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"go.uber.org/zap"
)

// minUsableFields is timestamp plus the four price columns; volume is
// optional and defaults to 0 when absent.
const minUsableFields = 5

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVLoader reads bar series from CSV files with a required header row of
// timestamp,open,high,low,close,volume.
type CSVLoader struct {
	logger *logger.Logger
}

// NewCSVLoader creates a new CSV loader.
func NewCSVLoader(logger *logger.Logger) *CSVLoader {
	return &CSVLoader{
		logger: logger,
	}
}

// Load reads all bars from the file at path, optionally filtered to
// [start, end]. Malformed rows are skipped with a warning and never abort the
// load. An unreadable file returns a typed error; whether that is fatal is
// the caller's policy.
func (l *CSVLoader) Load(path string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open data file %s", path)
	}
	defer file.Close()

	bars, err := l.read(file, start, end)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loaded bar series",
		zap.String("path", path),
		zap.Int("bars", len(bars)),
	)

	return bars, nil
}

func (l *CSVLoader) read(r io.Reader, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	reader := csv.NewReader(r)
	// Rows may have a trailing or missing volume field
	reader.FieldsPerRecord = -1

	// Header row is required and discarded
	if _, err := reader.Read(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to read header row", err)
	}

	var bars []types.Bar

	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		line++

		if err != nil {
			l.logger.Warn("Skipping unreadable row",
				zap.Int("line", line),
				zap.Error(err),
			)

			continue
		}

		bar, ok := l.parseRecord(record, line)
		if !ok {
			continue
		}

		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (l *CSVLoader) parseRecord(record []string, line int) (types.Bar, bool) {
	if len(record) < minUsableFields {
		l.logger.Warn("Skipping row with too few fields",
			zap.Int("line", line),
			zap.Int("fields", len(record)),
		)

		return types.Bar{}, false
	}

	timestamp, err := parseTimestamp(strings.TrimSpace(record[0]))
	if err != nil {
		l.logger.Warn("Skipping row with malformed timestamp",
			zap.Int("line", line),
			zap.String("timestamp", record[0]),
		)

		return types.Bar{}, false
	}

	prices := make([]float64, 4)

	for i := 0; i < 4; i++ {
		value, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			l.logger.Warn("Skipping row with malformed price field",
				zap.Int("line", line),
				zap.String("field", record[i+1]),
			)

			return types.Bar{}, false
		}

		prices[i] = value
	}

	// Volume is optional; malformed or missing volume defaults to 0
	var volume float64

	if len(record) > 5 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64); err == nil {
			volume = v
		}
	}

	return types.Bar{
		Time:   timestamp,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}, true
}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}

		lastErr = err
	}

	return time.Time{}, lastErr
}
