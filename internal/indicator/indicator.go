// Package indicator computes the rolling statistics used by the mean
// reversion strategy: simple moving average, population standard deviation,
// and the bands derived from them.
//
// All functions return 0 when fewer than period bars are available. Callers
// must treat that as "not ready, skip this bar", never as a valid reading.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-walkforward/internal/types"
)

// SMA returns the mean of close prices over the period bars ending at and
// including index i. Returns 0 when i < period-1.
func SMA(bars []types.Bar, i, period int) float64 {
	if period < 1 || i < period-1 || i >= len(bars) {
		return 0
	}

	var sum float64
	for j := 0; j < period; j++ {
		sum += bars[i-j].Close
	}

	return sum / float64(period)
}

// Std returns the population standard deviation (divisor = period, not
// period-1) of close prices over the period bars ending at and including
// index i, around the given mean. Returns 0 when i < period-1.
func Std(bars []types.Bar, i, period int, mean float64) float64 {
	if period < 1 || i < period-1 || i >= len(bars) {
		return 0
	}

	var sumSqDiff float64

	for j := 0; j < period; j++ {
		diff := bars[i-j].Close - mean
		sumSqDiff += diff * diff
	}

	return math.Sqrt(sumSqDiff / float64(period))
}

// Bands returns the upper and lower bands around the mean.
func Bands(mean, std, multiplier float64) (upper, lower float64) {
	upper = mean + multiplier*std
	lower = mean - multiplier*std

	return upper, lower
}
