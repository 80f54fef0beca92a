package indicator

import "math"

// RollingWindow maintains a running sum and sum of squares over a fixed
// trailing window so the per-bar cost of SMA and Std is O(1) instead of
// O(period).
//
// Numeric contract: Mean and Std match the direct SMA/Std computation within
// a small relative tolerance (1e-9 on well-scaled price data), not
// bit-for-bit. The running sum of squares can drift slightly below zero for
// constant series, so the variance is clamped at 0.
type RollingWindow struct {
	period int
	values []float64
	next   int
	count  int
	sum    float64
	sumSq  float64
}

// NewRollingWindow creates a rolling window over period samples.
func NewRollingWindow(period int) *RollingWindow {
	return &RollingWindow{
		period: period,
		values: make([]float64, period),
	}
}

// Push adds a sample, evicting the oldest when the window is full.
func (w *RollingWindow) Push(v float64) {
	if w.count == w.period {
		old := w.values[w.next]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.count++
	}

	w.values[w.next] = v
	w.sum += v
	w.sumSq += v * v
	w.next = (w.next + 1) % w.period
}

// Ready reports whether a full window of samples has been seen.
func (w *RollingWindow) Ready() bool {
	return w.count == w.period
}

// Mean returns the window mean, or 0 when the window is not ready.
func (w *RollingWindow) Mean() float64 {
	if !w.Ready() {
		return 0
	}

	return w.sum / float64(w.period)
}

// Std returns the population standard deviation of the window, or 0 when the
// window is not ready.
func (w *RollingWindow) Std() float64 {
	if !w.Ready() {
		return 0
	}

	mean := w.sum / float64(w.period)

	variance := w.sumSq/float64(w.period) - mean*mean
	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance)
}
