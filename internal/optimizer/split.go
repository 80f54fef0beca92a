package optimizer

import (
	"github.com/rxtech-lab/argo-walkforward/internal/types"
)

// Split is a chronological partition of a bar series into contiguous train,
// validation and test segments. The segments share the source backing array
// and together cover every bar exactly once.
type Split struct {
	Train      []types.Bar
	Validation []types.Bar
	Test       []types.Bar
}

// SplitSeries partitions bars by index: the leading trainFraction goes to
// train, the next validationFraction to validation, and the remainder, not a
// third fraction, to test, so the three segment lengths always sum to
// len(bars) regardless of rounding.
func SplitSeries(bars []types.Bar, trainFraction, validationFraction float64) Split {
	trainEnd := int(float64(len(bars)) * trainFraction)
	validationEnd := trainEnd + int(float64(len(bars))*validationFraction)

	if trainEnd > len(bars) {
		trainEnd = len(bars)
	}

	if validationEnd > len(bars) {
		validationEnd = len(bars)
	}

	return Split{
		Train:      bars[:trainEnd],
		Validation: bars[trainEnd:validationEnd],
		Test:       bars[validationEnd:],
	}
}
