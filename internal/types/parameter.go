package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
)

// ParameterSet identifies one strategy configuration. It is an immutable
// value; the optimizer evaluates a grid of them.
type ParameterSet struct {
	// WindowPeriod is the trailing window length for the rolling indicators.
	WindowPeriod int `yaml:"window_period" json:"window_period" csv:"window_period" validate:"required,gte=1" jsonschema:"title=Window Period,description=Trailing window length for the rolling indicators,minimum=1"`
	// BandMultiplier is the number of standard deviations for the bands.
	BandMultiplier float64 `yaml:"band_multiplier" json:"band_multiplier" csv:"band_multiplier" validate:"required,gt=0" jsonschema:"title=Band Multiplier,description=Number of standard deviations for the bands,exclusiveMinimum=0"`
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("window=%d multiplier=%.2f", p.WindowPeriod, p.BandMultiplier)
}

// Validate validates the ParameterSet struct. Invalid parameters fail fast
// before any run starts since no well-defined output exists for them.
func (p ParameterSet) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid parameter set", err)
	}

	return nil
}
