package optimizer

import (
	"encoding/json"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the YAML configuration for a walk-forward optimization: the
// parameter grid, the top-K cutoff, the chronological split fractions and the
// degree of parallelism.
type Config struct {
	// WindowPeriods is the grid of trailing window lengths to evaluate.
	WindowPeriods []int `yaml:"window_periods" json:"window_periods" validate:"required,min=1,dive,gte=1" jsonschema:"title=Window Periods,description=Grid of trailing window lengths to evaluate"`
	// BandMultipliers is the grid of band widths to evaluate.
	BandMultipliers []float64 `yaml:"band_multipliers" json:"band_multipliers" validate:"required,min=1,dive,gt=0" jsonschema:"title=Band Multipliers,description=Grid of band widths to evaluate"`
	// TopK is how many train-ranked candidates advance to out-of-sample runs.
	TopK int `yaml:"top_k" json:"top_k" validate:"gte=1" jsonschema:"title=Top K,description=Number of train-ranked candidates to score out of sample,minimum=1"`
	// TrainFraction is the leading share of the series used for training.
	TrainFraction float64 `yaml:"train_fraction" json:"train_fraction" validate:"gt=0,lt=1" jsonschema:"title=Train Fraction,description=Leading share of the series used for training"`
	// ValidationFraction is the middle share used for validation.
	ValidationFraction float64 `yaml:"validation_fraction" json:"validation_fraction" validate:"gt=0,lt=1" jsonschema:"title=Validation Fraction,description=Middle share of the series used for validation"`
	// TestFraction is the trailing share used for the final test.
	TestFraction float64 `yaml:"test_fraction" json:"test_fraction" validate:"gt=0,lt=1" jsonschema:"title=Test Fraction,description=Trailing share of the series used for the final test"`
	// Workers bounds the number of concurrent grid evaluations. Zero means
	// one worker per CPU.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0" jsonschema:"title=Workers,description=Concurrent grid evaluations; 0 uses one worker per CPU,minimum=0"`
}

// DefaultConfig returns the reference configuration: a 50/25/25 split and a
// top ten cutoff.
func DefaultConfig() Config {
	return Config{
		WindowPeriods:      []int{10, 20, 30, 50},
		BandMultipliers:    []float64{1.5, 2.0, 2.5},
		TopK:               10,
		TrainFraction:      0.50,
		ValidationFraction: 0.25,
		TestFraction:       0.25,
	}
}

// Validate checks the grid, the cutoff and the split fractions. The fractions
// must cover the whole series.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid optimizer config", err)
	}

	sum := c.TrainFraction + c.ValidationFraction + c.TestFraction
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.Newf(errors.ErrCodeInvalidSplit, "split fractions must sum to 1, got %.4f", sum)
	}

	return nil
}

// Grid expands the cross product of window periods and band multipliers, in
// deterministic order: window periods outer, band multipliers inner.
func (c Config) Grid() []types.ParameterSet {
	grid := make([]types.ParameterSet, 0, len(c.WindowPeriods)*len(c.BandMultipliers))

	for _, period := range c.WindowPeriods {
		for _, multiplier := range c.BandMultipliers {
			grid = append(grid, types.ParameterSet{
				WindowPeriod:   period,
				BandMultiplier: multiplier,
			})
		}
	}

	return grid
}

// ParseConfig parses a YAML optimizer config string on top of the defaults
// and validates it.
func ParseConfig(content string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse optimizer config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)

	schema.Title = "optimizer-config"
	schema.Description = "Configuration schema for a walk-forward optimization"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
