package backtest

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the YAML configuration for a single backtest run.
type Config struct {
	WindowPeriod   int                        `yaml:"window_period" json:"window_period" jsonschema:"title=Window Period,description=Trailing window length for the rolling indicators,minimum=1"`
	BandMultiplier float64                    `yaml:"band_multiplier" json:"band_multiplier" jsonschema:"title=Band Multiplier,description=Number of standard deviations for the bands,exclusiveMinimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		WindowPeriod   int        `yaml:"window_period"`
		BandMultiplier float64    `yaml:"band_multiplier"`
		StartTime      *time.Time `yaml:"start_time"`
		EndTime        *time.Time `yaml:"end_time"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.WindowPeriod = raw.WindowPeriod
	c.BandMultiplier = raw.BandMultiplier

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Params returns the parameter set identified by this config.
func (c Config) Params() types.ParameterSet {
	return types.ParameterSet{
		WindowPeriod:   c.WindowPeriod,
		BandMultiplier: c.BandMultiplier,
	}
}

// DefaultConfig returns a Config with the reference defaults.
func DefaultConfig() Config {
	return Config{
		WindowPeriod:   20,
		BandMultiplier: 2.0,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}

// ParseConfig parses a YAML config string and validates its parameters.
func ParseConfig(content string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := config.Params().Validate(); err != nil {
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
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a single backtest run"
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
