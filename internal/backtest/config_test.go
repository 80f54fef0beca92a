package backtest

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseFullConfig() {
	content := `
window_period: 30
band_multiplier: 1.5
start_time: 2024-01-01T00:00:00Z
end_time: 2024-06-30T00:00:00Z
`

	config, err := ParseConfig(content)
	suite.Require().NoError(err)

	suite.Equal(30, config.WindowPeriod)
	suite.Equal(1.5, config.BandMultiplier)

	suite.Require().True(config.StartTime.IsSome())
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())

	suite.Require().True(config.EndTime.IsSome())
	suite.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
}

func (suite *ConfigTestSuite) TestParseAppliesDefaults() {
	config, err := ParseConfig("window_period: 50\nband_multiplier: 2.5\n")
	suite.Require().NoError(err)

	suite.Equal(50, config.WindowPeriod)
	suite.Equal(2.5, config.BandMultiplier)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestParseInvalidYAML() {
	_, err := ParseConfig("window_period: [not a number")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestParseRejectsInvalidParameters() {
	_, err := ParseConfig("window_period: 0\nband_multiplier: 2.0\n")
	suite.Error(err)

	_, err = ParseConfig("window_period: 20\nband_multiplier: -1\n")
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestDefaultConfig() {
	config := DefaultConfig()
	suite.Equal(20, config.WindowPeriod)
	suite.Equal(2.0, config.BandMultiplier)
	suite.NoError(config.Params().Validate())
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	suite.Contains(schema, "window_period")
	suite.Contains(schema, "band_multiplier")
	suite.Contains(schema, "date-time")
}
