package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) TestAvgOutOfSamplePnL() {
	result := OptimizationResult{
		Validation: RunMetrics{TotalPnL: 100},
		Test:       RunMetrics{TotalPnL: 50},
	}
	suite.InDelta(75.0, result.AvgOutOfSamplePnL(), 1e-9)
}

func (suite *StatisticsTestSuite) TestWriteOptimizationResults() {
	tmpDir := suite.T().TempDir()
	path := filepath.Join(tmpDir, "results.yaml")

	results := []OptimizationResult{
		{
			Params:          ParameterSet{WindowPeriod: 20, BandMultiplier: 2.0},
			Train:           RunMetrics{TotalTrades: 10, TotalPnL: 150.5},
			Validation:      RunMetrics{TotalTrades: 4, TotalPnL: 50.0},
			Test:            RunMetrics{TotalTrades: 3, TotalPnL: 30.0},
			Consistency:     true,
			ValidationRatio: 0.33,
			TestRatio:       0.2,
		},
	}

	err := WriteOptimizationResults(path, results)
	suite.Require().NoError(err)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var loaded []OptimizationResult
	suite.Require().NoError(yaml.Unmarshal(data, &loaded))
	suite.Require().Len(loaded, 1)
	suite.Equal(20, loaded[0].Params.WindowPeriod)
	suite.InDelta(150.5, loaded[0].Train.TotalPnL, 1e-9)
	suite.True(loaded[0].Consistency)
}

func (suite *StatisticsTestSuite) TestWriteRunMetrics() {
	tmpDir := suite.T().TempDir()
	path := filepath.Join(tmpDir, "stats.yaml")

	metrics := RunMetrics{
		TotalTrades:   5,
		WinningTrades: 3,
		LosingTrades:  2,
		WinRate:       60.0,
		TotalPnL:      42.0,
	}

	suite.Require().NoError(WriteRunMetrics(path, metrics))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var loaded RunMetrics
	suite.Require().NoError(yaml.Unmarshal(data, &loaded))
	suite.Equal(metrics, loaded)
}
