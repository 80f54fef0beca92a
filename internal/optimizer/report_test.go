package optimizer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
	summary *Summary
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) SetupTest() {
	result := types.OptimizationResult{
		Params:          types.ParameterSet{WindowPeriod: 20, BandMultiplier: 2.0},
		Train:           types.RunMetrics{TotalTrades: 12, TotalPnL: 50, WinRate: 66.7, ProfitFactor: 2.1, Expectancy: 4.2},
		Validation:      types.RunMetrics{TotalTrades: 5, TotalPnL: 20},
		Test:            types.RunMetrics{TotalTrades: 6, TotalPnL: 25},
		Consistency:     true,
		ValidationRatio: 0.4,
		TestRatio:       0.5,
	}

	suite.summary = &Summary{
		Results:         []types.OptimizationResult{result},
		Recommendation:  optional.Some(result),
		ConsistencyRate: 1.0,
		Generalization:  GeneralizationGood,
	}
}

func (suite *ReportTestSuite) TestWriteText() {
	var buf bytes.Buffer

	err := WriteText(&buf, suite.summary)
	suite.Require().NoError(err)

	output := buf.String()
	suite.Contains(output, "window_period")
	suite.Contains(output, "validation_ratio")
	suite.Contains(output, "window=20 multiplier=2.00")
	suite.Contains(output, "generalization:   good")
	suite.Contains(output, "consistency rate: 100%")
}

func (suite *ReportTestSuite) TestWriteTextNoRecommendation() {
	suite.summary.Recommendation = optional.None[types.OptimizationResult]()

	var buf bytes.Buffer

	err := WriteText(&buf, suite.summary)
	suite.Require().NoError(err)

	suite.Contains(buf.String(), "no consistent candidate")
}

func (suite *ReportTestSuite) TestWriteCSV() {
	path := filepath.Join(suite.T().TempDir(), "results.csv")

	err := WriteCSV(path, suite.summary.Results)
	suite.Require().NoError(err)

	file, err := os.Open(path)
	suite.Require().NoError(err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	suite.Require().NoError(err)

	suite.Require().Len(rows, 2)
	suite.Equal(reportColumns, rows[0])
	suite.Equal("20", rows[1][0])
	suite.Equal("2.00", rows[1][1])
	suite.Equal("50.00", rows[1][2])
	suite.Equal("true", rows[1][11])
}

func (suite *ReportTestSuite) TestWriteYAML() {
	path := filepath.Join(suite.T().TempDir(), "results.yaml")

	err := WriteYAML(path, suite.summary.Results)
	suite.Require().NoError(err)

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	suite.Contains(string(content), "window_period: 20")
	suite.Contains(string(content), "validation_ratio: 0.4")
}
