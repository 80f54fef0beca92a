package optimizer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type OptimizerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestOptimizerSuite(t *testing.T) {
	suite.Run(t, new(OptimizerTestSuite))
}

func (suite *OptimizerTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
}

// sineBars builds an oscillating series that reverts to its mean in every
// segment, so band entries and mean-crossing exits occur throughout.
func sineBars(n int) []types.Bar {
	bars := make([]types.Bar, n)
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	for i := range bars {
		price := 100 + 8*math.Sin(float64(i)/5) + 3*math.Cos(float64(i)/11)
		bars[i] = types.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}

	return bars
}

func flatBars(n int) []types.Bar {
	bars := make([]types.Bar, n)
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	for i := range bars {
		bars[i] = types.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Close: 100,
		}
	}

	return bars
}

func (suite *OptimizerTestSuite) gridConfig() Config {
	config := DefaultConfig()
	config.WindowPeriods = []int{10, 20}
	config.BandMultipliers = []float64{1.0, 1.5, 2.0}
	config.TopK = 4

	return config
}

func (suite *OptimizerTestSuite) TestInvalidConfigFailsFast() {
	config := DefaultConfig()
	config.TopK = 0

	_, err := NewOptimizer(config, suite.logger)
	suite.Error(err)
}

func (suite *OptimizerTestSuite) TestRunRanksAndScoresTopK() {
	optimizer, err := NewOptimizer(suite.gridConfig(), suite.logger)
	suite.Require().NoError(err)

	summary, err := optimizer.Run(context.Background(), sineBars(400))
	suite.Require().NoError(err)

	suite.Require().Len(summary.Results, 4)

	for i := 1; i < len(summary.Results); i++ {
		suite.GreaterOrEqual(
			summary.Results[i-1].Train.TotalPnL,
			summary.Results[i].Train.TotalPnL,
		)
	}

	for _, result := range summary.Results {
		suite.Positive(result.Train.TotalTrades)

		if result.Train.TotalPnL != 0 {
			suite.InDelta(result.Validation.TotalPnL/result.Train.TotalPnL, result.ValidationRatio, 1e-9)
			suite.InDelta(result.Test.TotalPnL/result.Train.TotalPnL, result.TestRatio, 1e-9)
		}

		suite.Equal(
			result.Validation.TotalPnL > 0 && result.Test.TotalPnL > 0,
			result.Consistency,
		)
	}
}

func (suite *OptimizerTestSuite) TestRecommendationMaximizesOutOfSamplePnL() {
	optimizer, err := NewOptimizer(suite.gridConfig(), suite.logger)
	suite.Require().NoError(err)

	summary, err := optimizer.Run(context.Background(), sineBars(400))
	suite.Require().NoError(err)

	if summary.Recommendation.IsNone() {
		suite.Equal(GeneralizationPoor, summary.Generalization)
		suite.Equal(0.0, summary.ConsistencyRate)

		return
	}

	recommended := summary.Recommendation.Unwrap()
	suite.True(recommended.Consistency)

	for _, result := range summary.Results {
		if result.Consistency {
			suite.GreaterOrEqual(recommended.AvgOutOfSamplePnL(), result.AvgOutOfSamplePnL())
		}
	}
}

func (suite *OptimizerTestSuite) TestDeterministicAcrossParallelRuns() {
	bars := sineBars(400)

	sequential := suite.gridConfig()
	sequential.Workers = 1

	parallel := suite.gridConfig()
	parallel.Workers = 4

	first, err := NewOptimizer(sequential, suite.logger)
	suite.Require().NoError(err)

	second, err := NewOptimizer(parallel, suite.logger)
	suite.Require().NoError(err)

	firstSummary, err := first.Run(context.Background(), bars)
	suite.Require().NoError(err)

	secondSummary, err := second.Run(context.Background(), bars)
	suite.Require().NoError(err)

	suite.Equal(firstSummary.Results, secondSummary.Results)
	suite.Equal(firstSummary.ConsistencyRate, secondSummary.ConsistencyRate)
	suite.Equal(firstSummary.Generalization, secondSummary.Generalization)
}

func (suite *OptimizerTestSuite) TestZeroTradeTrainGuardsRatios() {
	config := DefaultConfig()
	config.WindowPeriods = []int{20}
	config.BandMultipliers = []float64{2.0}
	config.TopK = 1

	optimizer, err := NewOptimizer(config, suite.logger)
	suite.Require().NoError(err)

	// flat series: zero variance, zero trades, zero train pnl
	summary, err := optimizer.Run(context.Background(), flatBars(400))
	suite.Require().NoError(err)

	suite.Require().Len(summary.Results, 1)

	result := summary.Results[0]
	suite.Equal(0.0, result.Train.TotalPnL)
	suite.Equal(0.0, result.ValidationRatio)
	suite.Equal(0.0, result.TestRatio)
	suite.False(result.Consistency)

	suite.True(summary.Recommendation.IsNone())
	suite.Equal(GeneralizationPoor, summary.Generalization)
}

func (suite *OptimizerTestSuite) TestEmptyGrid() {
	config := DefaultConfig()

	optimizer, err := NewOptimizer(config, suite.logger)
	suite.Require().NoError(err)

	optimizer.config.WindowPeriods = nil

	_, err = optimizer.Run(context.Background(), sineBars(400))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyGrid))
}

func (suite *OptimizerTestSuite) TestCancellationKeepsPartialResults() {
	optimizer, err := NewOptimizer(suite.gridConfig(), suite.logger)
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := optimizer.Run(ctx, sineBars(400))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOptimizationCancelled))

	// a cancelled run still hands back whatever completed
	suite.Require().NotNil(summary)
	suite.LessOrEqual(len(summary.Results), 4)
}

func (suite *OptimizerTestSuite) TestProgressCallback() {
	config := suite.gridConfig()
	config.Workers = 1

	optimizer, err := NewOptimizer(config, suite.logger)
	suite.Require().NoError(err)

	var calls []int
	optimizer.OnProgress(func(completed, total int) {
		suite.Equal(6, total)
		calls = append(calls, completed)
	})

	_, err = optimizer.Run(context.Background(), sineBars(400))
	suite.Require().NoError(err)

	suite.Len(calls, 6)
	suite.Equal(6, calls[len(calls)-1])
}
