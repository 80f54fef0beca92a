package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RunnerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
}

func barsFromCloses(closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	for i, close := range closes {
		bars[i] = types.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  close,
			High:  close,
			Low:   close,
			Close: close,
		}
	}

	return bars
}

// alternatingCloses yields 99, 101, 99, 101, ... so the trailing window has a
// mean of about 100 and a standard deviation of about 1.
func alternatingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}

	return closes
}

func (suite *RunnerTestSuite) newRunner(window int, multiplier float64) *Runner {
	runner, err := NewRunner(types.ParameterSet{
		WindowPeriod:   window,
		BandMultiplier: multiplier,
	}, nil, suite.logger)
	suite.Require().NoError(err)

	return runner
}

func (suite *RunnerTestSuite) TestInvalidParameters() {
	_, err := NewRunner(types.ParameterSet{WindowPeriod: 0, BandMultiplier: 2}, nil, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = NewRunner(types.ParameterSet{WindowPeriod: 20, BandMultiplier: -1}, nil, suite.logger)
	suite.Error(err)
}

func (suite *RunnerTestSuite) TestSingleRoundTrip() {
	// 20 warmup bars oscillating around 100, then a dip below the lower band
	// at bar 20, a partial recovery, and a close back above the mean at bar 22.
	closes := alternatingCloses(20)
	closes = append(closes, 90, 95, 100, 100, 100)

	runner := suite.newRunner(20, 2.0)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.PositionTypeLong, trade.Side)
	suite.InDelta(90.0, trade.EntryPrice, 1e-9)
	suite.InDelta(100.0, trade.ExitPrice, 1e-9)
	suite.InDelta(10.0, trade.PnL, 1e-9)

	suite.Equal(1, result.Metrics.TotalTrades)
	suite.Equal(1, result.Metrics.WinningTrades)
	suite.InDelta(10.0, result.Metrics.TotalPnL, 1e-9)
	suite.InDelta(types.ProfitFactorNoLosses, result.Metrics.ProfitFactor, 1e-9)

	// buy and hold is last close minus first close
	suite.InDelta(1.0, result.Metrics.BuyAndHoldPnL, 1e-9)
}

func (suite *RunnerTestSuite) TestFlatSeriesNoTrades() {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}

	runner := suite.newRunner(20, 2.0)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Equal(0, result.Metrics.TotalTrades)
	suite.Equal(0.0, result.Metrics.TotalPnL)
	suite.Equal(0.0, result.Metrics.MaxDrawdown)
}

func (suite *RunnerTestSuite) TestSeriesShorterThanWindow() {
	runner := suite.newRunner(20, 2.0)
	result, err := runner.Run(barsFromCloses([]float64{100, 101, 102}))
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Empty(result.EquityCurve)
	suite.Equal(0, result.Metrics.TotalTrades)
	suite.Equal(0.0, result.Metrics.TotalPnL)
}

func (suite *RunnerTestSuite) TestOpenPositionStaysUnrealized() {
	// The close dips below the band and never recovers to the mean: the long
	// entry stays open and contributes nothing to realized P&L.
	closes := alternatingCloses(20)
	closes = append(closes, 90, 90, 90, 90, 90)

	runner := suite.newRunner(20, 2.0)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Equal(0, result.Metrics.TotalTrades)
	suite.Equal(0.0, result.Metrics.TotalPnL)

	for _, point := range result.EquityCurve {
		suite.Equal(0.0, point.Equity)
	}
}

func (suite *RunnerTestSuite) TestEquityCurveCoversEveryEvaluatedBar() {
	closes := alternatingCloses(20)
	closes = append(closes, 90, 95, 100, 100, 100)

	runner := suite.newRunner(20, 2.0)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)

	// one point per bar from index window_period onward
	suite.Require().Len(result.EquityCurve, 5)
	suite.Equal(0.0, result.EquityCurve[0].Equity)
	suite.InDelta(10.0, result.EquityCurve[len(result.EquityCurve)-1].Equity, 1e-9)
}

func (suite *RunnerTestSuite) TestTradesDoNotOverlap() {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + 2*math.Sin(float64(i)/7)
	}

	runner := suite.newRunner(20, 1.5)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)
	suite.Require().NotEmpty(result.Trades)

	for i, trade := range result.Trades {
		suite.True(trade.ExitTime.After(trade.EntryTime))

		if i > 0 {
			suite.False(trade.EntryTime.Before(result.Trades[i-1].ExitTime))
		}
	}
}

func (suite *RunnerTestSuite) TestTotalPnLEqualsTradeSum() {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3) + 2*math.Sin(float64(i)/7)
	}

	runner := suite.newRunner(20, 1.5)
	result, err := runner.Run(barsFromCloses(closes))
	suite.Require().NoError(err)

	var sum float64
	for _, trade := range result.Trades {
		sum += trade.PnL
	}

	suite.InDelta(sum, result.Metrics.TotalPnL, 1e-9)
}

func (suite *RunnerTestSuite) TestDeterministicAcrossRuns() {
	closes := make([]float64, 500)
	for i := range closes {
		closes[i] = 100 + 8*math.Sin(float64(i)/5) + 3*math.Cos(float64(i)/11)
	}

	bars := barsFromCloses(closes)

	first, err := suite.newRunner(20, 2.0).Run(bars)
	suite.Require().NoError(err)

	second, err := suite.newRunner(20, 2.0).Run(bars)
	suite.Require().NoError(err)

	suite.Equal(first.Trades, second.Trades)
	suite.Equal(first.Metrics, second.Metrics)
	suite.Equal(first.EquityCurve, second.EquityCurve)
	suite.NotEqual(first.ID, second.ID)
}
