package optimizer

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/backtest"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"go.uber.org/zap"
)

// Generalization classifies how well the recommended parameters carried from
// the train segment to the out-of-sample segments.
type Generalization string

const (
	// GeneralizationGood means both out-of-sample ratios reached 0.30.
	GeneralizationGood Generalization = "good"
	// GeneralizationModerate means both ratios are non-negative but at least
	// one fell short of 0.30.
	GeneralizationModerate Generalization = "moderate"
	// GeneralizationPoor means a ratio is negative or undefined, or no
	// consistent candidate exists.
	GeneralizationPoor Generalization = "poor"
)

// goodRatioThreshold is the out-of-sample ratio both segments must reach for
// a "good" classification.
const goodRatioThreshold = 0.30

// Summary is the outcome of one walk-forward optimization: the ranked
// out-of-sample results plus the recommendation derived from them.
type Summary struct {
	// Results holds one row per top-K candidate, ranked by train pnl
	// descending with ties broken by ascending window period, then ascending
	// band multiplier.
	Results []types.OptimizationResult
	// Recommendation is the consistent candidate with the best average
	// out-of-sample pnl, if any candidate is consistent at all.
	Recommendation optional.Option[types.OptimizationResult]
	// ConsistencyRate is the share of top-K candidates with positive pnl on
	// both out-of-sample segments.
	ConsistencyRate float64
	// Generalization classifies the recommendation's out-of-sample ratios.
	Generalization Generalization
}

// ProgressFunc is called after each completed train-grid evaluation.
type ProgressFunc func(completed, total int)

// Optimizer runs the walk-forward search: evaluate the whole parameter grid
// on the train segment, rank, then score the top K candidates on the
// validation and test segments with the same fixed parameters.
type Optimizer struct {
	config    Config
	logger    *logger.Logger
	runLogger *logger.Logger
	progress  ProgressFunc
}

// NewOptimizer creates an optimizer from a validated config. An invalid
// config fails fast before any run starts.
func NewOptimizer(config Config, log *logger.Logger) (*Optimizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Optimizer{
		config: config,
		logger: log,
		// Individual grid runs stay quiet; per-trade events across hundreds
		// of evaluations would drown the optimizer's own log.
		runLogger: logger.NewNopLogger(),
	}, nil
}

// OnProgress registers a callback invoked after every completed train-grid
// evaluation.
func (o *Optimizer) OnProgress(fn ProgressFunc) {
	o.progress = fn
}

type trainResult struct {
	params  types.ParameterSet
	metrics types.RunMetrics
}

// Run executes the walk-forward search over the given bar series. Grid
// evaluations run concurrently; ranking and scoring are deferred until all
// evaluations are collected so the ordering stays deterministic.
//
// Cancellation is cooperative and takes effect between evaluations, never mid
// run. A cancelled search still returns the summary of everything that
// completed, alongside an ErrCodeOptimizationCancelled error, so partial
// results can be persisted.
func (o *Optimizer) Run(ctx context.Context, bars []types.Bar) (*Summary, error) {
	grid := o.config.Grid()
	if len(grid) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyGrid, "parameter grid is empty")
	}

	split := SplitSeries(bars, o.config.TrainFraction, o.config.ValidationFraction)

	o.logger.Info("starting walk-forward optimization",
		zap.Int("grid_size", len(grid)),
		zap.Int("train_bars", len(split.Train)),
		zap.Int("validation_bars", len(split.Validation)),
		zap.Int("test_bars", len(split.Test)),
	)

	trained, trainErr := o.runTrainGrid(ctx, grid, split.Train)
	if trainErr != nil && !errors.HasCode(trainErr, errors.ErrCodeOptimizationCancelled) {
		return nil, trainErr
	}

	cancelled := trainErr != nil

	rankTrainResults(trained)

	topK := o.config.TopK
	if topK > len(trained) {
		topK = len(trained)
	}

	results := make([]types.OptimizationResult, 0, topK)

	for _, candidate := range trained[:topK] {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		result, err := o.scoreCandidate(candidate, split)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	summary := buildSummary(results)

	if cancelled {
		o.logger.Warn("optimization cancelled, keeping partial results",
			zap.Int("scored_candidates", len(results)),
		)

		return summary, errors.New(errors.ErrCodeOptimizationCancelled, "optimization cancelled before completion")
	}

	if summary.Recommendation.IsSome() {
		recommended := summary.Recommendation.Unwrap()
		o.logger.Info("optimization complete",
			zap.String("recommended", recommended.Params.String()),
			zap.Float64("consistency_rate", summary.ConsistencyRate),
			zap.String("generalization", string(summary.Generalization)),
		)
	} else {
		o.logger.Warn("optimization complete with no consistent candidate")
	}

	return summary, nil
}

// runTrainGrid evaluates every grid entry on the train segment using a
// bounded worker pool. On cancellation it returns whatever completed plus an
// ErrCodeOptimizationCancelled error.
func (o *Optimizer) runTrainGrid(ctx context.Context, grid []types.ParameterSet, train []types.Bar) ([]trainResult, error) {
	workers := o.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(grid) {
		workers = len(grid)
	}

	var (
		mu        sync.Mutex
		completed = make([]trainResult, 0, len(grid))
		done      int
		firstErr  error
	)

	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range jobs {
				params := grid[idx]

				metrics, err := o.evaluate(params, train)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					completed = append(completed, trainResult{params: params, metrics: metrics})
				}

				done++
				doneNow := done
				mu.Unlock()

				if o.progress != nil {
					o.progress(doneNow, len(grid))
				}
			}
		}()
	}

dispatch:
	for i := range grid {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}

	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if ctx.Err() != nil {
		return completed, errors.New(errors.ErrCodeOptimizationCancelled, "train grid cancelled")
	}

	return completed, nil
}

func (o *Optimizer) evaluate(params types.ParameterSet, segment []types.Bar) (types.RunMetrics, error) {
	runner, err := backtest.NewRunner(params, nil, o.runLogger)
	if err != nil {
		return types.RunMetrics{}, err
	}

	result, err := runner.Run(segment)
	if err != nil {
		return types.RunMetrics{}, errors.Wrapf(errors.ErrCodeOptimizationFailed, err, "grid evaluation failed for %s", params.String())
	}

	return result.Metrics, nil
}

// scoreCandidate runs one top-K candidate on the validation and test
// segments with the same fixed parameters and derives its out-of-sample
// scores.
func (o *Optimizer) scoreCandidate(candidate trainResult, split Split) (types.OptimizationResult, error) {
	validation, err := o.evaluate(candidate.params, split.Validation)
	if err != nil {
		return types.OptimizationResult{}, err
	}

	test, err := o.evaluate(candidate.params, split.Test)
	if err != nil {
		return types.OptimizationResult{}, err
	}

	result := types.OptimizationResult{
		Params:      candidate.params,
		Train:       candidate.metrics,
		Validation:  validation,
		Test:        test,
		Consistency: validation.TotalPnL > 0 && test.TotalPnL > 0,
	}

	// Ratios are undefined when the train segment realized nothing.
	if candidate.metrics.TotalPnL != 0 {
		result.ValidationRatio = validation.TotalPnL / candidate.metrics.TotalPnL
		result.TestRatio = test.TotalPnL / candidate.metrics.TotalPnL
	}

	return result, nil
}

// rankTrainResults orders by train pnl descending, breaking ties by
// ascending window period, then ascending band multiplier, so parallel
// evaluation order never changes the ranking.
func rankTrainResults(results []trainResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.metrics.TotalPnL != b.metrics.TotalPnL {
			return a.metrics.TotalPnL > b.metrics.TotalPnL
		}

		if a.params.WindowPeriod != b.params.WindowPeriod {
			return a.params.WindowPeriod < b.params.WindowPeriod
		}

		return a.params.BandMultiplier < b.params.BandMultiplier
	})
}

// Summarize rebuilds the report summary from previously ranked results, for
// example rows loaded back from the result store.
func Summarize(results []types.OptimizationResult) *Summary {
	return buildSummary(results)
}

func buildSummary(results []types.OptimizationResult) *Summary {
	summary := &Summary{
		Results:        results,
		Recommendation: optional.None[types.OptimizationResult](),
		Generalization: GeneralizationPoor,
	}

	if len(results) == 0 {
		return summary
	}

	consistent := 0

	for _, result := range results {
		if !result.Consistency {
			continue
		}

		consistent++

		if summary.Recommendation.IsNone() || result.AvgOutOfSamplePnL() > summary.Recommendation.Unwrap().AvgOutOfSamplePnL() {
			summary.Recommendation = optional.Some(result)
		}
	}

	summary.ConsistencyRate = float64(consistent) / float64(len(results))

	if summary.Recommendation.IsSome() {
		summary.Generalization = classifyGeneralization(summary.Recommendation.Unwrap())
	}

	return summary
}

func classifyGeneralization(result types.OptimizationResult) Generalization {
	if result.Train.TotalPnL == 0 {
		return GeneralizationPoor
	}

	if result.ValidationRatio < 0 || result.TestRatio < 0 {
		return GeneralizationPoor
	}

	if result.ValidationRatio >= goodRatioThreshold && result.TestRatio >= goodRatioThreshold {
		return GeneralizationGood
	}

	return GeneralizationModerate
}
