package imputation

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
	"cyberguard/internal"
	"cyberguard/internal/config"
)

// Config controls the chained imputation procedure
type Config struct {
	MaxIterations          int
	Tolerance              float64
	HoldoutFraction        float64
	LowConfidenceThreshold float64
	Seed                   int64
}

// DefaultConfig returns the standard settings: 10 iterations, 1e-3
// tolerance, 20% held out, low confidence above 50% missing, seed 42.
func DefaultConfig() Config {
	return Config{
		MaxIterations:          10,
		Tolerance:              1e-3,
		HoldoutFraction:        0.2,
		LowConfidenceThreshold: 0.5,
		Seed:                   42,
	}
}

// ConfigFrom adapts the application configuration section
func ConfigFrom(c config.ImputationConfig) Config {
	return Config{
		MaxIterations:          c.MaxIterations,
		Tolerance:              c.Tolerance,
		HoldoutFraction:        c.HoldoutFraction,
		LowConfidenceThreshold: c.LowConfidenceThreshold,
		Seed:                   c.Seed,
	}
}

// Engine fills missing numeric cells by iterating a regression of the
// target on its predictors until the estimates settle.
type Engine struct {
	config Config
	logger *internal.Logger
	now    func() time.Time
}

// NewEngine creates an imputation engine
func NewEngine(config Config, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{config: config, logger: logger.Named("imputation"), now: time.Now}
}

// Config returns the engine settings
func (e *Engine) Config() Config { return e.config }

// Impute fills the missing cells of target from predictors. The input
// table is not modified. The result carries held-out evaluation metrics
// when enough observed rows exist to compute them.
func (e *Engine) Impute(t *dataset.Table, target string, predictors []string) (*domainstats.ImputationResult, error) {
	y, X, err := columns(t, target, predictors)
	if err != nil {
		return nil, err
	}

	missing := make([]bool, len(y))
	nMissing := 0
	for i, v := range y {
		if math.IsNaN(v) {
			missing[i] = true
			nMissing++
		}
	}
	if nObserved := len(y) - nMissing; nObserved < 1 {
		return nil, core.NewInsufficientSamplesError(fmt.Sprintf("observed %q", target), nObserved, 1)
	}

	run := e.chain(y, X)
	result := &domainstats.ImputationResult{
		RunID:        core.NewRunID(),
		Target:       target,
		Predictors:   append([]string(nil), predictors...),
		Original:     append([]float64(nil), y...),
		Missing:      missing,
		Imputed:      run.filled,
		MissingCount: nMissing,
		Iterations:   run.iterations,
		Converged:    run.converged,
		MaxDelta:     run.maxDelta,
		ComputedAt:   e.now(),
	}
	if len(y) > 0 {
		result.MissingFraction = float64(nMissing) / float64(len(y))
	}
	result.LowConfidence = result.MissingFraction > e.config.LowConfidenceThreshold

	eval, err := e.Evaluate(t, target, predictors)
	if err != nil {
		e.logger.Warn("evaluation of %q skipped: %v", target, err)
	} else {
		result.Evaluation = eval
	}

	e.logger.Info("imputed %d/%d cells of %q in %d iterations (converged=%t, max delta %.2g)",
		nMissing, len(y), target, run.iterations, run.converged, run.maxDelta)
	return result, nil
}

// Column returns the imputed values as a column named like the target
func Column(r *domainstats.ImputationResult) *dataset.Column {
	return dataset.NewNumericColumn(r.Target, append([]float64(nil), r.Imputed...))
}

// Apply returns a copy of t whose target column holds the imputed values
func Apply(t *dataset.Table, r *domainstats.ImputationResult) (*dataset.Table, error) {
	return t.WithColumn(Column(r))
}

func columns(t *dataset.Table, target string, predictors []string) ([]float64, [][]float64, error) {
	y, err := t.Numeric(target)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float64, 0, len(predictors))
	seen := map[string]bool{target: true}
	for _, p := range predictors {
		if seen[p] {
			return nil, nil, core.NewInvalidParameterError("predictors", fmt.Sprintf("%q listed twice or equal to the target", p))
		}
		seen[p] = true
		x, err := t.Numeric(p)
		if err != nil {
			return nil, nil, err
		}
		X = append(X, x)
	}
	return y, X, nil
}

type chainRun struct {
	filled     []float64
	iterations int
	converged  bool
	maxDelta   float64
}

// chain runs the iterative procedure on a copy of y. Missing
// cells start at the observed mean; each round refits the regression on
// every row with complete predictors and re-predicts the missing ones.
// Rows with a missing predictor keep the mean.
func (e *Engine) chain(y []float64, X [][]float64) chainRun {
	observed := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	mean, _ := stats.Mean(observed)

	filled := make([]float64, len(y))
	var targets []int
	for i, v := range y {
		if math.IsNaN(v) {
			filled[i] = mean
		} else {
			filled[i] = v
		}
	}

	rows := completeRows(X, len(y))
	for _, i := range rows {
		if math.IsNaN(y[i]) {
			targets = append(targets, i)
		}
	}

	run := chainRun{filled: filled, converged: true}
	if len(targets) == 0 || len(X) == 0 {
		return run
	}
	if len(rows) < len(X)+2 {
		e.logger.Debug("only %d complete rows for %d predictors, keeping mean fill", len(rows), len(X))
		return run
	}

	run.converged = false
	for iter := 1; iter <= e.config.MaxIterations; iter++ {
		beta, err := fitOLS(X, filled, rows)
		if err != nil {
			e.logger.Warn("regression failed at iteration %d, keeping previous estimates: %v", iter, err)
			break
		}
		maxDelta := 0.0
		for _, i := range targets {
			next := predict(beta, X, i)
			maxDelta = math.Max(maxDelta, math.Abs(next-filled[i]))
			filled[i] = next
		}
		run.iterations = iter
		run.maxDelta = maxDelta
		e.logger.Trace("iteration %d max delta %.6g", iter, maxDelta)
		if maxDelta < e.config.Tolerance {
			run.converged = true
			break
		}
	}
	return run
}

func completeRows(X [][]float64, n int) []int {
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ok := true
		for _, x := range X {
			if math.IsNaN(x[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}
