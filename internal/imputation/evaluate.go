package imputation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

// Evaluate estimates how well the procedure recovers known values: it hides
// HoldoutFraction of the observed target cells (chosen with the configured
// seed), imputes them on a working copy and compares against the truth.
// The mean of the remaining observed cells serves as the baseline.
func (e *Engine) Evaluate(t *dataset.Table, target string, predictors []string) (*domainstats.ImputationEvaluation, error) {
	y, X, err := columns(t, target, predictors)
	if err != nil {
		return nil, err
	}
	if e.config.HoldoutFraction <= 0 || e.config.HoldoutFraction >= 1 {
		return nil, core.NewInvalidParameterError("holdout fraction", fmt.Sprintf("%g is outside (0, 1)", e.config.HoldoutFraction))
	}

	var observed []int
	for i, v := range y {
		if !math.IsNaN(v) {
			observed = append(observed, i)
		}
	}
	holdout := int(math.Round(e.config.HoldoutFraction * float64(len(observed))))
	if holdout < 1 || len(observed)-holdout < 2 {
		return nil, core.NewInsufficientSamplesError(fmt.Sprintf("observed %q", target), len(observed), 3)
	}

	rng := rand.New(rand.NewSource(e.config.Seed))
	perm := rng.Perm(len(observed))
	masked := make([]int, holdout)
	for k := range masked {
		masked[k] = observed[perm[k]]
	}

	work := append([]float64(nil), y...)
	for _, i := range masked {
		work[i] = math.NaN()
	}
	run := e.chain(work, X)

	var training []float64
	for _, v := range work {
		if !math.IsNaN(v) {
			training = append(training, v)
		}
	}
	baseline, _ := stats.Mean(training)

	truth := make([]float64, holdout)
	predicted := make([]float64, holdout)
	meanFill := make([]float64, holdout)
	for k, i := range masked {
		truth[k] = y[i]
		predicted[k] = run.filled[i]
		meanFill[k] = baseline
	}

	return &domainstats.ImputationEvaluation{
		Metrics:         Metrics(truth, predicted),
		Baseline:        Metrics(truth, meanFill),
		HoldoutFraction: e.config.HoldoutFraction,
		Seed:            e.config.Seed,
		Iterations:      run.iterations,
		Converged:       run.converged,
	}, nil
}

// Metrics compares predictions with the truth. MAPE is a percentage and
// skips rows whose true value is zero; it is NaN when every row does.
func Metrics(truth, predicted []float64) domainstats.ImputationMetrics {
	m := domainstats.ImputationMetrics{N: len(truth)}
	if len(truth) == 0 {
		m.MAE, m.RMSE, m.MAPE = math.NaN(), math.NaN(), math.NaN()
		return m
	}
	abs := make([]float64, len(truth))
	sq := make([]float64, len(truth))
	var pct []float64
	for i := range truth {
		d := truth[i] - predicted[i]
		abs[i] = math.Abs(d)
		sq[i] = d * d
		if truth[i] != 0 {
			pct = append(pct, math.Abs(d/truth[i]))
		}
	}
	m.MAE, _ = stats.Mean(abs)
	mse, _ := stats.Mean(sq)
	m.RMSE = math.Sqrt(mse)
	if len(pct) == 0 {
		m.MAPE = math.NaN()
	} else {
		mape, _ := stats.Mean(pct)
		m.MAPE = mape * 100
	}
	return m
}

// MaskRandom returns a copy of t where round(fraction * observed) of the
// column's observed cells, chosen with seed, are set missing. It also
// returns the masked row indices in ascending order.
func MaskRandom(t *dataset.Table, column string, fraction float64, seed int64) (*dataset.Table, []int, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, nil, core.NewUnknownColumnError(column)
	}
	if fraction < 0 || fraction > 1 {
		return nil, nil, core.NewInvalidParameterError("fraction", fmt.Sprintf("%g is outside [0, 1]", fraction))
	}

	var observed []int
	for i := 0; i < col.Len(); i++ {
		if !col.IsMissing(i) {
			observed = append(observed, i)
		}
	}
	n := int(math.Round(fraction * float64(len(observed))))

	rng := rand.New(rand.NewSource(seed))
	pick := make([]bool, col.Len())
	for _, k := range rng.Perm(len(observed))[:n] {
		pick[observed[k]] = true
	}

	out := col.Clone()
	rows := make([]int, 0, n)
	for i, masked := range pick {
		if !masked {
			continue
		}
		rows = append(rows, i)
		if out.Type == dataset.Numeric {
			out.Numbers[i] = math.NaN()
		} else {
			out.Strings[i] = ""
		}
	}
	masked, err := t.WithColumn(out)
	if err != nil {
		return nil, nil, err
	}
	return masked, rows, nil
}
