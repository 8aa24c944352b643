package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cyberguard/domain/dataset"
	"cyberguard/domain/stats"
)

// Correlation computes pairwise Pearson coefficients over rows where both
// columns are present. Pairs with fewer than two overlapping rows or zero
// variance are NaN. An empty cols selects every numeric column.
func (e *Engine) Correlation(t *dataset.Table, cols []string) (*stats.CorrelationMatrix, error) {
	names, values, err := resolveColumns(t, cols)
	if err != nil {
		return nil, err
	}

	k := len(names)
	m := &stats.CorrelationMatrix{
		Columns: names,
		Values:  make([][]float64, k),
		Overlap: make([][]int, k),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, k)
		m.Overlap[i] = make([]int, k)
	}

	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			r, n := pearson(values[i], values[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j], m.Values[j][i] = r, r
			m.Overlap[i][j], m.Overlap[j][i] = n, n
		}
	}
	return m, nil
}

// pearson returns the coefficient over pairwise-complete rows and the
// number of such rows.
func pearson(x, y []float64) (float64, int) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < 2 {
		return math.NaN(), n
	}
	if _, vx := stat.MeanVariance(xs, nil); vx == 0 {
		return math.NaN(), n
	}
	if _, vy := stat.MeanVariance(ys, nil); vy == 0 {
		return math.NaN(), n
	}
	r := stat.Correlation(xs, ys, nil)
	// guard rounding just outside [-1, 1]
	return math.Max(-1, math.Min(1, r)), n
}

// TargetCorrelations ranks features by their coefficient with target,
// strongest positive first; undefined coefficients sort last.
func (e *Engine) TargetCorrelations(t *dataset.Table, features []string, target string) ([]stats.FeatureCorrelation, error) {
	y, err := numeric(t, target)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		for _, c := range t.NumericColumns() {
			if c != target {
				features = append(features, c)
			}
		}
	}

	out := make([]stats.FeatureCorrelation, 0, len(features))
	for _, f := range features {
		x, err := numeric(t, f)
		if err != nil {
			return nil, err
		}
		r, _ := pearson(x, y)
		out = append(out, stats.FeatureCorrelation{Feature: f, Coefficient: r, Defined: !math.IsNaN(r)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Defined != out[j].Defined {
			return out[i].Defined
		}
		return out[i].Coefficient > out[j].Coefficient
	})
	return out, nil
}

// CorrelationPValue is the significance of a coefficient over n rows
func (e *Engine) CorrelationPValue(r float64, n int) float64 {
	return e.dist.CorrelationPValue(r, n)
}
