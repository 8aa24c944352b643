package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/domain/stats"
)

// PCA projects standardized columns onto their principal components.
// Rows with any missing selected value are dropped and zero-variance
// columns are unusable, so fewer than two complete rows leaves no usable
// column. n <= 0 keeps every component; otherwise n may not
// exceed the number of usable columns.
func (e *Engine) PCA(t *dataset.Table, cols []string, n int) (*stats.PCAProjection, error) {
	names, values, err := resolveColumns(t, cols)
	if err != nil {
		return nil, err
	}

	var rows []int
	for i := 0; i < t.Rows(); i++ {
		complete := true
		for _, v := range values {
			if math.IsNaN(v[i]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}

	proj := &stats.PCAProjection{RowIndex: rows}
	var (
		usable []string
		z      [][]float64
	)
	for c, v := range values {
		sample := make([]float64, len(rows))
		for r, i := range rows {
			sample[r] = v[i]
		}
		mean, sd := stat.MeanStdDev(sample, nil)
		if sd == 0 || math.IsNaN(sd) {
			proj.Dropped = append(proj.Dropped, names[c])
			continue
		}
		for r := range sample {
			sample[r] = (sample[r] - mean) / sd
		}
		usable = append(usable, names[c])
		z = append(z, sample)
	}

	p := len(usable)
	if p < 2 {
		return nil, core.NewInsufficientFeaturesError(p, 2)
	}
	if n > p {
		return nil, core.NewInvalidParameterError("components", fmt.Sprintf("%d requested, only %d usable columns", n, p))
	}
	if n <= 0 {
		n = p
	}
	proj.Columns = usable

	m := len(rows)
	corr := mat.NewSymDense(p, nil)
	for a := 0; a < p; a++ {
		for b := a; b < p; b++ {
			s := 0.0
			for r := 0; r < m; r++ {
				s += z[a][r] * z[b][r]
			}
			corr.SetSym(a, b, s/float64(m-1))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(corr, true); !ok {
		return nil, fmt.Errorf("eigen decomposition of %d columns failed", p)
	}
	eigenvalues := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, p)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return eigenvalues[order[a]] > eigenvalues[order[b]] })

	trace := 0.0
	for _, v := range eigenvalues {
		trace += math.Max(v, 0)
	}

	loadings := make([][]float64, n)
	cumulative := 0.0
	for k := 0; k < n; k++ {
		col := order[k]
		lambda := math.Max(eigenvalues[col], 0)
		w := make([]float64, p)
		for j := range w {
			w[j] = vectors.At(j, col)
		}
		orient(w)
		loadings[k] = w

		comp := stats.Component{Eigenvalue: lambda, Loadings: make(map[string]float64, p)}
		if trace > 0 {
			comp.ExplainedVariance = lambda / trace
		}
		for j, name := range usable {
			comp.Loadings[name] = w[j]
		}
		cumulative += comp.ExplainedVariance
		proj.Components = append(proj.Components, comp)
		proj.Cumulative = append(proj.Cumulative, math.Min(cumulative, 1))
	}

	proj.Coordinates = make([][2]float64, m)
	for r := 0; r < m; r++ {
		for k := 0; k < n && k < 2; k++ {
			s := 0.0
			for j := 0; j < p; j++ {
				s += z[j][r] * loadings[k][j]
			}
			proj.Coordinates[r][k] = s
		}
	}
	return proj, nil
}

// orient flips w so its largest-magnitude entry is positive
func orient(w []float64) {
	best := 0
	for j := range w {
		if math.Abs(w[j]) > math.Abs(w[best]) {
			best = j
		}
	}
	if w[best] < 0 {
		for j := range w {
			w[j] = -w[j]
		}
	}
}
