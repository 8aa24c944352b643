package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

// trendBand is the total growth in percent beyond which a trend counts as
// growing or declining
const trendBand = 10.0

// Trend counts rows per period of the temporal column and fits a line
// through the counts. Rows with a missing period are skipped. RSquared is
// NaN when every period has the same count.
func (e *Engine) Trend(t *dataset.Table) (*domainstats.Trend, error) {
	name, ok := t.TemporalColumn()
	if !ok {
		return nil, core.NewInvalidParameterError("table", fmt.Sprintf("%s has no temporal column", t.Name()))
	}
	periods, err := numeric(t, name)
	if err != nil {
		return nil, err
	}

	counts := make(map[float64]int)
	for _, p := range periods {
		if !math.IsNaN(p) {
			counts[p]++
		}
	}
	if len(counts) < 2 {
		return nil, core.NewInsufficientSamplesError("periods", len(counts), 2)
	}

	x := make([]float64, 0, len(counts))
	for p := range counts {
		x = append(x, p)
	}
	sort.Float64s(x)

	result := &domainstats.Trend{Column: name, Points: make([]domainstats.TrendPoint, len(x))}
	y := make([]float64, len(x))
	var growth []float64
	for i, p := range x {
		y[i] = float64(counts[p])
		point := domainstats.TrendPoint{Period: p, Count: counts[p], Growth: math.NaN()}
		if i > 0 {
			point.Growth = (y[i]/y[i-1] - 1) * 100
			growth = append(growth, point.Growth)
		}
		result.Points[i] = point
	}

	result.TotalGrowth = (y[len(y)-1]/y[0] - 1) * 100
	result.AvgGrowth, _ = stats.Mean(growth)
	result.Intercept, result.Slope = stat.LinearRegression(x, y, nil, false)
	if floats.Min(y) == floats.Max(y) {
		result.RSquared = math.NaN()
	} else {
		result.RSquared = stat.RSquared(x, y, nil, result.Intercept, result.Slope)
	}

	switch {
	case result.TotalGrowth > trendBand:
		result.Direction = domainstats.TrendGrowing
	case result.TotalGrowth < -trendBand:
		result.Direction = domainstats.TrendDeclining
	default:
		result.Direction = domainstats.TrendStable
	}
	return result, nil
}
