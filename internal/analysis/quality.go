package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

// Quality profiles completeness of every cell in the table
func (e *Engine) Quality(t *dataset.Table) *domainstats.QualityReport {
	names := t.Columns()
	report := &domainstats.QualityReport{
		Dataset: t.Name(),
		Rows:    t.Rows(),
		Columns: len(names),
	}
	for _, name := range names {
		col, _ := t.Column(name)
		missing := col.MissingCount()
		q := domainstats.ColumnQuality{
			Column:   name,
			Missing:  missing,
			Distinct: len(col.Distinct()),
		}
		if t.Rows() > 0 {
			q.MissingRatio = float64(missing) / float64(t.Rows())
		}
		report.MissingCells += missing
		report.PerColumn = append(report.PerColumn, q)
	}

	report.Completeness = 100
	if cells := t.Rows() * len(names); cells > 0 {
		report.Completeness = (1 - float64(report.MissingCells)/float64(cells)) * 100
	}
	report.Label = QualityLabel(report.Completeness)
	return report
}

// QualityLabel grades a completeness percentage
func QualityLabel(completeness float64) string {
	switch {
	case completeness >= 95:
		return "High quality"
	case completeness >= 80:
		return "Good quality"
	case completeness >= 60:
		return "Fair quality"
	default:
		return "Needs attention"
	}
}

// MissingPattern measures how the gaps of a column are spread over row
// order. Gaps that vary a lot (CV > 0.5) and average near rows/missing are
// read as missing completely at random.
func (e *Engine) MissingPattern(t *dataset.Table, column string) (*domainstats.MissingPattern, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, core.NewUnknownColumnError(column)
	}
	var idx []int
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return nil, core.NewInsufficientSamplesError("missing cells of "+column, len(idx), 2)
	}

	gaps := make([]float64, len(idx)-1)
	for i := range gaps {
		gaps[i] = float64(idx[i+1] - idx[i])
	}
	p := &domainstats.MissingPattern{Column: column, Missing: len(idx)}
	p.GapMean, _ = stats.Mean(gaps)
	p.GapStdDev, _ = stats.StandardDeviationPopulation(gaps)
	if p.GapMean > 0 {
		p.GapCV = p.GapStdDev / p.GapMean
	}
	p.ExpectedGap = float64(t.Rows()) / float64(len(idx))
	p.Random = p.GapCV > 0.5 && math.Abs(p.GapMean-p.ExpectedGap)/p.ExpectedGap < 0.3
	return p, nil
}

// ClassBalance reports the positive rate of a binary column and the
// negatives-to-positives ratio: above 10 is severe, above 5 moderate.
func (e *Engine) ClassBalance(t *dataset.Table, column string) (*domainstats.ClassBalance, error) {
	values, err := numeric(t, column)
	if err != nil {
		return nil, err
	}
	b := &domainstats.ClassBalance{Column: column}
	for _, v := range values {
		switch {
		case math.IsNaN(v):
		case v != 0:
			b.Positives++
		default:
			b.Negatives++
		}
	}
	n := b.Positives + b.Negatives
	if n == 0 {
		return nil, core.NewInsufficientSamplesError(column, 0, 1)
	}
	b.PositiveRate = float64(b.Positives) / float64(n)
	if b.Positives == 0 {
		b.ImbalanceRatio = math.Inf(1)
	} else {
		b.ImbalanceRatio = float64(b.Negatives) / float64(b.Positives)
	}
	switch {
	case b.ImbalanceRatio > 10:
		b.Label = "severe"
	case b.ImbalanceRatio > 5:
		b.Label = "moderate"
	default:
		b.Label = "balanced"
	}
	return b, nil
}

// Describe summarizes the observed values of a numeric column
func (e *Engine) Describe(t *dataset.Table, column string) (*domainstats.Description, error) {
	values, err := numeric(t, column)
	if err != nil {
		return nil, err
	}
	data := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return nil, core.NewInsufficientSamplesError(column, 0, 1)
	}

	d := &domainstats.Description{Column: column, Count: len(data)}
	d.Mean, _ = data.Mean()
	d.Min, _ = data.Min()
	d.Max, _ = data.Max()
	d.Median, _ = data.Median()
	d.Q25, _ = data.Percentile(25)
	d.Q75, _ = data.Percentile(75)
	if len(data) > 1 {
		d.StdDev, _ = data.StandardDeviationSample()
	}
	d.Skewness = skewness(data, d.Mean)
	return d, nil
}

// skewness is the adjusted Fisher-Pearson coefficient; 0 when undefined
func skewness(data []float64, mean float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	var m2, m3 float64
	for _, v := range data {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}
