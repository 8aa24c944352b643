package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"cyberguard/domain/stats"
)

func strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a < 0.1:
		return "negligible"
	case a < 0.3:
		return "weak"
	case a < 0.5:
		return "moderate"
	case a < 0.7:
		return "strong"
	default:
		return "very strong"
	}
}

func direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func describeCorrelation(m *stats.CorrelationMatrix) string {
	best, bi, bj := 0.0, -1, -1
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if !math.IsNaN(r) && math.Abs(r) > math.Abs(best) {
				best, bi, bj = r, i, j
			}
		}
	}
	if bi < 0 {
		return "No pair of columns has a defined correlation."
	}
	msg := fmt.Sprintf("The strongest relationship is a %s %s correlation between %s and %s (r=%.3f).",
		strength(best), direction(best), m.Columns[bi], m.Columns[bj], best)
	if undefined := m.Undefined(); len(undefined) > 0 {
		msg += fmt.Sprintf(" %d pair(s) are undefined because a column is constant or the overlap is too small.", len(undefined))
	}
	return msg
}

func describeTargetCorrelations(ranked []stats.FeatureCorrelation) string {
	var defined []stats.FeatureCorrelation
	for _, f := range ranked {
		if f.Defined {
			defined = append(defined, f)
		}
	}
	if len(defined) == 0 {
		return "No feature has a defined correlation with the target in the filtered data."
	}
	sort.SliceStable(defined, func(i, j int) bool {
		return math.Abs(defined[i].Coefficient) > math.Abs(defined[j].Coefficient)
	})
	top := defined[0]
	msg := fmt.Sprintf("The strongest indicator is %s (%s %s, r=%.3f).",
		top.Feature, strength(top.Coefficient), direction(top.Coefficient), top.Coefficient)
	if len(defined) > 1 {
		next := defined[1]
		msg += fmt.Sprintf(" Next is %s (r=%.3f).", next.Feature, next.Coefficient)
	}
	return msg
}

func describePCA(p *stats.PCAProjection) string {
	if len(p.Components) == 0 {
		return "No components were computed."
	}
	first := p.Components[0]
	lead, weight := "", 0.0
	for _, c := range p.Columns {
		if w := first.Loadings[c]; math.Abs(w) > math.Abs(weight) {
			lead, weight = c, w
		}
	}
	msg := fmt.Sprintf("The first component explains %.1f%% of the variance and is driven mostly by %s (loading %.3f).",
		first.ExplainedVariance*100, lead, weight)
	if n := len(p.Cumulative); n > 1 {
		msg += fmt.Sprintf(" The first %d components together explain %.1f%%.", n, p.Cumulative[n-1]*100)
	}
	if len(p.Dropped) > 0 {
		msg += fmt.Sprintf(" Constant columns left out: %s.", strings.Join(p.Dropped, ", "))
	}
	return msg
}

func describeComparison(g *stats.GroupComparison, alpha float64) string {
	if !g.Significant(alpha) {
		return fmt.Sprintf("No significant difference in %s between %s=%s and %s=%s (t=%.3f, p=%.3f, d=%.3f)",
			g.ValueColumn, g.GroupColumn, g.GroupA, g.GroupColumn, g.GroupB, g.TStatistic, g.PValue, g.EffectSize)
	}

	size := ""
	d := math.Abs(g.EffectSize)
	if d < 0.2 {
		size = "negligible"
	} else if d < 0.5 {
		size = "small"
	} else if d < 0.8 {
		size = "medium"
	} else {
		size = "large"
	}

	return fmt.Sprintf("%s is %.3f on average for %s=%s versus %.3f for %s=%s; a %s, significant difference (t=%.3f, p=%.4f, d=%.3f, n=%d/%d)",
		g.ValueColumn, g.MeanA, g.GroupColumn, g.GroupA, g.MeanB, g.GroupColumn, g.GroupB,
		size, g.TStatistic, g.PValue, g.EffectSize, g.NA, g.NB)
}

func describeAssociation(a *stats.Association, alpha float64) string {
	if !a.Significant(alpha) {
		return fmt.Sprintf("No significant association between %s and %s (χ²=%.3f, p=%.3f, V=%.3f)",
			a.CategoricalColumn, a.BinaryColumn, a.Statistic, a.PValue, a.CramersV)
	}

	s := ""
	if a.CramersV < 0.1 {
		s = "weak"
	} else if a.CramersV < 0.3 {
		s = "moderate"
	} else if a.CramersV < 0.5 {
		s = "strong"
	} else {
		s = "very strong"
	}

	return fmt.Sprintf("%s association between %s and %s (χ²=%.3f, p=%.4f, V=%.3f, %dx%d table)",
		s, a.CategoricalColumn, a.BinaryColumn, a.Statistic, a.PValue, a.CramersV, len(a.Rows), len(a.Cols))
}

func describeImputation(r *stats.ImputationResult) string {
	msg := fmt.Sprintf("Filled %d of %d values of %s (%.1f%% missing) from %s",
		r.MissingCount, len(r.Imputed), r.Target, r.MissingFraction*100, strings.Join(r.Predictors, ", "))
	if r.Converged {
		msg += fmt.Sprintf(", converged after %d iteration(s).", r.Iterations)
	} else {
		msg += fmt.Sprintf(", stopped after %d iterations without settling (last change %.4g).", r.Iterations, r.MaxDelta)
	}
	if e := r.Evaluation; e != nil {
		msg += fmt.Sprintf(" On %d held-out values: MAE %.3f, RMSE %.3f, MAPE %.1f%% (%s); mean fill would give MAE %.3f.",
			e.Metrics.N, e.Metrics.MAE, e.Metrics.RMSE, e.Metrics.MAPE, e.Metrics.QualityLabel(), e.Baseline.MAE)
	}
	return msg
}

func describeQuality(q *stats.QualityReport) string {
	msg := fmt.Sprintf("%s: %.1f%% of %d cells are present (%d rows, %d columns).",
		q.Label, q.Completeness, q.Rows*q.Columns, q.Rows, q.Columns)
	gaps := q.WithMissing()
	if len(gaps) == 0 {
		return msg + " No column has missing values."
	}
	parts := make([]string, 0, len(gaps))
	for _, c := range gaps {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", c.Column, c.MissingRatio*100))
	}
	return msg + " Missing: " + strings.Join(parts, ", ") + "."
}

func describeMissingPattern(p *stats.MissingPattern) string {
	kind := "clustered, which suggests a systematic cause"
	if p.Random {
		kind = "spread randomly through the data"
	}
	return fmt.Sprintf("The %d gaps in %s are %s (mean gap %.1f rows, expected %.1f, CV %.2f).",
		p.Missing, p.Column, kind, p.GapMean, p.ExpectedGap, p.GapCV)
}

func describeBalance(b *stats.ClassBalance) string {
	ratio := "no positive cases"
	if !math.IsInf(b.ImbalanceRatio, 1) {
		ratio = fmt.Sprintf("%.1f:1", b.ImbalanceRatio)
	}
	return fmt.Sprintf("%d of %d sessions are positive for %s (%.1f%%); class ratio %s, %s.",
		b.Positives, b.Positives+b.Negatives, b.Column, b.PositiveRate*100, ratio, b.Label)
}

func describeDistribution(d *stats.Description) string {
	shape := "roughly symmetric"
	if d.Skewness > 1 {
		shape = "right-skewed"
	} else if d.Skewness < -1 {
		shape = "left-skewed"
	}
	return fmt.Sprintf("%s: mean %.2f, median %.2f, sd %.2f, range %.2f to %.2f (IQR %.2f to %.2f, n=%d), %s.",
		d.Column, d.Mean, d.Median, d.StdDev, d.Min, d.Max, d.Q25, d.Q75, d.Count, shape)
}

func describeTrend(t *stats.Trend) string {
	first, last := t.Points[0], t.Points[len(t.Points)-1]
	span := fmt.Sprintf("%g to %g", first.Period, last.Period)
	var msg string
	switch t.Direction {
	case stats.TrendGrowing:
		msg = fmt.Sprintf("Incidents grew by %.1f%% from %s (slope %+.2f per period).", t.TotalGrowth, span, t.Slope)
	case stats.TrendDeclining:
		msg = fmt.Sprintf("Incidents fell by %.1f%% from %s (slope %+.2f per period).", -t.TotalGrowth, span, t.Slope)
	default:
		msg = fmt.Sprintf("Incident counts stayed stable from %s (%+.1f%% overall).", span, t.TotalGrowth)
	}
	switch {
	case math.IsNaN(t.RSquared):
		msg += " Every period has the same count."
	case t.RSquared > 0.7:
		msg += fmt.Sprintf(" The linear fit is robust (R²=%.3f).", t.RSquared)
	case t.RSquared > 0.4:
		msg += fmt.Sprintf(" The trend is discernible with some variation (R²=%.3f).", t.RSquared)
	default:
		msg += fmt.Sprintf(" Counts are volatile or non-linear (R²=%.3f).", t.RSquared)
	}
	return msg + fmt.Sprintf(" Average period-over-period change: %+.1f%%.", t.AvgGrowth)
}

func describeGroupRates(r *stats.GroupRates) string {
	parts := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		parts[i] = fmt.Sprintf("%s %.1f%% (%d of %d)", g.Level, g.Rate*100, g.Positives, g.Total)
	}
	msg := fmt.Sprintf("Rate of %s by %s: %s.", r.BinaryColumn, r.CategoricalColumn, strings.Join(parts, ", "))
	if len(r.Groups) > 1 {
		hi, lo := r.Groups[0], r.Groups[len(r.Groups)-1]
		msg += fmt.Sprintf(" %s is %.1f points above %s.", hi.Level, (hi.Rate-lo.Rate)*100, lo.Level)
	}
	return msg
}

func describeGroupAggregates(a *stats.GroupAggregates) string {
	top := a.Top(3)
	parts := make([]string, len(top))
	for i, g := range top {
		parts[i] = fmt.Sprintf("%s (total %.2f, mean %.2f over %d)", g.Level, g.Sum, g.Mean, g.Count)
	}
	return fmt.Sprintf("Highest %s by %s: %s.", a.ValueColumn, a.GroupColumn, strings.Join(parts, ", "))
}
