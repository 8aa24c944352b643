package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

// CompareGroups runs Welch's t-test of value between the two levels of
// group. The group column is either numeric with two distinct values or
// categorical with exactly two levels; levels are sorted and the first is
// group A. Rows missing either cell are skipped.
func (e *Engine) CompareGroups(t *dataset.Table, group, value string) (*domainstats.GroupComparison, error) {
	y, err := numeric(t, value)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(group)
	if !ok {
		return nil, core.NewUnknownColumnError(group)
	}

	levels := col.Distinct()
	if col.Type == dataset.Numeric {
		sortNumericLevels(levels)
	}
	if len(levels) > 2 {
		return nil, core.NewInvalidParameterError("group", fmt.Sprintf("%q has %d levels, need exactly 2", group, len(levels)))
	}
	if len(levels) < 2 {
		return nil, core.NewInsufficientSamplesError(fmt.Sprintf("groups of %q", group), len(levels), 2)
	}

	var a, b []float64
	for i := 0; i < t.Rows(); i++ {
		if col.IsMissing(i) || math.IsNaN(y[i]) {
			continue
		}
		switch col.Text(i) {
		case levels[0]:
			a = append(a, y[i])
		case levels[1]:
			b = append(b, y[i])
		}
	}
	if len(a) < 2 {
		return nil, core.NewInsufficientSamplesError(fmt.Sprintf("group %q", levels[0]), len(a), 2)
	}
	if len(b) < 2 {
		return nil, core.NewInsufficientSamplesError(fmt.Sprintf("group %q", levels[1]), len(b), 2)
	}

	result := &domainstats.GroupComparison{
		GroupColumn: group,
		ValueColumn: value,
		GroupA:      levels[0],
		GroupB:      levels[1],
		NA:          len(a),
		NB:          len(b),
	}
	result.TStatistic, result.DF, result.PValue, result.EffectSize = e.welch(a, b)
	result.MeanA, _ = stats.Mean(a)
	result.MeanB, _ = stats.Mean(b)
	result.MeanDiff = result.MeanA - result.MeanB
	return result, nil
}

// welch returns t, Welch-Satterthwaite df, two-tailed p and Cohen's d
func (e *Engine) welch(a, b []float64) (float64, float64, float64, float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	mean1, _ := stats.Mean(a)
	mean2, _ := stats.Mean(b)
	var1, _ := stats.SampleVariance(a)
	var2, _ := stats.SampleVariance(b)

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		// both groups constant
		if mean1 == mean2 {
			return 0, n1 + n2 - 2, 1, 0
		}
		return math.Copysign(math.Inf(1), mean1-mean2), n1 + n2 - 2, 0, 0
	}
	tStat := (mean1 - mean2) / math.Sqrt(se2)
	df := se2 * se2 / (math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))
	pValue := e.dist.TTestPValue(tStat, df)

	pooled := math.Sqrt(((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2))
	d := 0.0
	if pooled > 0 {
		d = (mean1 - mean2) / pooled
	}
	return tStat, df, pValue, d
}

func sortNumericLevels(levels []string) {
	sort.SliceStable(levels, func(i, j int) bool {
		x, _ := strconv.ParseFloat(levels[i], 64)
		y, _ := strconv.ParseFloat(levels[j], 64)
		return x < y
	})
}

// Association runs a chi-square test of independence between a
// categorical column and a binary outcome. Any expected count below 1
// sets LowPower; the statistic is still reported.
func (e *Engine) Association(t *dataset.Table, categorical, binary string) (*domainstats.Association, error) {
	cat, ok := t.Column(categorical)
	if !ok {
		return nil, core.NewUnknownColumnError(categorical)
	}
	bin, ok := t.Column(binary)
	if !ok {
		return nil, core.NewUnknownColumnError(binary)
	}

	var pairs [][2]string
	rowSet := map[string]bool{}
	colSet := map[string]bool{}
	for i := 0; i < t.Rows(); i++ {
		if cat.IsMissing(i) || bin.IsMissing(i) {
			continue
		}
		p := [2]string{cat.Text(i), bin.Text(i)}
		pairs = append(pairs, p)
		rowSet[p[0]] = true
		colSet[p[1]] = true
	}
	rows := sortedLevels(rowSet, cat.Type)
	cols := sortedLevels(colSet, bin.Type)
	if len(rows) < 2 || len(cols) < 2 {
		return nil, core.NewInsufficientSamplesError("contingency table levels", min(len(rows), len(cols)), 2)
	}

	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)
	observed := make([][]int, len(rows))
	for i := range observed {
		observed[i] = make([]int, len(cols))
	}
	for _, p := range pairs {
		observed[rowIdx[p[0]]][colIdx[p[1]]]++
	}
	total := len(pairs)

	rowSums := make([]int, len(rows))
	colSums := make([]int, len(cols))
	for r := range observed {
		for c, v := range observed[r] {
			rowSums[r] += v
			colSums[c] += v
		}
	}

	result := &domainstats.Association{
		CategoricalColumn: categorical,
		BinaryColumn:      binary,
		Rows:              rows,
		Cols:              cols,
		Observed:          observed,
		Expected:          make([][]float64, len(rows)),
		DF:                (len(rows) - 1) * (len(cols) - 1),
		MinExpected:       math.Inf(1),
	}
	for r := range observed {
		result.Expected[r] = make([]float64, len(cols))
		for c, o := range observed[r] {
			exp := float64(rowSums[r]) * float64(colSums[c]) / float64(total)
			result.Expected[r][c] = exp
			result.MinExpected = math.Min(result.MinExpected, exp)
			if exp > 0 {
				d := float64(o) - exp
				result.Statistic += d * d / exp
			}
		}
	}
	result.LowPower = result.MinExpected < 1
	result.PValue = e.dist.ChiSquarePValue(result.Statistic, result.DF)
	if k := min(len(rows), len(cols)) - 1; k > 0 && total > 0 {
		result.CramersV = math.Sqrt(result.Statistic / (float64(total) * float64(k)))
	}
	return result, nil
}

func sortedLevels(set map[string]bool, typ dataset.ColumnType) []string {
	levels := make([]string, 0, len(set))
	for v := range set {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	if typ == dataset.Numeric {
		sortNumericLevels(levels)
	}
	return levels
}

func indexOf(values []string) map[string]int {
	idx := make(map[string]int, len(values))
	for i, v := range values {
		idx[v] = i
	}
	return idx
}
