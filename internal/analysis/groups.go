package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

// GroupRates reports the positive rate of binary within each level of
// categorical, highest rate first. Rows missing either cell are skipped.
func (e *Engine) GroupRates(t *dataset.Table, categorical, binary string) (*domainstats.GroupRates, error) {
	outcome, err := numeric(t, binary)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(categorical)
	if !ok {
		return nil, core.NewUnknownColumnError(categorical)
	}

	byLevel := make(map[string]*domainstats.GroupRate)
	for i := 0; i < t.Rows(); i++ {
		if col.IsMissing(i) || math.IsNaN(outcome[i]) {
			continue
		}
		level := col.Text(i)
		g, ok := byLevel[level]
		if !ok {
			g = &domainstats.GroupRate{Level: level}
			byLevel[level] = g
		}
		g.Total++
		if outcome[i] != 0 {
			g.Positives++
		}
	}
	if len(byLevel) == 0 {
		return nil, core.NewInsufficientSamplesError(categorical+" levels", 0, 1)
	}

	result := &domainstats.GroupRates{CategoricalColumn: categorical, BinaryColumn: binary}
	for _, g := range byLevel {
		g.Rate = float64(g.Positives) / float64(g.Total)
		result.Groups = append(result.Groups, *g)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		a, b := result.Groups[i], result.Groups[j]
		if a.Rate != b.Rate {
			return a.Rate > b.Rate
		}
		return a.Level < b.Level
	})
	return result, nil
}

// GroupAggregates sums and averages value within each level of group,
// largest sum first. Rows missing either cell are skipped.
func (e *Engine) GroupAggregates(t *dataset.Table, group, value string) (*domainstats.GroupAggregates, error) {
	y, err := numeric(t, value)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(group)
	if !ok {
		return nil, core.NewUnknownColumnError(group)
	}

	samples := make(map[string][]float64)
	for i := 0; i < t.Rows(); i++ {
		if col.IsMissing(i) || math.IsNaN(y[i]) {
			continue
		}
		samples[col.Text(i)] = append(samples[col.Text(i)], y[i])
	}
	if len(samples) == 0 {
		return nil, core.NewInsufficientSamplesError(group+" levels", 0, 1)
	}

	result := &domainstats.GroupAggregates{GroupColumn: group, ValueColumn: value}
	for level, values := range samples {
		sum, _ := stats.Sum(values)
		mean, _ := stats.Mean(values)
		result.Groups = append(result.Groups, domainstats.GroupAggregate{
			Level: level,
			Count: len(values),
			Sum:   sum,
			Mean:  mean,
		})
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		a, b := result.Groups[i], result.Groups[j]
		if a.Sum != b.Sum {
			return a.Sum > b.Sum
		}
		return a.Level < b.Level
	})
	return result, nil
}
