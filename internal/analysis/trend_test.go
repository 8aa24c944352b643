package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
)

func yearly(t *testing.T, counts map[float64]int, missing int) *dataset.Table {
	t.Helper()
	var years []float64
	for y, n := range counts {
		for i := 0; i < n; i++ {
			years = append(years, y)
		}
	}
	for i := 0; i < missing; i++ {
		years = append(years, math.NaN())
	}
	tbl, err := dataset.NewTable(string(dataset.GlobalThreats), dataset.GlobalThreatsSchema,
		dataset.NewNumericColumn(dataset.ColYear, years))
	require.NoError(t, err)
	return tbl
}

func TestTrendGrowing(t *testing.T) {
	tr, err := NewEngine().Trend(yearly(t, map[float64]int{2015: 100, 2016: 110, 2017: 121}, 4))
	require.NoError(t, err)

	require.Len(t, tr.Points, 3)
	assert.Equal(t, dataset.ColYear, tr.Column)
	assert.Equal(t, 2015.0, tr.Points[0].Period)
	assert.True(t, math.IsNaN(tr.Points[0].Growth))
	assert.InDelta(t, 10, tr.Points[1].Growth, 1e-9)
	assert.InDelta(t, 10, tr.Points[2].Growth, 1e-9)
	assert.InDelta(t, 21, tr.TotalGrowth, 1e-9)
	assert.InDelta(t, 10, tr.AvgGrowth, 1e-9)
	assert.InDelta(t, 10.5, tr.Slope, 1e-9)
	assert.InDelta(t, 0.9992, tr.RSquared, 1e-3)
	assert.Equal(t, domainstats.TrendGrowing, tr.Direction)
}

func TestTrendDirections(t *testing.T) {
	tests := []struct {
		name   string
		counts map[float64]int
		want   domainstats.TrendDirection
	}{
		{"declining", map[float64]int{2020: 50, 2021: 40, 2022: 30}, domainstats.TrendDeclining},
		{"within band", map[float64]int{2020: 100, 2021: 120, 2022: 105}, domainstats.TrendStable},
		{"just inside band", map[float64]int{2020: 100, 2021: 109}, domainstats.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewEngine().Trend(yearly(t, tt.counts, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Direction)
		})
	}
}

func TestTrendFlatCounts(t *testing.T) {
	tr, err := NewEngine().Trend(threats(t))
	require.NoError(t, err)
	require.Len(t, tr.Points, 10)
	for _, p := range tr.Points {
		assert.Equal(t, 300, p.Count)
	}
	assert.InDelta(t, 0, tr.TotalGrowth, 1e-12)
	assert.InDelta(t, 0, tr.Slope, 1e-9)
	assert.True(t, math.IsNaN(tr.RSquared))
	assert.Equal(t, domainstats.TrendStable, tr.Direction)
}

func TestTrendPreconditions(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Trend(yearly(t, map[float64]int{2022: 30}, 2))
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	_, err = engine.Trend(intrusion(t))
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestGroupRates(t *testing.T) {
	nan := math.NaN()
	tbl := table(t,
		dataset.NewCategoricalColumn("protocol", []string{"TCP", "TCP", "UDP", "UDP", "UDP", "ICMP", ""}),
		dataset.NewNumericColumn("attack", []float64{1, 1, 0, 1, 0, nan, 1}),
	)
	r, err := NewEngine().GroupRates(tbl, "protocol", "attack")
	require.NoError(t, err)

	require.Len(t, r.Groups, 2)
	assert.Equal(t, domainstats.GroupRate{Level: "TCP", Positives: 2, Total: 2, Rate: 1}, r.Groups[0])
	assert.Equal(t, "UDP", r.Groups[1].Level)
	assert.Equal(t, 3, r.Groups[1].Total)
	assert.InDelta(t, 1.0/3, r.Groups[1].Rate, 1e-12)

	_, err = NewEngine().GroupRates(tbl, "attack", "protocol")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
	_, err = NewEngine().GroupRates(tbl, "nope", "attack")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
}

func TestGroupRatesIntrusion(t *testing.T) {
	tbl := intrusion(t)
	r, err := NewEngine().GroupRates(tbl, dataset.ColProtocolType, dataset.ColAttackDetected)
	require.NoError(t, err)

	total := 0
	for i, g := range r.Groups {
		total += g.Total
		if i > 0 {
			assert.GreaterOrEqual(t, r.Groups[i-1].Rate, g.Rate)
		}
	}
	assert.Equal(t, tbl.Rows(), total)
	assert.Len(t, r.Groups, 3)
}

func TestGroupAggregates(t *testing.T) {
	nan := math.NaN()
	tbl := table(t,
		dataset.NewCategoricalColumn("country", []string{"A", "A", "B", "B", ""}),
		dataset.NewNumericColumn("loss", []float64{1, 2, 10, nan, 50}),
	)
	agg, err := NewEngine().GroupAggregates(tbl, "country", "loss")
	require.NoError(t, err)

	assert.Equal(t, []domainstats.GroupAggregate{
		{Level: "B", Count: 1, Sum: 10, Mean: 10},
		{Level: "A", Count: 2, Sum: 3, Mean: 1.5},
	}, agg.Groups)
	assert.Len(t, agg.Top(1), 1)
	assert.Len(t, agg.Top(5), 2)

	empty := table(t,
		dataset.NewCategoricalColumn("country", []string{""}),
		dataset.NewNumericColumn("loss", []float64{1}),
	)
	_, err = NewEngine().GroupAggregates(empty, "country", "loss")
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
}

func TestGroupAggregatesThreats(t *testing.T) {
	tbl := threats(t)
	agg, err := NewEngine().GroupAggregates(tbl, dataset.ColCountry, dataset.ColFinancialLoss)
	require.NoError(t, err)

	count := 0
	for i, g := range agg.Groups {
		count += g.Count
		assert.InDelta(t, g.Sum/float64(g.Count), g.Mean, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, agg.Groups[i-1].Sum, g.Sum)
		}
	}
	assert.Equal(t, tbl.Rows(), count)
}
