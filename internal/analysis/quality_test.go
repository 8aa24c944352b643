package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/internal/testkit"
)

func TestQualityLabel(t *testing.T) {
	tests := []struct {
		completeness float64
		want         string
	}{
		{100, "High quality"},
		{95, "High quality"},
		{94.9, "Good quality"},
		{80, "Good quality"},
		{60, "Fair quality"},
		{59.9, "Needs attention"},
		{0, "Needs attention"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityLabel(tt.completeness), "completeness %v", tt.completeness)
	}
}

func TestQualityReport(t *testing.T) {
	nan := math.NaN()
	tbl := table(t,
		dataset.NewNumericColumn("a", []float64{1, nan, 3, nan}),
		dataset.NewCategoricalColumn("b", []string{"x", "y", "", "x"}),
	)
	q := NewEngine().Quality(tbl)

	assert.Equal(t, 4, q.Rows)
	assert.Equal(t, 2, q.Columns)
	assert.Equal(t, 3, q.MissingCells)
	assert.InDelta(t, 62.5, q.Completeness, 1e-9)
	assert.Equal(t, "Fair quality", q.Label)

	require.Len(t, q.PerColumn, 2)
	assert.Equal(t, 2, q.PerColumn[0].Missing)
	assert.InDelta(t, 0.5, q.PerColumn[0].MissingRatio, 1e-12)
	assert.Equal(t, 2, q.PerColumn[1].Distinct)

	gaps := q.WithMissing()
	require.Len(t, gaps, 2)
	assert.Equal(t, "a", gaps[0].Column)
}

func TestQualityEmptyTable(t *testing.T) {
	tbl := table(t, dataset.NewNumericColumn("a", nil))
	q := NewEngine().Quality(tbl)
	assert.Equal(t, 100.0, q.Completeness)
	assert.Equal(t, "High quality", q.Label)
}

func TestMissingPatternRandom(t *testing.T) {
	cfg := testkit.DefaultThreatsConfig()
	cfg.MissingRate = 0.1
	tbl, err := testkit.NewThreatsGenerator(cfg).Generate()
	require.NoError(t, err)

	p, err := NewEngine().MissingPattern(tbl, dataset.ColFinancialLoss)
	require.NoError(t, err)
	assert.Greater(t, p.Missing, 200)
	assert.InDelta(t, float64(tbl.Rows())/float64(p.Missing), p.ExpectedGap, 1e-9)
	assert.True(t, p.Random, "cv=%v mean=%v expected=%v", p.GapCV, p.GapMean, p.ExpectedGap)
}

func TestMissingPatternBlock(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
		if i >= 90 {
			values[i] = math.NaN()
		}
	}
	tbl := table(t, dataset.NewNumericColumn("a", values))

	p, err := NewEngine().MissingPattern(tbl, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Missing)
	assert.Equal(t, 1.0, p.GapMean)
	assert.Equal(t, 0.0, p.GapCV)
	assert.False(t, p.Random)
}

func TestMissingPatternPreconditions(t *testing.T) {
	tbl := table(t, dataset.NewNumericColumn("a", []float64{1, math.NaN(), 3}))
	engine := NewEngine()

	_, err := engine.MissingPattern(tbl, "a")
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	_, err = engine.MissingPattern(tbl, "b")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
}

func TestClassBalance(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		ratio  float64
		label  string
	}{
		{"balanced", []float64{0, 1, 0, 1, math.NaN()}, 1, "balanced"},
		{"moderate", []float64{0, 0, 0, 0, 0, 0, 1}, 6, "moderate"},
		{"severe", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, 11, "severe"},
		{"no positives", []float64{0, 0}, math.Inf(1), "severe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table(t, dataset.NewNumericColumn("y", tt.values))
			b, err := NewEngine().ClassBalance(tbl, "y")
			require.NoError(t, err)
			assert.Equal(t, tt.ratio, b.ImbalanceRatio)
			assert.Equal(t, tt.label, b.Label)
		})
	}
}

func TestClassBalanceIntrusion(t *testing.T) {
	tbl, err := testkit.NewIntrusionGenerator(testkit.DefaultIntrusionConfig()).Generate()
	require.NoError(t, err)

	b, err := NewEngine().ClassBalance(tbl, dataset.ColAttackDetected)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), b.Positives+b.Negatives)
	assert.InDelta(t, float64(b.Positives)/float64(tbl.Rows()), b.PositiveRate, 1e-12)
}

func TestDescribe(t *testing.T) {
	tbl := table(t, dataset.NewNumericColumn("a", []float64{1, 2, 3, 4, math.NaN(), 100}))
	d, err := NewEngine().Describe(tbl, "a")
	require.NoError(t, err)

	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, 22, d.Mean, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 100.0, d.Max)
	assert.Equal(t, 3.0, d.Median)
	assert.Greater(t, d.StdDev, 0.0)
	assert.Greater(t, d.Skewness, 1.0)

	_, err = NewEngine().Describe(table(t, dataset.NewCategoricalColumn("c", []string{"x"})), "c")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, err = NewEngine().Describe(table(t, dataset.NewNumericColumn("e", []float64{math.NaN()})), "e")
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
}
