package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	domainstats "cyberguard/domain/stats"
	"cyberguard/internal/testkit"
)

func table(t *testing.T, columns ...*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable("adhoc", nil, columns...)
	require.NoError(t, err)
	return tbl
}

func threats(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := testkit.NewThreatsGenerator(testkit.DefaultThreatsConfig()).Generate()
	require.NoError(t, err)
	return tbl
}

func intrusion(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := testkit.NewIntrusionGenerator(testkit.DefaultIntrusionConfig()).Generate()
	require.NoError(t, err)
	return tbl
}

func TestCorrelationMatrixProperties(t *testing.T) {
	tbl := threats(t)
	m, err := NewEngine().Correlation(tbl, nil)
	require.NoError(t, err)
	require.Equal(t, tbl.NumericColumns(), m.Columns)

	for i := range m.Columns {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j := range m.Columns {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
			assert.GreaterOrEqual(t, m.Values[i][j], -1.0)
			assert.LessOrEqual(t, m.Values[i][j], 1.0)
		}
	}

	r, ok := m.At(dataset.ColFinancialLoss, dataset.ColAffectedUsers)
	require.True(t, ok)
	assert.Greater(t, r, 0.5)
	assert.Empty(t, m.Undefined())
}

func TestCorrelationUndefinedForConstantColumn(t *testing.T) {
	tbl := table(t,
		dataset.NewNumericColumn("a", []float64{1, 2, 3, 4}),
		dataset.NewNumericColumn("b", []float64{5, 5, 5, 5}),
		dataset.NewNumericColumn("c", []float64{2, 4, 6, 8}),
	)
	m, err := NewEngine().Correlation(tbl, nil)
	require.NoError(t, err)

	_, ok := m.At("a", "b")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(m.Values[1][1]))
	assert.Equal(t, [][2]string{{"a", "b"}, {"b", "c"}}, m.Undefined())

	r, ok := m.At("a", "c")
	assert.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)
}

func TestCorrelationPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	tbl := table(t,
		dataset.NewNumericColumn("a", []float64{1, 2, nan, 4, 5}),
		dataset.NewNumericColumn("b", []float64{2, 4, 6, nan, 10}),
	)
	m, err := NewEngine().Correlation(tbl, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Overlap[0][1])
	assert.InDelta(t, 1, m.Values[0][1], 1e-12)
}

func TestCorrelationRejectsUnknownAndCategorical(t *testing.T) {
	tbl := threats(t)
	engine := NewEngine()

	_, err := engine.Correlation(tbl, []string{dataset.ColYear, "nope"})
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, err = engine.Correlation(tbl, []string{dataset.ColYear, dataset.ColCountry})
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, err = engine.Correlation(tbl, []string{dataset.ColYear, dataset.ColYear})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestTargetCorrelationsOrdering(t *testing.T) {
	tbl := intrusion(t)
	ranked, err := NewEngine().TargetCorrelations(tbl, nil, dataset.ColAttackDetected)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)

	for i := 1; i < len(ranked); i++ {
		if ranked[i].Defined && ranked[i-1].Defined {
			assert.GreaterOrEqual(t, ranked[i-1].Coefficient, ranked[i].Coefficient)
		}
	}
	assert.Equal(t, dataset.ColFailedLogins, ranked[0].Feature)
	assert.Equal(t, dataset.ColIPReputation, ranked[len(ranked)-1].Feature)
}

func TestCorrelationPValue(t *testing.T) {
	engine := NewEngine()
	assert.Less(t, engine.CorrelationPValue(0.6, 100), 0.001)
	assert.Greater(t, engine.CorrelationPValue(0.05, 20), 0.5)
}

func TestPCAExplainedVariance(t *testing.T) {
	tbl := intrusion(t)
	proj, err := NewEngine().PCA(tbl, nil, 0)
	require.NoError(t, err)

	require.Len(t, proj.Components, len(proj.Columns))
	total := 0.0
	for i, c := range proj.Components {
		assert.GreaterOrEqual(t, c.ExplainedVariance, 0.0)
		assert.LessOrEqual(t, c.ExplainedVariance, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, proj.Components[i-1].Eigenvalue, c.Eigenvalue)
		}
		total += c.ExplainedVariance
	}
	assert.LessOrEqual(t, total, 1.0+1e-9)
	assert.InDelta(t, 1, proj.Cumulative[len(proj.Cumulative)-1], 1e-9)
	assert.Equal(t, len(proj.Columns), proj.ComponentsFor(0.999999))
	assert.Len(t, proj.Coordinates, tbl.Rows())
}

func TestPCADeterministicSigns(t *testing.T) {
	tbl := threats(t)
	cols := []string{dataset.ColFinancialLoss, dataset.ColAffectedUsers, dataset.ColResolutionHours}
	engine := NewEngine()

	first, err := engine.PCA(tbl, cols, 2)
	require.NoError(t, err)
	second, err := engine.PCA(tbl, cols, 2)
	require.NoError(t, err)
	assert.Equal(t, first.Components, second.Components)

	for _, c := range first.Components {
		best := 0.0
		for _, w := range c.Loadings {
			if math.Abs(w) > math.Abs(best) {
				best = w
			}
		}
		assert.Greater(t, best, 0.0)
	}
	// the first component is driven by the correlated loss and users pair
	assert.Greater(t, first.Components[0].ExplainedVariance, 1.0/3)
}

func TestPCAPreconditions(t *testing.T) {
	engine := NewEngine()

	oneUsable := table(t,
		dataset.NewNumericColumn("a", []float64{1, 2, 3}),
		dataset.NewNumericColumn("b", []float64{7, 7, 7}),
	)
	_, err := engine.PCA(oneUsable, nil, 0)
	assert.ErrorIs(t, err, core.ErrInsufficientFeatures)

	nan := math.NaN()
	sparse := table(t,
		dataset.NewNumericColumn("a", []float64{1, nan, 3}),
		dataset.NewNumericColumn("b", []float64{nan, 2, nan}),
	)
	_, err = engine.PCA(sparse, nil, 0)
	assert.ErrorIs(t, err, core.ErrInsufficientFeatures)

	oneComplete := table(t,
		dataset.NewNumericColumn("a", []float64{1, nan, 3}),
		dataset.NewNumericColumn("b", []float64{5, 2, nan}),
		dataset.NewNumericColumn("c", []float64{9, 8, 7}),
	)
	_, err = engine.PCA(oneComplete, nil, 0)
	assert.ErrorIs(t, err, core.ErrInsufficientFeatures)
	assert.NotErrorIs(t, err, core.ErrInsufficientSamples)

	_, err = engine.PCA(threats(t), []string{dataset.ColFinancialLoss, dataset.ColAffectedUsers}, 3)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestPCADropsConstantColumns(t *testing.T) {
	tbl := table(t,
		dataset.NewNumericColumn("a", []float64{1, 2, 3, 4}),
		dataset.NewNumericColumn("k", []float64{1, 1, 1, 1}),
		dataset.NewNumericColumn("b", []float64{4, 1, 3, 2}),
	)
	proj, err := NewEngine().PCA(tbl, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, proj.Columns)
	assert.Equal(t, []string{"k"}, proj.Dropped)
}

func TestCompareGroups(t *testing.T) {
	tbl := intrusion(t)
	g, err := NewEngine().CompareGroups(tbl, dataset.ColAttackDetected, dataset.ColFailedLogins)
	require.NoError(t, err)

	assert.Equal(t, "0", g.GroupA)
	assert.Equal(t, "1", g.GroupB)
	assert.Equal(t, tbl.Rows(), g.NA+g.NB)
	assert.Less(t, g.MeanA, g.MeanB)
	assert.Less(t, g.TStatistic, 0.0)
	assert.Less(t, g.EffectSize, 0.0)
	assert.True(t, g.Significant(0.05))
	assert.InDelta(t, g.MeanA-g.MeanB, g.MeanDiff, 1e-12)
}

func TestCompareGroupsSingleRowGroup(t *testing.T) {
	tbl := table(t,
		dataset.NewCategoricalColumn("group", []string{"a", "a", "a", "b"}),
		dataset.NewNumericColumn("value", []float64{1, 2, 3, 10}),
	)
	result, err := NewEngine().CompareGroups(tbl, "group", "value")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
	assert.True(t, core.IsPreconditionError(err))
}

func TestCompareGroupsLevels(t *testing.T) {
	engine := NewEngine()

	three := table(t,
		dataset.NewCategoricalColumn("group", []string{"a", "b", "c", "a"}),
		dataset.NewNumericColumn("value", []float64{1, 2, 3, 4}),
	)
	_, err := engine.CompareGroups(three, "group", "value")
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	one := table(t,
		dataset.NewCategoricalColumn("group", []string{"a", "a", "a"}),
		dataset.NewNumericColumn("value", []float64{1, 2, 3}),
	)
	_, err = engine.CompareGroups(one, "group", "value")
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)

	_, err = engine.CompareGroups(one, "value", "group")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)
}

func TestCompareGroupsConstantGroups(t *testing.T) {
	tbl := table(t,
		dataset.NewNumericColumn("group", []float64{10, 2, 10, 2}),
		dataset.NewNumericColumn("value", []float64{5, 5, 5, 5}),
	)
	g, err := NewEngine().CompareGroups(tbl, "group", "value")
	require.NoError(t, err)
	assert.Equal(t, "2", g.GroupA)
	assert.Equal(t, "10", g.GroupB)
	assert.Equal(t, 1.0, g.PValue)
	assert.Equal(t, 0.0, g.TStatistic)
}

func TestAssociation(t *testing.T) {
	tbl := intrusion(t)
	a, err := NewEngine().Association(tbl, dataset.ColProtocolType, dataset.ColAttackDetected)
	require.NoError(t, err)

	assert.Equal(t, []string{"ICMP", "TCP", "UDP"}, a.Rows)
	assert.Equal(t, []string{"0", "1"}, a.Cols)
	assert.Equal(t, 2, a.DF)
	assert.False(t, a.LowPower)
	assert.Empty(t, a.Advisories())
	assert.GreaterOrEqual(t, a.PValue, 0.0)
	assert.LessOrEqual(t, a.PValue, 1.0)
	assert.GreaterOrEqual(t, a.CramersV, 0.0)
	assert.LessOrEqual(t, a.CramersV, 1.0)

	total := 0
	for _, row := range a.Observed {
		for _, v := range row {
			total += v
		}
	}
	assert.Equal(t, tbl.Rows(), total)
}

func TestAssociationLowPower(t *testing.T) {
	tbl := table(t,
		dataset.NewCategoricalColumn("proto", []string{"tcp", "tcp", "tcp", "tcp", "udp", "icmp"}),
		dataset.NewNumericColumn("attack", []float64{0, 1, 0, 1, 1, 0}),
	)
	a, err := NewEngine().Association(tbl, "proto", "attack")
	require.NoError(t, err)
	assert.True(t, a.LowPower)
	assert.Less(t, a.MinExpected, 1.0)
	assert.Equal(t, []domainstats.Advisory{domainstats.AdvisoryLowPower}, a.Advisories())
	assert.False(t, math.IsNaN(a.Statistic))
}

func TestAssociationSingleLevel(t *testing.T) {
	tbl := table(t,
		dataset.NewCategoricalColumn("proto", []string{"tcp", "tcp", "tcp"}),
		dataset.NewNumericColumn("attack", []float64{0, 1, 0}),
	)
	_, err := NewEngine().Association(tbl, "proto", "attack")
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
}
