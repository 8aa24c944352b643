package dataset

import (
	"math"
	"testing"

	"cyberguard/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("sample", GlobalThreatsSchema,
		NewCategoricalColumn(ColCountry, []string{"USA", "UK", "", "USA"}),
		NewNumericColumn(ColYear, []float64{2015, 2016, 2017, math.NaN()}),
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTableRejectsRaggedColumns(t *testing.T) {
	_, err := NewTable("bad", nil,
		NewNumericColumn("a", []float64{1, 2}),
		NewNumericColumn("b", []float64{1}),
	)
	assert.Error(t, err)

	_, err = NewTable("dup", nil,
		NewNumericColumn("a", []float64{1}),
		NewNumericColumn("a", []float64{2}),
	)
	assert.Error(t, err)
}

func TestTableAccessors(t *testing.T) {
	tbl := sampleTable(t)

	assert.Equal(t, 4, tbl.Rows())
	assert.Equal(t, []string{ColCountry, ColYear}, tbl.Columns())
	assert.Equal(t, []string{ColYear}, tbl.NumericColumns())

	year, ok := tbl.TemporalColumn()
	assert.True(t, ok)
	assert.Equal(t, ColYear, year)

	_, err := tbl.Numeric(ColCountry)
	assert.ErrorIs(t, err, core.ErrColumnType)
	_, err = tbl.Numeric("nope")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	country, _ := tbl.Column(ColCountry)
	assert.Equal(t, 1, country.MissingCount())
	assert.Equal(t, []string{"UK", "USA"}, country.Distinct())
}

func TestSelectAndWhereReturnNewTables(t *testing.T) {
	tbl := sampleTable(t)

	sel := tbl.Select([]int{3, 0})
	assert.Equal(t, 2, sel.Rows())
	countries, _ := sel.Categorical(ColCountry)
	assert.Equal(t, []string{"USA", "USA"}, countries)
	assert.Equal(t, 4, tbl.Rows(), "source table must be untouched")

	all := tbl.Where(func(int) bool { return true })
	assert.Same(t, tbl, all)

	none := tbl.Where(func(int) bool { return false })
	assert.Equal(t, 0, none.Rows())
	assert.Equal(t, tbl.Columns(), none.Columns())
}

func TestWithColumnReplacesWithoutMutating(t *testing.T) {
	tbl := sampleTable(t)
	replaced, err := tbl.WithColumn(NewNumericColumn(ColYear, []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	orig, _ := tbl.Numeric(ColYear)
	next, _ := replaced.Numeric(ColYear)
	assert.Equal(t, 2015.0, orig[0])
	assert.Equal(t, 1.0, next[0])
	assert.NotEqual(t, tbl.Fingerprint(), replaced.Fingerprint())

	_, err = tbl.WithColumn(NewNumericColumn("short", []float64{1}))
	assert.Error(t, err)
}

func TestFingerprintStable(t *testing.T) {
	a := sampleTable(t)
	b := sampleTable(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintSeparatesCells(t *testing.T) {
	a, err := NewTable("t", nil, NewCategoricalColumn("c", []string{"a,", "b"}))
	require.NoError(t, err)
	b, err := NewTable("t", nil, NewCategoricalColumn("c", []string{"a", ",b"}))
	require.NoError(t, err)
	c, err := NewTable("t", nil, NewCategoricalColumn("c", []string{"a,b", ""}))
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, b.Fingerprint(), c.Fingerprint())
}

func TestSchemaLookup(t *testing.T) {
	s, ok := SchemaFor(IntrusionEvents)
	require.True(t, ok)
	_, temporal := s.Temporal()
	assert.False(t, temporal, "traffic log has no year column")

	f, ok := s.Field(ColAttackDetected)
	require.True(t, ok)
	assert.True(t, f.Binary)

	_, ok = SchemaFor(Kind("unknown"))
	assert.False(t, ok)
}
