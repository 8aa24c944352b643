package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal/testkit"
)

func threats(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := testkit.NewThreatsGenerator(testkit.DefaultThreatsConfig()).Generate()
	require.NoError(t, err)
	return table
}

func intrusion(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := testkit.NewIntrusionGenerator(testkit.DefaultIntrusionConfig()).Generate()
	require.NoError(t, err)
	return table
}

func TestBoundsAndPresets(t *testing.T) {
	table := threats(t)
	bounds, ok := Bounds(table)
	require.True(t, ok)
	assert.Equal(t, filter.Range{Lo: 2015, Hi: 2024}, bounds)

	r, ok := ResolvePreset(filter.PresetLast3Y, bounds)
	require.True(t, ok)
	assert.Equal(t, filter.Range{Lo: 2022, Hi: 2024}, r)

	r, _ = ResolvePreset(filter.PresetLast5Y, bounds)
	assert.Equal(t, filter.Range{Lo: 2020, Hi: 2024}, r)

	r, _ = ResolvePreset(filter.PresetAll, bounds)
	assert.Equal(t, bounds, r)

	_, ok = ResolvePreset(filter.PresetNone, bounds)
	assert.False(t, ok)

	_, ok = Bounds(intrusion(t))
	assert.False(t, ok)
}

func TestApplyGlobalSingleYear(t *testing.T) {
	table := threats(t)
	out := ApplyGlobal(table, filter.GlobalState{YearRange: filter.Range{Lo: 2022, Hi: 2022}})

	assert.Equal(t, 300, out.Rows())
	s := Summarize(table, out)
	assert.InDelta(t, 0.1, s.RetainedFraction, 1e-9)
	assert.InDelta(t, 90, s.RemovedPercent, 1e-9)
	assert.Equal(t, filter.IntensityVeryHeavy, s.Intensity)
}

func TestApplyGlobalNormalizesRange(t *testing.T) {
	table := threats(t)
	tests := []struct {
		name string
		g    filter.GlobalState
		rows int
	}{
		{"inverted range is swapped", filter.GlobalState{YearRange: filter.Range{Lo: 2020, Hi: 2018}}, 900},
		{"range clamped to bounds", filter.GlobalState{YearRange: filter.Range{Lo: 1990, Hi: 2100}}, 3000},
		{"preset overrides range", filter.GlobalState{YearRange: filter.Range{Lo: 2015, Hi: 2015}, Preset: filter.PresetLast3Y}, 900},
		{"all sentinel attack type", filter.GlobalState{YearRange: filter.Range{Lo: 2015, Hi: 2024}, AttackType: filter.AllValues}, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rows, ApplyGlobal(table, tt.g).Rows())
		})
	}
}

func TestApplyGlobalAttackType(t *testing.T) {
	table := threats(t)
	out := ApplyGlobal(table, filter.GlobalState{YearRange: filter.Range{Lo: 2015, Hi: 2024}, AttackType: "Phishing"})

	types, err := out.Categorical(dataset.ColAttackType)
	require.NoError(t, err)
	require.NotEmpty(t, types)
	for _, v := range types {
		assert.Equal(t, "Phishing", v)
	}
}

func TestApplyGlobalIsIdempotent(t *testing.T) {
	table := threats(t)
	states := []filter.GlobalState{
		{YearRange: filter.Range{Lo: 2016, Hi: 2019}},
		{Preset: filter.PresetLast3Y, AttackType: "DDoS"},
		{Preset: filter.PresetLast5Y},
		{YearRange: filter.Range{Lo: 2030, Hi: 2040}},
	}
	for _, g := range states {
		once := ApplyGlobal(table, g)
		twice := ApplyGlobal(once, g)
		assert.Equal(t, once.Fingerprint(), twice.Fingerprint(), "%+v", g)
	}
}

func TestApplyGlobalOutOfBoundsRangeSnapsToEdge(t *testing.T) {
	table := threats(t)
	bounds, ok := Bounds(table)
	require.True(t, ok)

	tests := []struct {
		name string
		in   filter.Range
		year float64
	}{
		{"after the data", filter.Range{Lo: 2030, Hi: 2031}, 2024},
		{"before the data", filter.Range{Lo: 2000, Hi: 2005}, 2015},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := filter.GlobalState{YearRange: tt.in}
			out := ApplyGlobal(table, g)
			assert.Equal(t, 300, out.Rows())
			years, err := out.Numeric(dataset.ColYear)
			require.NoError(t, err)
			for _, y := range years {
				assert.Equal(t, tt.year, y)
			}

			s := NewSession(bounds)
			chips := ActiveFilters(s.Replace(s.State().WithGlobal(g)), filter.PageGlobalThreats, bounds, table)
			require.Len(t, chips, 1)
			assert.Equal(t, filter.Range{Lo: tt.year, Hi: tt.year}.String(), chips[0].Label)
		})
	}
}

func TestApplyGlobalWithoutTemporalColumn(t *testing.T) {
	table := intrusion(t)
	out := ApplyGlobal(table, filter.GlobalState{YearRange: filter.Range{Lo: 2022, Hi: 2022}})
	assert.Same(t, table, out)
}

func TestApplyGlobalDropsMissingYear(t *testing.T) {
	table, err := dataset.NewTable(string(dataset.GlobalThreats), dataset.GlobalThreatsSchema,
		dataset.NewNumericColumn(dataset.ColYear, []float64{2015, math.NaN(), 2016}),
	)
	require.NoError(t, err)
	out := ApplyGlobal(table, filter.GlobalState{YearRange: filter.Range{Lo: 2015, Hi: 2016}})
	assert.Equal(t, 2, out.Rows())
}

func TestApplyPageEmptySelectionIsIdentity(t *testing.T) {
	table := threats(t)
	global := ApplyGlobal(table, filter.GlobalState{Preset: filter.PresetLast5Y})

	for _, p := range []filter.PageState{
		{},
		{dataset.ColAttackType: filter.Categorical()},
		{dataset.ColAttackType: filter.Categorical(filter.AllValues, "Phishing")},
		{"No Such Column": filter.Categorical("x")},
	} {
		out := ApplyPage(global, p)
		assert.Equal(t, global.Fingerprint(), out.Fingerprint())
	}
}

func TestApplyPageFilters(t *testing.T) {
	table := threats(t)

	out := ApplyPage(table, filter.PageState{
		dataset.ColCountry:    filter.Categorical("USA", "India"),
		dataset.ColAttackType: filter.Categorical("Phishing"),
	})
	countries, _ := out.Categorical(dataset.ColCountry)
	types, _ := out.Categorical(dataset.ColAttackType)
	require.NotEmpty(t, countries)
	for i := range countries {
		assert.Contains(t, []string{"USA", "India"}, countries[i])
		assert.Equal(t, "Phishing", types[i])
	}

	out = ApplyPage(table, filter.PageState{dataset.ColResolutionHours: filter.Interval(48, 12)})
	hours, _ := out.Numeric(dataset.ColResolutionHours)
	require.NotEmpty(t, hours)
	for _, h := range hours {
		assert.True(t, h >= 12 && h <= 48)
	}
}

func TestApplyPageCrossTypeEntries(t *testing.T) {
	table := threats(t)

	// set over a numeric column matches parsed numbers
	out := ApplyPage(table, filter.PageState{dataset.ColYear: filter.Categorical("2019", "not-a-year")})
	assert.Equal(t, 300, out.Rows())

	// a set with nothing numeric is ignored
	out = ApplyPage(table, filter.PageState{dataset.ColYear: filter.Categorical("recent")})
	assert.Equal(t, table.Rows(), out.Rows())

	// an interval over text that never parses is ignored
	out = ApplyPage(table, filter.PageState{dataset.ColCountry: filter.Interval(0, 10)})
	assert.Equal(t, table.Rows(), out.Rows())
}

func TestApplyPageDropsMissingInInterval(t *testing.T) {
	cfg := testkit.DefaultThreatsConfig()
	cfg.MissingRate = 0.3
	table, err := testkit.NewThreatsGenerator(cfg).Generate()
	require.NoError(t, err)

	out := ApplyPage(table, filter.PageState{dataset.ColFinancialLoss: filter.Interval(math.Inf(-1), math.Inf(1))})
	col, _ := table.Column(dataset.ColFinancialLoss)
	assert.Equal(t, table.Rows()-col.MissingCount(), out.Rows())
}

func TestPageStageNeverAddsRows(t *testing.T) {
	table := threats(t)
	pages := []filter.PageState{
		{dataset.ColCountry: filter.Categorical("USA")},
		{dataset.ColFinancialLoss: filter.Interval(10, 40), dataset.ColTargetIndustry: filter.Categorical("Banking", "Retail")},
		{dataset.ColAffectedUsers: filter.Interval(0, 1e9)},
	}
	for _, g := range []filter.GlobalState{{Preset: filter.PresetAll}, {Preset: filter.PresetLast3Y}} {
		global := ApplyGlobal(table, g)
		assert.LessOrEqual(t, global.Rows(), table.Rows())
		for _, p := range pages {
			assert.LessOrEqual(t, ApplyPage(global, p).Rows(), global.Rows())
			assert.Equal(t, ApplyPage(global, p).Fingerprint(), Apply(table, g, p).Fingerprint())
		}
	}
}

func TestSummarizeIntensity(t *testing.T) {
	tests := []struct {
		original, filtered int
		want               filter.Intensity
	}{
		{100, 100, filter.IntensityLight},
		{100, 76, filter.IntensityLight},
		{100, 75, filter.IntensityModerate},
		{100, 51, filter.IntensityModerate},
		{100, 50, filter.IntensityHeavy},
		{100, 26, filter.IntensityHeavy},
		{100, 25, filter.IntensityVeryHeavy},
		{100, 0, filter.IntensityVeryHeavy},
		{0, 0, filter.IntensityLight},
	}
	for _, tt := range tests {
		s := SummarizeCounts(tt.original, tt.filtered)
		assert.Equal(t, tt.want, s.Intensity, "%d/%d", tt.filtered, tt.original)
		assert.Equal(t, tt.original-tt.filtered, s.Removed)
	}
	assert.Equal(t, 1.0, SummarizeCounts(0, 0).RetainedFraction)
}
