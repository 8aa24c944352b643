package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
)

func TestSessionLifecycle(t *testing.T) {
	bounds := filter.Range{Lo: 2015, Hi: 2024}
	s := NewSession(bounds)

	initial := s.State()
	assert.Equal(t, uint64(0), initial.Version)
	assert.Equal(t, bounds, initial.Global.YearRange)
	assert.Empty(t, initial.Pages)
	assert.Equal(t, s.ID(), initial.SessionID)

	next := s.Replace(initial.
		WithGlobal(filter.GlobalState{YearRange: filter.Range{Lo: 2030, Hi: 2018}}).
		WithPage(filter.PageGlobalThreats, filter.PageState{dataset.ColCountry: filter.Categorical("USA")}))
	assert.Equal(t, uint64(1), next.Version)
	assert.Equal(t, filter.Range{Lo: 2018, Hi: 2024}, next.Global.YearRange)
	assert.Len(t, next.Page(filter.PageGlobalThreats), 1)

	// the caller's copy cannot reach into the session
	next.Pages[filter.PageGlobalThreats][dataset.ColCountry] = filter.Categorical("India")
	assert.Equal(t, []string{"USA"}, s.State().Page(filter.PageGlobalThreats)[dataset.ColCountry].Values)

	updated := s.Update(func(st filter.State) filter.State {
		st.Global.Preset = filter.PresetLast3Y
		return st
	})
	assert.Equal(t, uint64(2), updated.Version)

	cleared := s.Clear()
	assert.Equal(t, uint64(3), cleared.Version)
	assert.Equal(t, bounds, cleared.Global.YearRange)
	assert.Equal(t, filter.PresetNone, cleared.Global.Preset)
	assert.Empty(t, cleared.Pages)
	assert.Equal(t, initial.SessionID, cleared.SessionID)
}

func TestBuiltinDefinitions(t *testing.T) {
	defs, err := BuiltinDefinitions()
	require.NoError(t, err)

	page, err := defs.Page(filter.PageGlobalThreats)
	require.NoError(t, err)
	assert.Equal(t, dataset.GlobalThreats, page.Dataset)

	def, ok := page.Resolve("attack_types")
	require.True(t, ok)
	assert.Equal(t, dataset.ColAttackType, def.Column)

	state := defs.DefaultState(filter.PageGlobalThreats)
	assert.True(t, state[dataset.ColCountry].Unrestricted())
	assert.Equal(t, filter.Interval(0, 10000), state[dataset.ColFinancialLoss])

	_, err = defs.Page("nope")
	assert.Error(t, err)
}

func TestOptionsReflectGlobalStage(t *testing.T) {
	defs, err := BuiltinDefinitions()
	require.NoError(t, err)

	table := threats(t)
	global := ApplyGlobal(table, filter.GlobalState{AttackType: "Phishing", Preset: filter.PresetAll})
	opts, err := defs.Options(global, filter.PageGlobalThreats)
	require.NoError(t, err)

	byKey := map[string]Option{}
	for _, o := range opts {
		byKey[o.Key] = o
	}
	assert.Equal(t, []string{filter.AllValues, "Phishing"}, byKey["attack_types"].Values)
	require.NotNil(t, byKey["loss_range"].Range)
	assert.LessOrEqual(t, byKey["loss_range"].Range.Lo, byKey["loss_range"].Range.Hi)

	intr, err := defs.Options(intrusion(t), filter.PageIntrusion)
	require.NoError(t, err)
	assert.Len(t, intr, 4)
}

func TestParseDefinitionsRejectsUnknownKind(t *testing.T) {
	_, err := ParseDefinitions([]byte(`
pages:
  - id: x
    dataset: global_threats
    filters:
      - key: k
        column: Country
        kind: slider
`))
	assert.Error(t, err)
}

func TestTriState(t *testing.T) {
	table := intrusion(t)
	detected, _ := table.Numeric(dataset.ColAttackDetected)
	attacks := 0
	for _, v := range detected {
		attacks += int(v)
	}

	for _, tt := range []struct {
		in   string
		rows int
	}{
		{"both", table.Rows()},
		{"Attack", attacks},
		{"no", table.Rows() - attacks},
	} {
		choice, err := ParseTriState(tt.in)
		require.NoError(t, err)
		out := ApplyPage(table, filter.PageState{dataset.ColAttackDetected: choice.Filter()})
		assert.Equal(t, tt.rows, out.Rows(), tt.in)
	}

	_, err := ParseTriState("maybe")
	assert.Error(t, err)
}
