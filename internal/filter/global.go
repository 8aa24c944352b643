package filter

import (
	"math"

	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal"
)

// Bounds returns the observed [min, max] of the table's temporal column.
// ok is false when the table has no temporal column or no observed year.
func Bounds(t *dataset.Table) (filter.Range, bool) {
	name, ok := t.TemporalColumn()
	if !ok {
		return filter.Range{}, false
	}
	years, err := t.Numeric(name)
	if err != nil {
		return filter.Range{}, false
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range years {
		if math.IsNaN(y) {
			continue
		}
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if math.IsInf(lo, 1) {
		return filter.Range{}, false
	}
	return filter.Range{Lo: lo, Hi: hi}, true
}

// ResolvePreset maps a preset onto a year range within bounds. PresetNone
// returns ok=false so the explicit range applies.
func ResolvePreset(p filter.Preset, bounds filter.Range) (filter.Range, bool) {
	switch p {
	case filter.PresetLast3Y:
		return filter.Range{Lo: bounds.Hi - 2, Hi: bounds.Hi}.Clamp(bounds), true
	case filter.PresetLast5Y:
		return filter.Range{Lo: bounds.Hi - 4, Hi: bounds.Hi}.Clamp(bounds), true
	case filter.PresetAll:
		return bounds, true
	}
	return filter.Range{}, false
}

// EffectiveRange is the year range the global stage enforces: the preset
// when one is set, otherwise the explicit range, normalized and clamped.
func EffectiveRange(g filter.GlobalState, bounds filter.Range) filter.Range {
	if r, ok := ResolvePreset(g.Preset, bounds); ok {
		return r
	}
	return g.YearRange.Clamp(bounds)
}

// ApplyGlobal runs the global stage: the year range, then the attack-type
// selector. Tables without a temporal column skip the year restriction and
// rows with a missing year are dropped. Applying it twice is the same as
// applying it once.
func ApplyGlobal(t *dataset.Table, g filter.GlobalState) *dataset.Table {
	out := t
	if bounds, ok := Bounds(t); ok {
		r := EffectiveRange(g, bounds)
		name, _ := t.TemporalColumn()
		years, _ := t.Numeric(name)
		out = t.Where(func(i int) bool {
			return !math.IsNaN(years[i]) && r.Contains(years[i])
		})
	} else if _, temporal := t.TemporalColumn(); !temporal {
		internal.DefaultLogger.Trace("global stage: %s has no temporal column, year range skipped", t.Name())
	} else {
		// temporal column exists but holds no observed year
		out = t.Where(func(int) bool { return false })
	}

	if g.AttackType == "" || g.AttackType == filter.AllValues {
		return out
	}
	types, err := out.Categorical(dataset.ColAttackType)
	if err != nil {
		return out
	}
	return out.Where(func(i int) bool { return types[i] == g.AttackType })
}
