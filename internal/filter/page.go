package filter

import (
	"math"
	"strconv"
	"strings"

	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
	"cyberguard/internal"
)

// ApplyPage runs the page stage over an already globally filtered table.
// Entries apply in sorted key order. Unrestricted selections, unknown
// columns and entries that cannot be matched against the column type are
// skipped, so the result never has more rows than the input.
func ApplyPage(t *dataset.Table, p filter.PageState) *dataset.Table {
	out := t
	for _, key := range p.Keys() {
		f := p[key]
		col, ok := out.Column(key)
		if !ok {
			internal.DefaultLogger.Debug("page filter on unknown column %q ignored", key)
			continue
		}
		keep := matcher(col, f)
		if keep == nil {
			continue
		}
		out = out.Where(keep)
	}
	return out
}

// matcher builds the row predicate for one entry, or nil to skip it
func matcher(col *dataset.Column, f filter.PageFilter) func(int) bool {
	switch f.Kind {
	case filter.KindCategorical:
		if f.Unrestricted() {
			return nil
		}
		if col.Type == dataset.Categorical {
			set := make(map[string]bool, len(f.Values))
			for _, v := range f.Values {
				set[v] = true
			}
			return func(i int) bool { return set[col.Strings[i]] }
		}
		set := make(map[float64]bool, len(f.Values))
		for _, v := range f.Values {
			if x, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				set[x] = true
			}
		}
		if len(set) == 0 {
			internal.DefaultLogger.Debug("page filter %q: no numeric values in %v, ignored", col.Name, f.Values)
			return nil
		}
		return func(i int) bool { return set[col.Numbers[i]] }

	case filter.KindInterval:
		r := f.Range.Normalize()
		if col.Type == dataset.Numeric {
			return func(i int) bool {
				v := col.Numbers[i]
				return !math.IsNaN(v) && r.Contains(v)
			}
		}
		parsed := make([]float64, col.Len())
		numeric := false
		for i, s := range col.Strings {
			x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				parsed[i] = math.NaN()
				continue
			}
			parsed[i] = x
			numeric = true
		}
		if !numeric {
			internal.DefaultLogger.Debug("page filter %q: interval over non-numeric column ignored", col.Name)
			return nil
		}
		return func(i int) bool {
			return !math.IsNaN(parsed[i]) && r.Contains(parsed[i])
		}
	}
	return nil
}

// Apply runs the global stage and then the page stage
func Apply(t *dataset.Table, g filter.GlobalState, p filter.PageState) *dataset.Table {
	return ApplyPage(ApplyGlobal(t, g), p)
}
