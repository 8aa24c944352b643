package filter

import (
	"fmt"
	"sort"
	"strings"

	"cyberguard/domain/core"
)

// AllValues is the sentinel a multi-select uses for "no restriction"
const AllValues = "All"

// Range is a closed numeric interval [Lo, Hi]
type Range struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Normalize swaps inverted bounds so that Lo <= Hi
func (r Range) Normalize() Range {
	if r.Lo > r.Hi {
		return Range{Lo: r.Hi, Hi: r.Lo}
	}
	return r
}

// Contains reports whether v lies in the closed interval
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Clamp restricts a normalized range to bounds
func (r Range) Clamp(bounds Range) Range {
	r = r.Normalize()
	if r.Lo < bounds.Lo {
		r.Lo = bounds.Lo
	}
	if r.Hi > bounds.Hi {
		r.Hi = bounds.Hi
	}
	if r.Lo > r.Hi {
		// Entirely outside bounds: collapse onto the nearest edge.
		if r.Lo > bounds.Hi {
			r.Lo, r.Hi = bounds.Hi, bounds.Hi
		} else {
			r.Lo, r.Hi = bounds.Lo, bounds.Lo
		}
	}
	return r
}

func (r Range) String() string {
	return fmt.Sprintf("%g–%g", r.Lo, r.Hi)
}

// Preset is a named shortcut for the global year range
type Preset string

const (
	PresetNone   Preset = ""
	PresetLast3Y Preset = "last_3y"
	PresetLast5Y Preset = "last_5y"
	PresetAll    Preset = "all"
)

// ParsePreset validates a preset name; "none" and "" both mean no preset
func ParsePreset(s string) (Preset, error) {
	switch Preset(strings.TrimSpace(strings.ToLower(s))) {
	case PresetNone, "none":
		return PresetNone, nil
	case PresetLast3Y:
		return PresetLast3Y, nil
	case PresetLast5Y:
		return PresetLast5Y, nil
	case PresetAll:
		return PresetAll, nil
	}
	return PresetNone, core.NewInvalidParameterError("preset", fmt.Sprintf("unknown preset %q", s))
}

// GlobalState is the filter stage shared by every page
type GlobalState struct {
	YearRange Range  `json:"year_range"`
	Preset    Preset `json:"preset,omitempty"`
	// AttackType narrows incidents to one attack type; "" or "All" means any.
	AttackType string `json:"attack_type,omitempty"`
}

// FilterKind distinguishes categorical sets from numeric intervals
type FilterKind string

const (
	KindCategorical FilterKind = "categorical"
	KindInterval    FilterKind = "interval"
)

// PageFilter is one entry of a page's filter state
type PageFilter struct {
	Kind   FilterKind `json:"kind" yaml:"kind"`
	Values []string   `json:"values,omitempty" yaml:"values,omitempty"`
	Range  Range      `json:"range,omitempty" yaml:"range,omitempty"`
}

// Categorical builds a set filter. An empty set means "show everything".
func Categorical(values ...string) PageFilter {
	return PageFilter{Kind: KindCategorical, Values: values}
}

// Interval builds a closed numeric interval filter
func Interval(lo, hi float64) PageFilter {
	return PageFilter{Kind: KindInterval, Range: Range{Lo: lo, Hi: hi}}
}

// Unrestricted reports whether the filter keeps every row: an empty
// categorical selection, or one that contains the "All" sentinel.
func (f PageFilter) Unrestricted() bool {
	if f.Kind != KindCategorical {
		return false
	}
	if len(f.Values) == 0 {
		return true
	}
	for _, v := range f.Values {
		if v == AllValues {
			return true
		}
	}
	return false
}

func (f PageFilter) String() string {
	if f.Kind == KindInterval {
		return f.Range.Normalize().String()
	}
	if f.Unrestricted() {
		return AllValues
	}
	return strings.Join(f.Values, ", ")
}

// PageID identifies an analysis page
type PageID string

const (
	PageGlobalThreats PageID = "global_threats"
	PageIntrusion     PageID = "intrusion_detection"
	PageDataAnalysis  PageID = "data_analysis"
	PageComparative   PageID = "comparative"
)

// PageState maps a filter column to its selection
type PageState map[string]PageFilter

// Keys returns filter columns in sorted order
func (p PageState) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies the page state
func (p PageState) Clone() PageState {
	out := make(PageState, len(p))
	for k, f := range p {
		f.Values = append([]string(nil), f.Values...)
		out[k] = f
	}
	return out
}

// With returns a copy with column set to f
func (p PageState) With(column string, f PageFilter) PageState {
	out := p.Clone()
	out[column] = f
	return out
}

// State is the whole filter selection of one session. It is a value:
// hosts replace it wholesale rather than editing it in place.
type State struct {
	Version   uint64               `json:"version"`
	SessionID core.SessionID       `json:"session_id"`
	Global    GlobalState          `json:"global"`
	Pages     map[PageID]PageState `json:"pages"`
}

// Page returns the filters of one page; never nil
func (s State) Page(id PageID) PageState {
	if p, ok := s.Pages[id]; ok {
		return p
	}
	return PageState{}
}

// Clone deep-copies the state
func (s State) Clone() State {
	out := s
	out.Pages = make(map[PageID]PageState, len(s.Pages))
	for id, p := range s.Pages {
		out.Pages[id] = p.Clone()
	}
	return out
}

// WithGlobal returns a copy carrying a new global stage
func (s State) WithGlobal(g GlobalState) State {
	out := s.Clone()
	out.Global = g
	return out
}

// WithPage returns a copy carrying new filters for one page
func (s State) WithPage(id PageID, p PageState) State {
	out := s.Clone()
	out.Pages[id] = p.Clone()
	return out
}

// Intensity buckets how much of a dataset a filter removed
type Intensity string

const (
	IntensityLight     Intensity = "light"
	IntensityModerate  Intensity = "moderate"
	IntensityHeavy     Intensity = "heavy"
	IntensityVeryHeavy Intensity = "very_heavy"
)

// Summary reports how much data survived filtering
type Summary struct {
	Original         int       `json:"original"`
	Filtered         int       `json:"filtered"`
	Removed          int       `json:"removed"`
	RetainedFraction float64   `json:"retained_fraction"`
	RemovedPercent   float64   `json:"removed_percent"`
	Intensity        Intensity `json:"intensity"`
}
