package filter

import (
	"github.com/tidwall/gjson"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
)

// ParsePageState decodes page filters from a JSON object keyed by column:
//
//	{"Country": ["USA", "India"], "Year": [2019, 2021], "Loss": {"lo": 1, "hi": 5}}
//
// String arrays (or a single string) become categorical sets; two-element
// numeric arrays and lo/hi objects become intervals.
func ParsePageState(raw string) (filter.PageState, error) {
	return parsePageState(raw, func(key string, v gjson.Result) (string, filter.PageFilter, bool) {
		f, ok := parseEntry(v)
		return key, f, ok
	})
}

// ParsePageState decodes page filters for one page. Keys may be filter keys
// from the catalogue or column names, and tri-state selectors accept
// both|yes|no.
func (d *Definitions) ParsePageState(id filter.PageID, raw string) (filter.PageState, error) {
	page, err := d.Page(id)
	if err != nil {
		return nil, err
	}
	var parseErr error
	state, err := parsePageState(raw, func(key string, v gjson.Result) (string, filter.PageFilter, bool) {
		def, known := page.Resolve(key)
		if !known {
			f, ok := parseEntry(v)
			return key, f, ok
		}
		if def.Kind == KindTriState && v.Type == gjson.String {
			choice, err := ParseTriState(v.String())
			if err != nil {
				parseErr = err
				return "", filter.PageFilter{}, false
			}
			return def.Column, choice.Filter(), true
		}
		f, ok := parseEntry(v)
		return def.Column, f, ok
	})
	if err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return state, nil
}

func parsePageState(raw string, entry func(string, gjson.Result) (string, filter.PageFilter, bool)) (filter.PageState, error) {
	state := filter.PageState{}
	if raw == "" {
		return state, nil
	}
	if !gjson.Valid(raw) {
		return nil, core.NewInvalidParameterError("page filters", "not valid JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, core.NewInvalidParameterError("page filters", "expected a JSON object")
	}
	doc.ForEach(func(k, v gjson.Result) bool {
		if column, f, ok := entry(k.String(), v); ok {
			state[column] = f
		}
		return true
	})
	return state, nil
}

func parseEntry(v gjson.Result) (filter.PageFilter, bool) {
	switch {
	case v.IsArray():
		items := v.Array()
		if len(items) == 2 && items[0].Type == gjson.Number && items[1].Type == gjson.Number {
			return filter.Interval(items[0].Float(), items[1].Float()), true
		}
		values := make([]string, 0, len(items))
		for _, it := range items {
			values = append(values, it.String())
		}
		return filter.Categorical(values...), true
	case v.IsObject():
		lo, hi := v.Get("lo"), v.Get("hi")
		if lo.Type != gjson.Number || hi.Type != gjson.Number {
			return filter.PageFilter{}, false
		}
		return filter.Interval(lo.Float(), hi.Float()), true
	case v.Type == gjson.String:
		return filter.Categorical(v.String()), true
	case v.Type == gjson.Number:
		return filter.Categorical(v.Raw), true
	}
	return filter.PageFilter{}, false
}

// Chip is one active filter as shown in the filter summary
type Chip struct {
	Scope string `json:"scope"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ActiveFilters lists the restrictions in effect for a page: the global
// year range and attack type when they narrow the page's table t, then
// each restricting page entry in key order. Global chips are skipped when
// t lacks the column they act on; a nil t keeps them all.
func ActiveFilters(s filter.State, id filter.PageID, bounds filter.Range, t *dataset.Table) []Chip {
	var chips []Chip
	temporal := true
	if t != nil {
		_, temporal = t.TemporalColumn()
	}
	if r := EffectiveRange(s.Global, bounds); temporal && r != bounds {
		chips = append(chips, Chip{Scope: "global", Key: "year_range", Label: r.String()})
	}
	if s.Global.AttackType != "" && s.Global.AttackType != filter.AllValues && hasColumn(t, dataset.ColAttackType) {
		chips = append(chips, Chip{Scope: "global", Key: "attack_type", Label: s.Global.AttackType})
	}
	page := s.Page(id)
	for _, key := range page.Keys() {
		f := page[key]
		if f.Kind == filter.KindCategorical && f.Unrestricted() {
			continue
		}
		if f.Kind == filter.KindCategorical {
			for _, v := range f.Values {
				chips = append(chips, Chip{Scope: "page", Key: key, Label: v})
			}
			continue
		}
		chips = append(chips, Chip{Scope: "page", Key: key, Label: f.String()})
	}
	return chips
}

func hasColumn(t *dataset.Table, name string) bool {
	if t == nil {
		return true
	}
	_, ok := t.Column(name)
	return ok
}
