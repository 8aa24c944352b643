package filter

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/domain/filter"
)

//go:embed pages.yaml
var pagesYAML []byte

// KindTriState marks a yes/no/both selector over a binary column
const KindTriState filter.FilterKind = "tristate"

// FilterDef declares one filter control of a page
type FilterDef struct {
	Key          string            `yaml:"key"`
	Column       string            `yaml:"column"`
	Label        string            `yaml:"label"`
	Kind         filter.FilterKind `yaml:"kind"`
	DefaultRange *filter.Range     `yaml:"default_range,omitempty"`
}

// PageDef declares a page and its filter catalogue
type PageDef struct {
	ID      filter.PageID `yaml:"id"`
	Title   string        `yaml:"title"`
	Dataset dataset.Kind  `yaml:"dataset"`
	Filters []FilterDef   `yaml:"filters"`
}

// Definitions is the page catalogue
type Definitions struct {
	Pages []PageDef `yaml:"pages"`
	byID  map[filter.PageID]*PageDef
}

// ParseDefinitions decodes a page catalogue document
func ParseDefinitions(data []byte) (*Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse page definitions: %w", err)
	}
	defs.byID = make(map[filter.PageID]*PageDef, len(defs.Pages))
	for i := range defs.Pages {
		p := &defs.Pages[i]
		if _, dup := defs.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate page %q", p.ID)
		}
		if _, ok := dataset.SchemaFor(p.Dataset); !ok {
			return nil, fmt.Errorf("page %q: unknown dataset %q", p.ID, p.Dataset)
		}
		for _, f := range p.Filters {
			switch f.Kind {
			case filter.KindCategorical, filter.KindInterval, KindTriState:
			default:
				return nil, fmt.Errorf("page %q filter %q: unknown kind %q", p.ID, f.Key, f.Kind)
			}
		}
		defs.byID[p.ID] = p
	}
	return &defs, nil
}

var (
	builtinOnce sync.Once
	builtin     *Definitions
	builtinErr  error
)

// BuiltinDefinitions returns the embedded page catalogue
func BuiltinDefinitions() (*Definitions, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = ParseDefinitions(pagesYAML)
	})
	return builtin, builtinErr
}

// Page looks up a page definition
func (d *Definitions) Page(id filter.PageID) (*PageDef, error) {
	p, ok := d.byID[id]
	if !ok {
		return nil, core.NewInvalidParameterError("page", fmt.Sprintf("unknown page %q", id))
	}
	return p, nil
}

// Resolve maps a filter key or column name on a page to its definition
func (p *PageDef) Resolve(key string) (FilterDef, bool) {
	for _, f := range p.Filters {
		if f.Key == key || f.Column == key {
			return f, true
		}
	}
	return FilterDef{}, false
}

// DefaultState returns the page filters a fresh session starts with.
// Sets default to "everything"; ranges take their declared default.
func (d *Definitions) DefaultState(id filter.PageID) filter.PageState {
	p, err := d.Page(id)
	if err != nil {
		return filter.PageState{}
	}
	state := make(filter.PageState, len(p.Filters))
	for _, f := range p.Filters {
		switch {
		case f.Kind == filter.KindInterval && f.DefaultRange != nil:
			state[f.Column] = filter.Interval(f.DefaultRange.Lo, f.DefaultRange.Hi)
		case f.Kind == filter.KindInterval:
		default:
			state[f.Column] = filter.Categorical()
		}
	}
	return state
}

// Option lists what a filter control can offer
type Option struct {
	Key    string            `json:"key"`
	Column string            `json:"column"`
	Label  string            `json:"label"`
	Kind   filter.FilterKind `json:"kind"`
	Values []string          `json:"values,omitempty"`
	Range  *filter.Range     `json:"range,omitempty"`
}

// Options lists the choices for every filter of a page, computed from t.
// Callers pass the globally filtered table so the choices reflect the
// values present after the year restriction.
func (d *Definitions) Options(t *dataset.Table, id filter.PageID) ([]Option, error) {
	p, err := d.Page(id)
	if err != nil {
		return nil, err
	}
	out := make([]Option, 0, len(p.Filters))
	for _, f := range p.Filters {
		opt := Option{Key: f.Key, Column: f.Column, Label: f.Label, Kind: f.Kind}
		col, ok := t.Column(f.Column)
		if !ok {
			continue
		}
		switch f.Kind {
		case filter.KindCategorical:
			opt.Values = append([]string{filter.AllValues}, col.Distinct()...)
		case filter.KindInterval:
			if r, ok := columnRange(col); ok {
				opt.Range = &r
			}
		case KindTriState:
			opt.Values = []string{string(TriBoth), string(TriYes), string(TriNo)}
		}
		out = append(out, opt)
	}
	return out, nil
}

func columnRange(col *dataset.Column) (filter.Range, bool) {
	if col.Type != dataset.Numeric {
		return filter.Range{}, false
	}
	first := true
	var r filter.Range
	for i, v := range col.Numbers {
		if col.IsMissing(i) {
			continue
		}
		if first || v < r.Lo {
			r.Lo = v
		}
		if first || v > r.Hi {
			r.Hi = v
		}
		first = false
	}
	return r, !first
}
