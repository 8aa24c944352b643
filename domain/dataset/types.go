package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"cyberguard/domain/core"
)

// ColumnType is the declared scalar type of a column
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
)

// Column is a homogeneous, positionally aligned vector of scalars.
// Numeric columns mark missing cells with NaN, categorical ones with "".
type Column struct {
	Name    string
	Type    ColumnType
	Numbers []float64
	Strings []string
}

// NewNumericColumn creates a numeric column backed by values (not copied).
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Type: Numeric, Numbers: values}
}

// NewCategoricalColumn creates a categorical column backed by values (not copied).
func NewCategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, Type: Categorical, Strings: values}
}

// Len returns the number of cells
func (c *Column) Len() int {
	if c.Type == Numeric {
		return len(c.Numbers)
	}
	return len(c.Strings)
}

// IsMissing reports whether cell i holds no value
func (c *Column) IsMissing(i int) bool {
	if c.Type == Numeric {
		return math.IsNaN(c.Numbers[i])
	}
	return c.Strings[i] == ""
}

// MissingCount counts missing cells
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Text renders cell i as a string; numeric cells use the shortest exact form.
func (c *Column) Text(i int) string {
	if c.Type == Numeric {
		if math.IsNaN(c.Numbers[i]) {
			return ""
		}
		return strconv.FormatFloat(c.Numbers[i], 'f', -1, 64)
	}
	return c.Strings[i]
}

// Distinct returns the sorted set of non-missing values as text
func (c *Column) Distinct() []string {
	seen := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			seen[c.Text(i)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	if c.Numbers != nil {
		out.Numbers = append([]float64(nil), c.Numbers...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	return out
}

func (c *Column) pick(rows []int) *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	if c.Type == Numeric {
		out.Numbers = make([]float64, len(rows))
		for j, i := range rows {
			out.Numbers[j] = c.Numbers[i]
		}
		return out
	}
	out.Strings = make([]string, len(rows))
	for j, i := range rows {
		out.Strings[j] = c.Strings[i]
	}
	return out
}

// Table is an immutable, ordered set of equal-length columns.
// Every transformation returns a new Table; slices handed out by
// accessors must be treated as read-only.
type Table struct {
	name    string
	schema  *Schema
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable assembles a table, checking that column names are unique
// and all columns share one length.
func NewTable(name string, schema *Schema, columns ...*Column) (*Table, error) {
	t := &Table{
		name:    name,
		schema:  schema,
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Name returns the dataset name the table was loaded as
func (t *Table) Name() string { return t.name }

// Schema returns the declared schema, nil for ad-hoc tables
func (t *Table) Schema() *Schema { return t.schema }

// Rows returns the row count N
func (t *Table) Rows() int { return t.rows }

// Columns returns column names in table order
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Numeric returns the values of a numeric column
func (t *Table) Numeric(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, core.NewUnknownColumnError(name)
	}
	if col.Type != Numeric {
		return nil, core.NewColumnTypeError(name, string(Numeric))
	}
	return col.Numbers, nil
}

// Categorical returns the values of a categorical column
func (t *Table) Categorical(name string) ([]string, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, core.NewUnknownColumnError(name)
	}
	if col.Type != Categorical {
		return nil, core.NewColumnTypeError(name, string(Categorical))
	}
	return col.Strings, nil
}

// NumericColumns lists the numeric column names in table order
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.Type == Numeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// TemporalColumn returns the schema's temporal column if the table has one
func (t *Table) TemporalColumn() (string, bool) {
	if t.schema == nil {
		return "", false
	}
	name, ok := t.schema.Temporal()
	if !ok {
		return "", false
	}
	if _, present := t.index[name]; !present {
		return "", false
	}
	return name, true
}

// Select returns a new table containing the given rows in order
func (t *Table) Select(rows []int) *Table {
	out := &Table{
		name:    t.name,
		schema:  t.schema,
		columns: make([]*Column, len(t.columns)),
		index:   t.index,
		rows:    len(rows),
	}
	for i, c := range t.columns {
		out.columns[i] = c.pick(rows)
	}
	return out
}

// Where returns a new table with the rows for which keep is true.
// When every row is kept the receiver itself is returned.
func (t *Table) Where(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == t.rows {
		return t
	}
	return t.Select(rows)
}

// WithColumn returns a new table where col replaces the column of the
// same name, or is appended when no such column exists.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	if len(t.columns) > 0 && col.Len() != t.rows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), t.rows)
	}
	cols := make([]*Column, len(t.columns), len(t.columns)+1)
	copy(cols, t.columns)
	if i, ok := t.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return NewTable(t.name, t.schema, cols...)
}

// Fingerprint hashes the table content; equal tables share a fingerprint.
// Cells are length-prefixed so separators inside values cannot collide.
func (t *Table) Fingerprint() core.Hash {
	h := make([]byte, 0, 64*len(t.columns))
	h = append(h, t.name...)
	for _, c := range t.columns {
		h = append(h, '\x1f')
		h = append(h, c.Name...)
		h = append(h, '\x1e')
		for i := 0; i < c.Len(); i++ {
			cell := c.Text(i)
			h = strconv.AppendInt(h, int64(len(cell)), 10)
			h = append(h, ':')
			h = append(h, cell...)
		}
	}
	return core.NewHash(h)
}
