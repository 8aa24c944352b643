package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
)

// missingTokens are cell spellings read as "no value"
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// IsMissingToken reports whether a raw cell denotes a missing value
func IsMissingToken(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// BuildTable converts raw string rows into a typed table for kind. Every
// declared column must be present in headers and numeric cells must parse
// or be a missing token; extra columns are kept as categorical after the
// declared ones.
func BuildTable(kind dataset.Kind, headers []string, rows [][]string) (*dataset.Table, error) {
	schema, ok := dataset.SchemaFor(kind)
	if !ok {
		return nil, core.NewInvalidParameterError("dataset", fmt.Sprintf("unknown kind %q", kind))
	}

	position := make(map[string]int, len(headers))
	for i, h := range headers {
		h = cleanHeader(h)
		if _, dup := position[h]; dup {
			return nil, fmt.Errorf("%w: duplicate header %q in %s", core.ErrSchemaMismatch, h, kind)
		}
		position[h] = i
	}

	var missing []string
	for _, f := range schema.Fields {
		if _, ok := position[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s lacks columns %s", core.ErrSchemaMismatch, kind, strings.Join(missing, ", "))
	}

	cols := make([]*dataset.Column, 0, len(headers))
	declared := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		declared[f.Name] = true
		col, err := buildColumn(f.Name, f.Type, position[f.Name], rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		cols = append(cols, col)
	}
	for i, h := range headers {
		name := cleanHeader(h)
		if declared[name] || name == "" {
			continue
		}
		col, err := buildColumn(name, dataset.Categorical, i, rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	return dataset.NewTable(string(kind), schema, cols...)
}

func buildColumn(name string, typ dataset.ColumnType, idx int, rows [][]string) (*dataset.Column, error) {
	if typ == dataset.Numeric {
		values := make([]float64, len(rows))
		for r, row := range rows {
			raw := cell(row, idx)
			if IsMissingToken(raw) {
				values[r] = math.NaN()
				continue
			}
			v, err := parseNumber(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q row %d: %q is not numeric",
					core.ErrSchemaMismatch, name, r+1, raw)
			}
			values[r] = v
		}
		return dataset.NewNumericColumn(name, values), nil
	}

	values := make([]string, len(rows))
	for r, row := range rows {
		raw := strings.TrimSpace(cell(row, idx))
		if IsMissingToken(raw) {
			continue
		}
		values[r] = raw
	}
	return dataset.NewCategoricalColumn(name, values), nil
}

// parseNumber accepts plain floats plus the boolean spellings used by
// binary indicator columns.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true", "yes":
		return 1, nil
	case "false", "no":
		return 0, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

// rows may be ragged: spreadsheets drop trailing empty cells
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
