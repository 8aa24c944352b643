package analysis

import (
	"errors"
	"fmt"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
)

// Engine computes statistics over tables. It holds no state beyond its
// distribution helpers, so every method is a pure function of its inputs.
type Engine struct {
	dist *Distributions
}

// NewEngine creates an analysis engine
func NewEngine() *Engine {
	return &Engine{dist: NewDistributions()}
}

// numeric fetches a numeric column. Categorical columns are reported as
// unknown numeric columns.
func numeric(t *dataset.Table, name string) ([]float64, error) {
	values, err := t.Numeric(name)
	if errors.Is(err, core.ErrColumnType) {
		return nil, fmt.Errorf("%w: %w", core.ErrUnknownColumn, err)
	}
	return values, err
}

// resolveColumns defaults to every numeric column when cols is empty
func resolveColumns(t *dataset.Table, cols []string) ([]string, [][]float64, error) {
	if len(cols) == 0 {
		cols = t.NumericColumns()
	}
	values := make([][]float64, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c] {
			return nil, nil, core.NewInvalidParameterError("columns", fmt.Sprintf("%q listed twice", c))
		}
		seen[c] = true
		v, err := numeric(t, c)
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
	}
	return cols, values, nil
}
