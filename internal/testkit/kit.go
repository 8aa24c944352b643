package testkit

import (
	"context"
	"math"
	"math/rand"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	tables map[dataset.Kind]*dataset.Table
}

// NewTestKit generates both datasets with their default configurations
func NewTestKit() (*TestKit, error) {
	threats, err := NewThreatsGenerator(DefaultThreatsConfig()).Generate()
	if err != nil {
		return nil, err
	}
	intrusion, err := NewIntrusionGenerator(DefaultIntrusionConfig()).Generate()
	if err != nil {
		return nil, err
	}
	return NewTestKitWithTables(threats, intrusion), nil
}

// NewTestKitWithTables serves the given tables keyed by their name
func NewTestKitWithTables(tables ...*dataset.Table) *TestKit {
	k := &TestKit{tables: make(map[dataset.Kind]*dataset.Table, len(tables))}
	for _, t := range tables {
		k.tables[dataset.Kind(t.Name())] = t
	}
	return k
}

// Table returns a generated table
func (k *TestKit) Table(kind dataset.Kind) *dataset.Table { return k.tables[kind] }

// Loader serves the kit's tables; absent kinds report ErrDatasetMissing
func (k *TestKit) Loader() ports.DatasetLoader {
	return ports.LoaderFunc(func(ctx context.Context, kind dataset.Kind) (*dataset.Table, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, ok := k.tables[kind]
		if !ok {
			return nil, core.NewDatasetMissingError(string(kind), "testkit")
		}
		return t, nil
	})
}

// CorrelatedConfig configures a three-column regression fixture
type CorrelatedConfig struct {
	Rows        int     `json:"rows"`
	MissingRate float64 `json:"missing_rate"`
	Noise       float64 `json:"noise"`
	Seed        int64   `json:"seed"`
}

// DefaultCorrelatedConfig returns 1000 rows with 20% of the target missing
func DefaultCorrelatedConfig() CorrelatedConfig {
	return CorrelatedConfig{Rows: 1000, MissingRate: 0.2, Noise: 1, Seed: 42}
}

// CorrelatedTable builds an ad-hoc table with predictors x1, x2 and a
// target y = 3 + 2*x1 - 1.5*x2 + noise. Exactly round(Rows*MissingRate)
// target cells are blanked. The complete target is returned as truth.
func CorrelatedTable(config CorrelatedConfig) (*dataset.Table, []float64, error) {
	rng := rand.New(rand.NewSource(config.Seed))
	n := config.Rows
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	truth := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64() * 4
		x2[i] = 0.5*x1[i] + rng.NormFloat64()*3
		truth[i] = 3 + 2*x1[i] - 1.5*x2[i] + rng.NormFloat64()*config.Noise
		y[i] = truth[i]
	}
	missing := int(math.Round(float64(n) * config.MissingRate))
	for _, i := range rng.Perm(n)[:missing] {
		y[i] = math.NaN()
	}
	t, err := dataset.NewTable("correlated", nil,
		dataset.NewNumericColumn("x1", x1),
		dataset.NewNumericColumn("x2", x2),
		dataset.NewNumericColumn("y", y),
	)
	return t, truth, err
}
