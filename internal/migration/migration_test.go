package migration

import (
	"context"
	"math"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/adapters/loader"
	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/internal/testkit"
)

func memoryDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)
	runner := NewRunner(nil)
	require.NoError(t, runner.Run(ctx, db))
	require.NoError(t, runner.Run(ctx, db), "Run must be repeatable")

	cfg := testkit.DefaultThreatsConfig()
	cfg.Rows = 200
	cfg.MissingRate = 0.2
	threats, err := testkit.NewThreatsGenerator(cfg).Generate()
	require.NoError(t, err)
	intrusion, err := testkit.NewIntrusionGenerator(testkit.IntrusionGeneratorConfig{Rows: 150, Seed: 7}).Generate()
	require.NoError(t, err)

	for _, table := range []*dataset.Table{threats, intrusion} {
		n, err := runner.Import(ctx, db, table)
		require.NoError(t, err)
		assert.Equal(t, table.Rows(), n)
	}
	// a second import replaces rather than appends
	_, err = runner.Import(ctx, db, threats)
	require.NoError(t, err)

	l := loader.NewSQLLoader(db, nil)
	for _, want := range []*dataset.Table{threats, intrusion} {
		got, err := l.Load(ctx, dataset.Kind(want.Name()))
		require.NoError(t, err)
		assert.Equal(t, want.Rows(), got.Rows())
		assert.Equal(t, want.Fingerprint(), got.Fingerprint(), want.Name())
	}

	loss, err := threats.Numeric(dataset.ColFinancialLoss)
	require.NoError(t, err)
	missing := 0
	for _, v := range loss {
		if math.IsNaN(v) {
			missing++
		}
	}
	assert.Greater(t, missing, 0)
}

func TestImportRejectsAdhocTable(t *testing.T) {
	db := memoryDB(t)
	runner := NewRunner(nil)
	require.NoError(t, runner.Run(context.Background(), db))

	adhoc, err := dataset.NewTable("adhoc", nil, dataset.NewNumericColumn("x", []float64{1}))
	require.NoError(t, err)
	_, err = runner.Import(context.Background(), db, adhoc)
	assert.Error(t, err)
}

func TestLoadBeforeMigrationIsMissing(t *testing.T) {
	_, err := loader.NewSQLLoader(memoryDB(t), nil).Load(context.Background(), dataset.GlobalThreats)
	assert.True(t, core.IsDatasetMissing(err))
	assert.Equal(t, "1.0.0", NewRunner(nil).Version())
}
