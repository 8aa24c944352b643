package migration

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	"cyberguard/domain/dataset"
	"cyberguard/internal"
	"cyberguard/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the dataset tables and loads rows into them
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger.Named("migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run creates a table for every dataset kind if it does not exist yet
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, kind := range dataset.Kinds() {
		schema, _ := dataset.SchemaFor(kind)
		if err := r.createDatasetTable(ctx, db, schema); err != nil {
			return errors.Wrapf(err, "failed to create %s table", kind)
		}
	}
	return nil
}

func (r *MigrationRunner) createDatasetTable(ctx context.Context, db *sqlx.DB, schema *dataset.Schema) error {
	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		typ := "TEXT"
		if f.Type == dataset.Numeric {
			typ = "DOUBLE PRECISION"
		}
		cols[i] = quoteIdent(f.Name) + " " + typ
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		quoteIdent(string(schema.Kind)), strings.Join(cols, ",\n\t")))
	return err
}

// Import replaces the rows of the table named after t in one transaction.
// Missing cells are stored as NULL. It returns the number of rows written.
func (r *MigrationRunner) Import(ctx context.Context, db *sqlx.DB, t *dataset.Table) (int, error) {
	schema, ok := dataset.SchemaFor(dataset.Kind(t.Name()))
	if !ok {
		return 0, errors.InvalidInput(fmt.Sprintf("no dataset table for %q", t.Name()))
	}

	cols := make([]*dataset.Column, len(schema.Fields))
	names := make([]string, len(schema.Fields))
	marks := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		col, ok := t.Column(f.Name)
		if !ok {
			return 0, errors.InvalidInput(fmt.Sprintf("%s lacks column %q", t.Name(), f.Name))
		}
		cols[i] = col
		names[i] = quoteIdent(f.Name)
		marks[i] = "?"
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin import")
	}
	defer tx.Rollback()

	table := quoteIdent(t.Name())
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, errors.Wrapf(err, "failed to clear %s", t.Name())
	}
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", "))))
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	args := make([]interface{}, len(cols))
	for row := 0; row < t.Rows(); row++ {
		for i, col := range cols {
			args[i] = cell(col, row)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, errors.Wrapf(err, "failed to insert %s row %d", t.Name(), row)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit import")
	}
	r.logger.Info("imported %d rows into %s", t.Rows(), t.Name())
	return t.Rows(), nil
}

func cell(col *dataset.Column, row int) interface{} {
	if col.IsMissing(row) {
		return nil
	}
	if col.Type == dataset.Numeric {
		v := col.Numbers[row]
		if math.IsInf(v, 0) {
			return nil
		}
		return v
	}
	return col.Strings[row]
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
