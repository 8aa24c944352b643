package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/internal"
)

// SQLLoader reads the dashboard datasets from database tables named after
// the dataset kind.
type SQLLoader struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewSQLLoader wraps an open connection
func NewSQLLoader(db *sqlx.DB, logger *internal.Logger) *SQLLoader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SQLLoader{db: db, logger: logger.Named("sql_loader")}
}

// OpenSQLLoader connects with driver (postgres or sqlite3) and dsn
func OpenSQLLoader(ctx context.Context, driver, dsn string, logger *internal.Logger) (*SQLLoader, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return NewSQLLoader(db, logger), nil
}

// DB exposes the underlying connection
func (l *SQLLoader) DB() *sqlx.DB { return l.db }

// Close releases the connection
func (l *SQLLoader) Close() error { return l.db.Close() }

// Load reads every row of the dataset table
func (l *SQLLoader) Load(ctx context.Context, kind dataset.Kind) (*dataset.Table, error) {
	if _, ok := dataset.SchemaFor(kind); !ok {
		return nil, core.NewInvalidParameterError("dataset", fmt.Sprintf("unknown kind %q", kind))
	}
	start := time.Now()

	query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(string(kind)))
	rows, err := l.db.QueryxContext(ctx, query)
	if err != nil {
		if isMissingTable(err) {
			return nil, core.NewDatasetMissingError(string(kind), "table "+string(kind))
		}
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", kind, err)
	}

	var data [][]string
	cells := make([]sql.NullString, len(headers))
	dest := make([]interface{}, len(headers))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		row := make([]string, len(headers))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
	}

	table, err := BuildTable(kind, headers, data)
	if err != nil {
		return nil, err
	}
	l.logger.Info("%s loaded from table in %.2fms (%d rows)",
		kind, float64(time.Since(start).Nanoseconds())/1e6, table.Rows())
	return table, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isMissingTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strings.Contains(liteErr.Error(), "no such table")
	}
	return false
}
