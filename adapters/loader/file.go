package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/internal"
	"cyberguard/internal/config"
)

// FileLoader reads the dashboard datasets from CSV or XLSX files
type FileLoader struct {
	dir    string
	files  map[dataset.Kind]string
	logger *internal.Logger
}

// NewFileLoader creates a loader rooted at the configured data directory
func NewFileLoader(cfg config.DataConfig, logger *internal.Logger) *FileLoader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileLoader{
		dir: cfg.Dir,
		files: map[dataset.Kind]string{
			dataset.GlobalThreats:   cfg.GlobalThreatsFile,
			dataset.IntrusionEvents: cfg.IntrusionFile,
		},
		logger: logger.Named("file_loader"),
	}
}

// Path returns the file backing a dataset
func (l *FileLoader) Path(kind dataset.Kind) string {
	name := l.files[kind]
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.dir, name)
}

// Load reads and type-checks one dataset
func (l *FileLoader) Load(ctx context.Context, kind dataset.Kind) (*dataset.Table, error) {
	if _, ok := l.files[kind]; !ok {
		return nil, core.NewInvalidParameterError("dataset", fmt.Sprintf("unknown kind %q", kind))
	}
	path := l.Path(kind)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, core.NewDatasetMissingError(string(kind), path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", core.ErrSchemaMismatch, path)
	}

	table, err := BuildTable(kind, rows[0], rows[1:])
	if err != nil {
		return nil, err
	}
	l.logger.Info("%s loaded from %s in %.2fms (%d rows, %d columns)",
		kind, filepath.Base(path), float64(time.Since(start).Nanoseconds())/1e6, table.Rows(), len(table.Columns()))
	return table, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// readXLSX reads Sheet1, falling back to the first sheet of the workbook
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", core.ErrSchemaMismatch, path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}
