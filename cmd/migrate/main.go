package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"cyberguard/adapters/loader"
	"cyberguard/domain/core"
	"cyberguard/domain/dataset"
	"cyberguard/internal"
	"cyberguard/internal/config"
	"cyberguard/internal/migration"
)

// migrate copies the CSV/XLSX datasets under DATA_DIR into the database
// named by DATASET_DRIVER and DATASET_DSN.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Data.UsesSQL() {
		log.Fatal("Usage: DATASET_DRIVER=<postgres|sqlite3> DATASET_DSN=<dsn> migrate")
	}
	internal.SetDefaultLevel(internal.ParseLogLevel(cfg.LogLevel))
	logger := internal.DefaultLogger
	defer logger.Sync()

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, cfg.Data.Driver, cfg.Data.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(logger)
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to create dataset tables: %v", err)
	}

	files := loader.NewFileLoader(cfg.Data, logger)
	imported, skipped := 0, 0
	for _, kind := range dataset.Kinds() {
		table, err := files.Load(ctx, kind)
		if core.IsDatasetMissing(err) {
			log.Printf("Skipping %s: %v", kind, err)
			skipped++
			continue
		}
		if err != nil {
			log.Fatalf("Failed to read %s: %v", kind, err)
		}
		if _, err := runner.Import(ctx, db, table); err != nil {
			log.Fatalf("Failed to import %s: %v", kind, err)
		}
		imported++
	}

	log.Printf("Migration %s complete: %d imported, %d skipped", runner.Version(), imported, skipped)
	if imported == 0 {
		os.Exit(1)
	}
}
