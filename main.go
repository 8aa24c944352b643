package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"cyberguard/app"
	"cyberguard/internal"
	"cyberguard/internal/config"
	"cyberguard/internal/report"
)

// main writes the full dashboard report for the configured datasets to
// stdout. Filters start at their defaults; use cmd/cli to narrow them.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.SetDefaultLevel(internal.ParseLogLevel(cfg.LogLevel))
	defer internal.DefaultLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	service, err := app.Open(ctx, cfg, internal.DefaultLogger)
	if err != nil {
		log.Fatalf("Failed to start dashboard: %v", err)
	}
	defer service.Close()

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		log.Fatalf("Invalid report format: %v", err)
	}
	if err := service.WriteReport(os.Stdout, format); err != nil {
		internal.DefaultLogger.Error("report failed: %s", report.Explain(err))
		os.Exit(1)
	}
}
