package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"suumo-scraper/config"
	"suumo-scraper/scraper/suumo"
	"suumo-scraper/services"
	"suumo-scraper/storage"
	"suumo-scraper/utils"
)

func main() {
	outputDir := flag.String("output-dir", "", "output directory (default from OUTPUT_DIR or data/processed)")
	runDateArg := flag.String("run-date", "", "run date as YYYY-MM-DD (default: today in the configured timezone)")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	runDate, err := resolveRunDate(*runDateArg, cfg.Timezone)
	if err != nil {
		logger.Error("Invalid -run-date: %v", err)
		os.Exit(1)
	}

	categories, err := cfg.Categories()
	if err != nil {
		logger.Error("Category configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("=== SUUMO Scraping System starting ===")
	logger.Info("Config — run date: %s | categories: %d | concurrency: %d | rate: %dms",
		runDate, len(categories), cfg.MaxConcurrency, cfg.RateLimitMs)

	client := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second}
	scraper, err := suumo.New(cfg, categories, client, logger)
	if err != nil {
		logger.Error("Scraper setup failed: %v", err)
		os.Exit(1)
	}

	fetchedAt := time.Now()
	rawRecords, err := scraper.Run(context.Background())
	if err != nil {
		logger.Error("Scrape failed: %v", err)
		os.Exit(1)
	}

	cleaner := services.NewCleaner(cfg.AddressContains, logger)
	records := cleaner.Clean(rawRecords)

	csvWriter, err := storage.NewCSVWriter(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to prepare output directory: %v", err)
		os.Exit(1)
	}
	if err := csvWriter.WriteSnapshot(records, runDate, fetchedAt); err != nil {
		logger.Error("Snapshot write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Snapshot saved to %s (history: %s)",
		csvWriter.LatestPath(), csvWriter.HistoryPath(runDate))

	if cfg.SkipDB {
		logger.Warn("SKIP_DB=1 — relational store write skipped")
	} else {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), cfg.MaxRetries, logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pgWriter.Close()

		if err := pgWriter.WriteRun(records, runDate); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
			os.Exit(1)
		}
		logger.Info("Run %s stored in PostgreSQL (%d rows)", runDate, len(records))
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(records, runDate))

	fmt.Printf("records=%d\n", len(records))
}

// resolveRunDate validates an explicit date or falls back to today in the
// configured timezone. The run date is a calendar date, not a timestamp.
func resolveRunDate(arg, timezone string) (string, error) {
	if arg != "" {
		if _, err := time.Parse("2006-01-02", arg); err != nil {
			return "", err
		}
		return arg, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format("2006-01-02"), nil
}
