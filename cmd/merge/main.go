package main

import (
	"os"

	"cian-scraper/config"
	"cian-scraper/services"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== cian merge job starting ===")

	store, err := storage.NewCSVStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open data directory: %v", err)
		os.Exit(1)
	}

	merger := services.NewMerger(logger, store, cfg.ListingsCSV)
	result, err := merger.Merge()
	if err != nil {
		logger.Error("Merge failed: %v", err)
		os.Exit(1)
	}

	if err := store.Replace(cfg.MergedCSV, result.Columns, result.Rows); err != nil {
		logger.Error("Failed to write merged CSV: %v", err)
		os.Exit(1)
	}
	logger.Info("Merged dataset saved to %s.csv (%d rows)", cfg.MergedCSV, len(result.Rows))

	pgWriter, err := storage.NewMergedWriter(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer pgWriter.Close()

	if err := pgWriter.Write(result.Columns, result.Rows); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Merged dataset stored in PostgreSQL (table: merged_listings)")
}
