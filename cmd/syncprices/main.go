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

	logger.Info("=== cian price-change sync starting ===")

	store, err := storage.NewCSVStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open data directory: %v", err)
		os.Exit(1)
	}

	sync := services.NewPriceSync(logger, store, cfg.ListingsCSV)
	counters, err := sync.Run()
	if err != nil {
		logger.Error("Price-change sync failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Done — %d listings processed, %d price changes applied, %d timestamps refreshed",
		counters.Processed, counters.PriceChangeUpdates, counters.UpdatedTimeUpdates)
}
