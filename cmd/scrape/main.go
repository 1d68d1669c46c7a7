package main

import (
	"context"
	"os"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/publisher"
	"cian-scraper/scraper/cian"
	"cian-scraper/services"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== cian detail scraper starting ===")
	logger.Info("Config — data dir: %s | max distance: %.1f km | delay: %dms",
		cfg.DataDir, cfg.MaxDistanceKm, cfg.RequestDelayMs)

	store, err := storage.NewCSVStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open data directory: %v", err)
		os.Exit(1)
	}

	candidates, err := storage.LoadCandidates(store, cfg.ListingsCSV, cfg.MaxDistanceKm, cfg.BaseOfferURL)
	if err != nil {
		logger.Error("Failed to load candidates from %s: %v", cfg.ListingsCSV, err)
		os.Exit(1)
	}
	if len(candidates) == 0 {
		logger.Error("No candidates within %.1f km. Exiting.", cfg.MaxDistanceKm)
		os.Exit(1)
	}
	logger.Info("Loaded %d candidates within %.1f km", len(candidates), cfg.MaxDistanceKm)

	session, err := cian.NewSession(cfg, logger)
	if err != nil {
		logger.Error("Failed to start browser session: %v", err)
		os.Exit(1)
	}
	defer session.Close()

	var pub publisher.Publisher = publisher.Noop{}
	if cfg.RedisAddr != "" {
		redisPub, err := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisChannel, logger)
		if err != nil {
			logger.Warn("Redis unavailable, run summary will not be published: %v", err)
		} else {
			pub = redisPub
		}
	}
	defer pub.Close()

	extractor := cian.NewExtractor(logger, services.NewNormalizer(logger))
	scraper := cian.New(cfg, logger, store, extractor)
	summary := scraper.Run(session, candidates)

	if err := pub.PublishRunSummary(context.Background(), summary); err != nil {
		logger.Warn("Could not publish run summary: %v", err)
	}

	newRecords := 0
	for _, category := range models.Categories {
		newRecords += summary.NewRecords[category]
	}
	if summary.Attempted > 0 && newRecords == 0 {
		logger.Warn("Attempted %d listings but extracted nothing — check the site markup", summary.Attempted)
	}
}
