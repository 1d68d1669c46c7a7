package cian

import (
	"fmt"
	"strings"
	"time"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

// Scraper drives the incremental detail-scrape over a candidate list: skip
// what is complete, fetch each remaining page once, run only the extractors
// whose category is still missing, append as it goes. One listing's failure
// never takes down the run.
type Scraper struct {
	cfg       *config.Config
	logger    *utils.Logger
	store     storage.TableStore
	extractor *Extractor

	delay time.Duration
}

func New(cfg *config.Config, logger *utils.Logger, store storage.TableStore, extractor *Extractor) *Scraper {
	return &Scraper{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		extractor: extractor,
		delay:     time.Duration(cfg.RequestDelayMs) * time.Millisecond,
	}
}

// Run processes the candidates against the given page session and returns
// the run's counters.
func (s *Scraper) Run(page Page, candidates []models.Candidate) *models.RunSummary {
	progress := LoadProgress(s.store, s.logger)
	done := progress.FullyProcessed()
	s.logger.Info("[cian] %d candidates, %d already fully processed", len(candidates), done.Size())

	summary := models.NewRunSummary()
	summary.Total = len(candidates)

	for i, candidate := range candidates {
		if done.Contains(candidate.OfferID) {
			summary.Skipped++
			continue
		}

		pending := progress.Pending(candidate.OfferID)
		if len(pending) == 0 {
			summary.Skipped++
			continue
		}

		s.logger.Info("[cian] Offer %s (%d/%d) — needed: %s",
			candidate.OfferID, i+1, len(candidates), strings.Join(pending, ", "))

		if err := s.processListing(page, candidate, pending, progress, summary); err != nil {
			summary.Failed++
			s.logger.Error("[cian] Offer %s failed: %v", candidate.OfferID, err)
		}

		if i < len(candidates)-1 {
			time.Sleep(s.delay)
		}
	}

	summary.FinishedAt = time.Now()
	s.report(summary)
	return summary
}

// processListing navigates to one offer and runs its pending categories. The
// recover boundary turns a panicking extraction pipeline into a counted
// failure.
func (s *Scraper) processListing(page Page, candidate models.Candidate, pending []string,
	progress *Progress, summary *models.RunSummary) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := page.Navigate(candidate.OfferURL); err != nil {
		return err
	}
	summary.Attempted++

	for _, category := range pending {
		s.runCategory(page, candidate.OfferID, category, progress, summary)
	}

	if progress.IsComplete(candidate.OfferID) {
		s.logger.Info("[cian] Offer %s fully processed", candidate.OfferID)
	} else {
		s.logger.Info("[cian] Offer %s still missing: %s",
			candidate.OfferID, strings.Join(progress.Pending(candidate.OfferID), ", "))
	}
	return nil
}

// runCategory extracts and appends one category with its own recover
// boundary, so one broken section still lets the others land.
func (s *Scraper) runCategory(page Page, offerID, category string,
	progress *Progress, summary *models.RunSummary) {

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[cian] Offer %s: %s extraction panicked: %v", offerID, category, r)
		}
	}()

	var records []map[string]string

	switch category {
	case models.CategoryPriceHistory:
		entries, found := s.extractor.PriceHistory(page, offerID)
		if !found {
			return
		}
		for _, entry := range entries {
			records = append(records, entry.Record())
		}
	case models.CategoryStats:
		stats, found := s.extractor.Stats(page, offerID)
		if !found {
			return
		}
		records = append(records, stats.Record())
	case models.CategoryFeatures:
		features, found := s.extractor.Features(page, offerID)
		if !found {
			return
		}
		records = append(records, features.Record())
	case models.CategoryRentalTerms:
		terms, found := s.extractor.RentalTerms(page, offerID)
		if !found {
			return
		}
		records = append(records, terms.Record())
	case models.CategoryApartmentDetails:
		details, found := s.extractor.ApartmentDetails(page, offerID)
		if !found {
			return
		}
		records = append(records, details.Record())
	case models.CategoryBuildingDetails:
		details, found := s.extractor.BuildingDetails(page, offerID)
		if !found {
			return
		}
		records = append(records, details.Record())
	case models.CategoryEstimation:
		estimation, found := s.extractor.Estimation(page, offerID)
		if !found {
			return
		}
		records = append(records, estimation.Record())
	default:
		s.logger.Error("[cian] Offer %s: unknown category %q", offerID, category)
		return
	}

	for _, record := range records {
		if err := s.store.Append(category, record); err != nil {
			s.logger.Error("[cian] Offer %s: append %s: %v", offerID, category, err)
			return
		}
	}

	progress.MarkDone(category, offerID)
	summary.NewRecords[category]++
}

func (s *Scraper) report(summary *models.RunSummary) {
	s.logger.Info("[cian] ==== Run summary ====")
	s.logger.Info("[cian] Candidates: %d, skipped: %d, attempted: %d, failed: %d",
		summary.Total, summary.Skipped, summary.Attempted, summary.Failed)
	for _, category := range models.Categories {
		s.logger.Info("[cian]   %-18s +%d", category, summary.NewRecords[category])
	}
	if unknown := s.extractor.UnknownLabels(); len(unknown) > 0 {
		s.logger.Warn("[cian] Unmapped site labels seen this run:")
		for _, label := range unknown {
			s.logger.Warn("[cian]   %s", label)
		}
	}
	s.logger.Info("[cian] Elapsed: %s", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))
}
