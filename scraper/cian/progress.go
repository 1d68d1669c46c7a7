package cian

import (
	"cian-scraper/models"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

// Progress tracks which offer ids already have a row in each category table.
// It is loaded once per run from the tables on disk and updated in memory as
// appends succeed; the tables themselves are the durable record.
type Progress struct {
	logger *utils.Logger
	sets   map[string]*utils.IDSet
}

// LoadProgress reads every category table. A missing or unreadable table
// degrades to an empty set so one corrupt file re-scrapes a category instead
// of sinking the run.
func LoadProgress(store storage.TableStore, logger *utils.Logger) *Progress {
	p := &Progress{
		logger: logger,
		sets:   make(map[string]*utils.IDSet, len(models.Categories)),
	}

	for _, category := range models.Categories {
		set := utils.NewIDSet()
		if store.Exists(category) {
			rows, err := store.ReadAll(category)
			if err != nil {
				logger.Warn("[cian] Could not read %s table, treating as empty: %v", category, err)
			} else {
				for _, row := range rows {
					if id := row["offer_id"]; id != "" {
						set.Add(id)
					}
				}
			}
		}
		logger.Info("[cian] %s: %d offer ids already recorded", category, set.Size())
		p.sets[category] = set
	}
	return p
}

// Pending returns the categories still missing for an offer, in the fixed
// category order.
func (p *Progress) Pending(offerID string) []string {
	pending := make([]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		if !p.sets[category].Contains(offerID) {
			pending = append(pending, category)
		}
	}
	return pending
}

// FullyProcessed returns the ids present in every category table. Any empty
// table empties the intersection, which is exactly the re-scrape-everything
// behavior wanted on a fresh data directory.
func (p *Progress) FullyProcessed() *utils.IDSet {
	sets := make([]*utils.IDSet, 0, len(models.Categories))
	for _, category := range models.Categories {
		sets = append(sets, p.sets[category])
	}
	return utils.Intersect(sets...)
}

// MarkDone records a successful append for this run's skip logic.
func (p *Progress) MarkDone(category, offerID string) {
	p.sets[category].Add(offerID)
}

// IsComplete reports whether every category now has the offer.
func (p *Progress) IsComplete(offerID string) bool {
	for _, category := range models.Categories {
		if !p.sets[category].Contains(offerID) {
			return false
		}
	}
	return true
}

// Counts returns the per-category recorded-id counts.
func (p *Progress) Counts() map[string]int {
	counts := make(map[string]int, len(p.sets))
	for category, set := range p.sets {
		counts[category] = set.Size()
	}
	return counts
}
