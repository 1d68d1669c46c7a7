package services

import (
	"fmt"
	"strings"

	"cian-scraper/models"
	"cian-scraper/utils"
)

// SyncSource is what the price-change sync needs from the table store.
type SyncSource interface {
	ReadAll(table string) ([]map[string]string, error)
	Header(table string) ([]string, error)
	Replace(table string, header []string, rows []map[string]string) error
}

// SyncCounters summarizes one price-change sync run.
type SyncCounters struct {
	Processed          int
	WithHistory        int
	DateMatches        int
	DateMismatches     int
	PriceChangeUpdates int
	UpdatedTimeUpdates int
}

// PriceSync reconciles the base listings table with the price history: each
// listing's price_change_value is brought up to the most recent history
// entry, and updated_time follows when the listing's date is stale.
type PriceSync struct {
	logger        *utils.Logger
	source        SyncSource
	listingsTable string
}

func NewPriceSync(logger *utils.Logger, source SyncSource, listingsTable string) *PriceSync {
	return &PriceSync{logger: logger, source: source, listingsTable: listingsTable}
}

// Run rewrites the listings table in place (atomically) and returns the
// change counters.
func (ps *PriceSync) Run() (*SyncCounters, error) {
	header, err := ps.source.Header(ps.listingsTable)
	if err != nil {
		return nil, fmt.Errorf("price sync: %w", err)
	}
	listings, err := ps.source.ReadAll(ps.listingsTable)
	if err != nil {
		return nil, fmt.Errorf("price sync: %w", err)
	}
	history, err := ps.source.ReadAll(models.CategoryPriceHistory)
	if err != nil {
		return nil, fmt.Errorf("price sync: %w", err)
	}

	latest := latestHistoryByOffer(history)
	ps.logger.Info("[sync] %d listings, price history for %d offers", len(listings), len(latest))

	counters := &SyncCounters{}
	for _, listing := range listings {
		counters.Processed++

		recent, ok := latest[listing["offer_id"]]
		if !ok {
			continue
		}
		counters.WithHistory++

		if datePart(listing["updated_time"]) == datePart(recent["date_iso"]) {
			counters.DateMatches++
		} else {
			counters.DateMismatches++
			listing["updated_time"] = recent["date_iso"]
			counters.UpdatedTimeUpdates++
		}
		listing["price_change_value"] = recent["change_clean"]
		counters.PriceChangeUpdates++
	}

	if err := ps.source.Replace(ps.listingsTable, header, listings); err != nil {
		return nil, fmt.Errorf("price sync: %w", err)
	}

	ps.logger.Info("[sync] Processed %d listings: %d with history, %d in sync, %d refreshed",
		counters.Processed, counters.WithHistory, counters.DateMatches, counters.UpdatedTimeUpdates)
	return counters, nil
}

// latestHistoryByOffer picks the entry with the greatest date_iso per offer.
// The timestamps are "2006-01-02 15:04:05" so string order is time order;
// ties go to the later row, matching append order.
func latestHistoryByOffer(history []map[string]string) map[string]map[string]string {
	latest := make(map[string]map[string]string)
	for _, row := range history {
		id := row["offer_id"]
		if id == "" {
			continue
		}
		iso := row["date_iso"]
		if iso == "" || iso[0] < '0' || iso[0] > '9' {
			continue
		}
		current, ok := latest[id]
		if !ok || row["date_iso"] >= current["date_iso"] {
			latest[id] = row
		}
	}
	return latest
}

// datePart reduces "2006-01-02 15:04:05" to its calendar day.
func datePart(ts string) string {
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		return ts[:i]
	}
	return ts
}
