package models

import "time"

// Candidate is one listing queued for detail scraping, pre-filtered
// externally (typically by distance).
type Candidate struct {
	OfferID  string
	OfferURL string
	Distance float64
}

// RunSummary accumulates the counters of one scrape run.
type RunSummary struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Total      int            `json:"total"`
	Skipped    int            `json:"skipped"`
	Attempted  int            `json:"attempted"`
	Failed     int            `json:"failed"`
	NewRecords map[string]int `json:"new_records"`
}

// NewRunSummary returns a summary with a zero counter for every category.
func NewRunSummary() *RunSummary {
	counts := make(map[string]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	return &RunSummary{StartedAt: time.Now(), NewRecords: counts}
}
