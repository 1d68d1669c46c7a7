package publisher

import (
	"context"

	"cian-scraper/models"
)

// Publisher announces a finished scrape run to downstream consumers.
// Publishing is best-effort: the run's data is already on disk by the time
// a summary goes out.
type Publisher interface {
	PublishRunSummary(ctx context.Context, summary *models.RunSummary) error
	Close() error
}

// Noop is the publisher used when no broker is configured.
type Noop struct{}

func (Noop) PublishRunSummary(context.Context, *models.RunSummary) error { return nil }
func (Noop) Close() error                                                { return nil }
