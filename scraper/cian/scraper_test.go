package cian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/services"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func newTestScraper(t *testing.T, store storage.TableStore) *Scraper {
	t.Helper()
	logger := utils.NewLogger()
	extractor := NewExtractor(logger, services.NewNormalizer(logger))
	extractor.RetryDelay = 0
	cfg := &config.Config{RequestDelayMs: 0}
	return New(cfg, logger, store, extractor)
}

func TestRunScrapesEveryCategoryOnce(t *testing.T) {
	store, _ := newProgressStore(t)
	scraper := newTestScraper(t, store)
	page := loadFixture(t, offerPageHTML)

	candidates := []models.Candidate{{OfferID: "316", OfferURL: "https://www.cian.ru/rent/flat/316/"}}
	summary := scraper.Run(page, candidates)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	for _, category := range models.Categories {
		assert.Equal(t, 1, summary.NewRecords[category], "category %s", category)
		require.True(t, store.Exists(category), "category %s", category)
	}

	// the history table keeps one row per price event
	rows, err := store.ReadAll(models.CategoryPriceHistory)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "316", rows[0]["offer_id"])
	assert.Equal(t, "+5000", rows[0]["change_clean"])

	rows, err = store.ReadAll(models.CategoryStats)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1523", rows[0]["total_views"])
	assert.Equal(t, "false", rows[0]["is_unpublished"])
}

func TestSecondRunIsIdempotent(t *testing.T) {
	store, _ := newProgressStore(t)
	page := loadFixture(t, offerPageHTML)
	candidates := []models.Candidate{{OfferID: "316", OfferURL: "https://www.cian.ru/rent/flat/316/"}}

	newTestScraper(t, store).Run(page, candidates)
	summary := newTestScraper(t, store).Run(page, candidates)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Attempted)
	for _, category := range models.Categories {
		assert.Equal(t, 0, summary.NewRecords[category], "category %s", category)
	}

	rows, err := store.ReadAll(models.CategoryPriceHistory)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "rerun must not append duplicate rows")
}

func TestPartialPageFillsOnlyPresentCategories(t *testing.T) {
	store, _ := newProgressStore(t)
	scraper := newTestScraper(t, store)
	page := loadFixture(t, `<html><body>
		<div data-name="FeaturesLayout">
			<div data-name="FeaturesItem">Холодильник</div>
		</div>
	</body></html>`)

	summary := scraper.Run(page, []models.Candidate{{OfferID: "9", OfferURL: "u"}})

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.NewRecords[models.CategoryFeatures])
	assert.Equal(t, 0, summary.NewRecords[models.CategoryPriceHistory])
	assert.False(t, store.Exists(models.CategoryPriceHistory))
}

type failingPage struct {
	*StaticPage
	err error
}

func (f *failingPage) Navigate(string) error { return f.err }

func TestNavigationFailureIsCountedNotFatal(t *testing.T) {
	store, _ := newProgressStore(t)
	scraper := newTestScraper(t, store)

	page := &failingPage{StaticPage: loadFixture(t, offerPageHTML), err: assert.AnError}
	summary := scraper.Run(page, []models.Candidate{
		{OfferID: "1", OfferURL: "u1"},
		{OfferID: "2", OfferURL: "u2"},
	})

	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, summary.Attempted)
}
