package cian

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cian-scraper/models"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func newProgressStore(t *testing.T) (*storage.CSVStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewCSVStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestPendingAfterPartialRun(t *testing.T) {
	store, _ := newProgressStore(t)
	logger := utils.NewLogger()

	require.NoError(t, store.Append(models.CategoryFeatures, map[string]string{"offer_id": "1"}))
	require.NoError(t, store.Append(models.CategoryEstimation, map[string]string{"offer_id": "1"}))

	progress := LoadProgress(store, logger)
	pending := progress.Pending("1")
	assert.Len(t, pending, len(models.Categories)-2)
	assert.NotContains(t, pending, models.CategoryFeatures)
	assert.NotContains(t, pending, models.CategoryEstimation)
	assert.Contains(t, pending, models.CategoryPriceHistory)

	assert.False(t, progress.IsComplete("1"))
}

func TestFullyProcessedNeedsEveryTable(t *testing.T) {
	store, _ := newProgressStore(t)
	logger := utils.NewLogger()

	for _, category := range models.Categories[:len(models.Categories)-1] {
		require.NoError(t, store.Append(category, map[string]string{"offer_id": "1"}))
	}

	progress := LoadProgress(store, logger)
	assert.Equal(t, 0, progress.FullyProcessed().Size(),
		"one missing table must empty the intersection")

	require.NoError(t, store.Append(models.Categories[len(models.Categories)-1],
		map[string]string{"offer_id": "1"}))

	progress = LoadProgress(store, logger)
	assert.True(t, progress.FullyProcessed().Contains("1"))
	assert.True(t, progress.IsComplete("1"))
	assert.Empty(t, progress.Pending("1"))
}

func TestMarkDoneUpdatesInMemoryState(t *testing.T) {
	store, _ := newProgressStore(t)
	progress := LoadProgress(store, utils.NewLogger())

	for _, category := range models.Categories {
		progress.MarkDone(category, "7")
	}
	assert.True(t, progress.IsComplete("7"))
	assert.Equal(t, 1, progress.Counts()[models.CategoryStats])
}

func TestCorruptTableDegradesToEmpty(t *testing.T) {
	store, dir := newProgressStore(t)

	path := filepath.Join(dir, models.CategoryPriceHistory+".csv")
	require.NoError(t, os.WriteFile(path, []byte("offer_id\n\"unterminated\n"), 0644))

	progress := LoadProgress(store, utils.NewLogger())
	assert.Contains(t, progress.Pending("1"), models.CategoryPriceHistory)
	assert.Equal(t, 0, progress.Counts()[models.CategoryPriceHistory])
}
