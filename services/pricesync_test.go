package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cian-scraper/models"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func seedSyncStore(t *testing.T) *storage.CSVStore {
	t.Helper()
	store, err := storage.NewCSVStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Replace("listings",
		[]string{"offer_id", "updated_time", "price_change_value"},
		[]map[string]string{
			{"offer_id": "1", "updated_time": "2024-05-01 09:00:00", "price_change_value": ""},
			{"offer_id": "2", "updated_time": "2024-04-20 12:00:00", "price_change_value": "-1000"},
			{"offer_id": "3", "updated_time": "2024-04-01 08:00:00", "price_change_value": ""},
		}))

	entries := []map[string]string{
		{"offer_id": "1", "date_iso": "2024-04-28 00:00:00", "change_clean": "-3000"},
		{"offer_id": "1", "date_iso": "2024-05-01 18:30:00", "change_clean": "+5000"},
		{"offer_id": "2", "date_iso": "2024-04-25 00:00:00", "change_clean": "-2000"},
	}
	for _, entry := range entries {
		require.NoError(t, store.Append(models.CategoryPriceHistory, entry))
	}
	return store
}

func TestPriceSyncSameDayUpdatesValueOnly(t *testing.T) {
	store := seedSyncStore(t)

	counters, err := NewPriceSync(utils.NewLogger(), store, "listings").Run()
	require.NoError(t, err)

	assert.Equal(t, 3, counters.Processed)
	assert.Equal(t, 2, counters.WithHistory)
	assert.Equal(t, 1, counters.DateMatches)
	assert.Equal(t, 1, counters.DateMismatches)

	rows, err := store.ReadAll("listings")
	require.NoError(t, err)
	byID := make(map[string]map[string]string)
	for _, row := range rows {
		byID[row["offer_id"]] = row
	}

	// same calendar day: the timestamp is untouched
	assert.Equal(t, "2024-05-01 09:00:00", byID["1"]["updated_time"])
	assert.Equal(t, "+5000", byID["1"]["price_change_value"])

	// stale day: both fields follow the most recent history entry
	assert.Equal(t, "2024-04-25 00:00:00", byID["2"]["updated_time"])
	assert.Equal(t, "-2000", byID["2"]["price_change_value"])

	// no history: left alone
	assert.Equal(t, "", byID["3"]["price_change_value"])
	assert.Equal(t, "2024-04-01 08:00:00", byID["3"]["updated_time"])
}

func TestPriceSyncPicksMostRecentEntry(t *testing.T) {
	store := seedSyncStore(t)

	_, err := NewPriceSync(utils.NewLogger(), store, "listings").Run()
	require.NoError(t, err)

	rows, err := store.ReadAll("listings")
	require.NoError(t, err)
	for _, row := range rows {
		if row["offer_id"] == "1" {
			assert.Equal(t, "+5000", row["price_change_value"],
				"the 2024-05-01 entry outranks the 2024-04-28 one")
		}
	}
}

func TestPriceSyncMissingListingsTable(t *testing.T) {
	store, err := storage.NewCSVStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewPriceSync(utils.NewLogger(), store, "listings").Run()
	assert.Error(t, err)
}
