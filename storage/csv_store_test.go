package storage

import (
	"os"
	"path/filepath"
	"testing"

	"cian-scraper/models"
)

func newTestStore(t *testing.T) *CSVStore {
	t.Helper()
	store, err := NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	return store
}

func TestAppendCreatesTableWithHeader(t *testing.T) {
	store := newTestStore(t)

	if store.Exists(models.CategoryEstimation) {
		t.Fatal("table should not exist before first append")
	}

	err := store.Append(models.CategoryEstimation, map[string]string{
		"offer_id":              "316600000",
		"estimated_price":       "120 000 ₽",
		"estimated_price_clean": "120000",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if !store.Exists(models.CategoryEstimation) {
		t.Fatal("table should exist after append")
	}

	header, err := store.Header(models.CategoryEstimation)
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	want := models.CategoryHeaders[models.CategoryEstimation]
	if len(header) != len(want) {
		t.Fatalf("header length: got %d, want %d", len(header), len(want))
	}
	for i := range want {
		if header[i] != want[i] {
			t.Errorf("header[%d]: got %q, want %q", i, header[i], want[i])
		}
	}
}

func TestAppendThenReadAllPreservesOrder(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"1", "2", "3"} {
		err := store.Append(models.CategoryEstimation, map[string]string{
			"offer_id":              id,
			"estimated_price_clean": id + "00000",
		})
		if err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}

	rows, err := store.ReadAll(models.CategoryEstimation)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	for i, id := range []string{"1", "2", "3"} {
		if rows[i]["offer_id"] != id {
			t.Errorf("row %d offer_id: got %q, want %q", i, rows[i]["offer_id"], id)
		}
	}
	if rows[0]["estimated_price"] != "" {
		t.Errorf("missing field should read back empty, got %q", rows[0]["estimated_price"])
	}
}

func TestAppendRejectsEmptyOfferID(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(models.CategoryStats, map[string]string{"total_views": "10"})
	if err == nil {
		t.Error("expected error for record without offer_id")
	}
}

func TestAppendRejectsUnknownCategory(t *testing.T) {
	store := newTestStore(t)

	err := store.Append("no_such_table", map[string]string{"offer_id": "1"})
	if err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestReplaceIsAtomicRewrite(t *testing.T) {
	store := newTestStore(t)

	header := []string{"offer_id", "price_change_value"}
	err := store.Replace("listings", header, []map[string]string{
		{"offer_id": "1", "price_change_value": "-5000"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	rows, err := store.ReadAll("listings")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 1 || rows[0]["price_change_value"] != "-5000" {
		t.Errorf("unexpected content after replace: %v", rows)
	}
}

func TestLoadCandidatesFiltersByDistance(t *testing.T) {
	store := newTestStore(t)

	header := []string{"offer_id", "offer_url", "distance"}
	err := store.Replace("listings", header, []map[string]string{
		{"offer_id": "1", "offer_url": "https://www.cian.ru/rent/flat/1/", "distance": "1.2"},
		{"offer_id": "2", "offer_url": "", "distance": "2,9"},
		{"offer_id": "3", "offer_url": "https://www.cian.ru/rent/flat/3/", "distance": "7.5"},
		{"offer_id": "", "offer_url": "https://www.cian.ru/rent/flat/4/", "distance": "0.5"},
		{"offer_id": "5", "offer_url": "https://www.cian.ru/rent/flat/5/", "distance": "n/a"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	candidates, err := LoadCandidates(store, "listings", 3.0, "https://www.cian.ru/rent/flat/")
	if err != nil {
		t.Fatalf("LoadCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates: got %d, want 2", len(candidates))
	}
	if candidates[0].OfferID != "1" || candidates[1].OfferID != "2" {
		t.Errorf("unexpected candidate ids: %v", candidates)
	}
	if candidates[1].OfferURL != "https://www.cian.ru/rent/flat/2/" {
		t.Errorf("missing url should be derived from id, got %q", candidates[1].OfferURL)
	}
}

func TestReadAllMissingFileReturnsError(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.ReadAll("absent"); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestReadAllSkipsCommentLines(t *testing.T) {
	dir := t.TempDir()
	store, err := NewCSVStore(dir)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}

	content := "# last_updated=2024-05-01 12:00:00\noffer_id,price_value\n1,185000\n"
	if err := os.WriteFile(filepath.Join(dir, "listings.csv"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rows, err := store.ReadAll("listings")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 1 || rows[0]["price_value"] != "185000" {
		t.Errorf("unexpected rows: %v", rows)
	}
}
