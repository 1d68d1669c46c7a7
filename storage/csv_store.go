package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"cian-scraper/models"
)

// CSVStore keeps one CSV file per table inside a data directory. Category
// tables are append-only; a file is created with its fixed header on first
// append. It is safe for concurrent use.
type CSVStore struct {
	mu  sync.Mutex
	dir string
}

// NewCSVStore creates the data directory if needed and returns the store.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create data dir: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

func (c *CSVStore) path(table string) string {
	return filepath.Join(c.dir, table+".csv")
}

// Exists reports whether the table file is present.
func (c *CSVStore) Exists(table string) bool {
	_, err := os.Stat(c.path(table))
	return err == nil
}

// Append writes one record to a category table, creating the file with the
// category's fixed header when absent. Fields missing from the record are
// written empty; unknown fields are ignored.
func (c *CSVStore) Append(category string, record map[string]string) error {
	header, ok := models.CategoryHeaders[category]
	if !ok {
		return fmt.Errorf("csv: unknown category %q", category)
	}
	if record["offer_id"] == "" {
		return fmt.Errorf("csv: refusing to append %s record without offer_id", category)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(category)
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	row := make([]string, len(header))
	for i, field := range header {
		row[i] = record[field]
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	w.Flush()
	return w.Error()
}

// ReadAll returns every row of a table as field-name → value maps, in file
// order. A missing file is an error; callers that tolerate absence degrade
// to an empty table themselves.
func (c *CSVStore) ReadAll(table string) ([]map[string]string, error) {
	f, err := os.Open(c.path(table))
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path(table), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", c.path(table), err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, field := range header {
			if i < len(rec) {
				row[field] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Header returns the header row of an existing table.
func (c *CSVStore) Header(table string) ([]string, error) {
	f, err := os.Open(c.path(table))
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", c.path(table), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", c.path(table), err)
	}
	return header, nil
}

// Replace atomically rewrites a table: the new content goes to a temporary
// file first and is renamed over the old one.
func (c *CSVStore) Replace(table string, header []string, rows []map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(table)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("csv: create %q: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		rec := make([]string, len(header))
		for i, field := range header {
			rec[i] = row[field]
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("csv: flush %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("csv: replace %q: %w", path, err)
	}
	return nil
}

// LoadCandidates reads the base listings table and returns the candidates
// within maxDistanceKm, in file order. Rows without an offer id are dropped;
// an unparsable distance sorts a row out rather than failing the load.
func LoadCandidates(s TableStore, table string, maxDistanceKm float64, baseOfferURL string) ([]models.Candidate, error) {
	rows, err := s.ReadAll(table)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["offer_id"])
		if id == "" {
			continue
		}

		distRaw := strings.ReplaceAll(row["distance"], ",", ".")
		dist, err := strconv.ParseFloat(strings.TrimSpace(distRaw), 64)
		if err != nil || dist > maxDistanceKm {
			continue
		}

		url := strings.TrimSpace(row["offer_url"])
		if !strings.HasPrefix(url, "http") {
			url = baseOfferURL + id + "/"
		}

		candidates = append(candidates, models.Candidate{
			OfferID:  id,
			OfferURL: url,
			Distance: dist,
		})
	}
	return candidates, nil
}
