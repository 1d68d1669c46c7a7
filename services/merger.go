package services

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"cian-scraper/models"
	"cian-scraper/utils"
)

// MergeSource is what the merger needs from the table store.
type MergeSource interface {
	ReadAll(table string) ([]map[string]string, error)
	Header(table string) ([]string, error)
	Exists(table string) bool
}

// MergeResult is the consolidated one-row-per-listing dataset with its
// column order preserved.
type MergeResult struct {
	Columns []string
	Rows    []map[string]string
}

// joinOrder fixes the sequence of outer joins and the suffix applied to a
// column name when it collides with one already merged.
var joinOrder = []struct {
	table  string
	suffix string
}{
	{models.CategoryFeatures, ""},
	{models.CategoryEstimation, "_estimation"},
	{models.CategoryStats, "_stats"},
	{models.CategoryApartmentDetails, "_apartment"},
	{models.CategoryBuildingDetails, "_building"},
	{models.CategoryRentalTerms, "_terms"},
}

const listingsSuffix = "_cian"

// priceStatColumns are appended after the joins, in this order.
var priceStatColumns = []string{
	"peak_price", "lowest_price", "first_recorded_price",
	"last_recorded_price", "price_change_count",
	"price_difference", "price_percent_change",
}

// fillPairs patch gaps in a target column from an equivalent column that
// arrived under another name.
var fillPairs = [][2]string{
	{"commission", "commission_value"},
	{"security_deposit", "deposit_value"},
	{"estimated_price_clean", "cian_estimation_value"},
	{"last_recorded_price", "price_value"},
	{"first_recorded_price", "last_recorded_price"},
}

// dropColumns are redundant after the fills.
var dropColumns = []string{
	"estimated_price", "creation_date", "updated_date", "price_info",
	"rental_period_cian", "commission_info", "deposit_info", "commission_value",
	"deposit_value", "cian_estimation_value", "price_difference_value", "cian_estimation",
}

// Merger consolidates the category tables and the base listings table into
// one wide row per offer: outer joins keyed on offer_id, derived price
// statistics from the history table, gap fills, then redundant-column drops.
type Merger struct {
	logger        *utils.Logger
	source        MergeSource
	listingsTable string
}

func NewMerger(logger *utils.Logger, source MergeSource, listingsTable string) *Merger {
	return &Merger{logger: logger, source: source, listingsTable: listingsTable}
}

type loadedTable struct {
	header []string
	rows   []map[string]string
}

// Merge runs the whole pipeline. Missing tables degrade to empty inputs; it
// fails only when there is nothing at all to merge.
func (m *Merger) Merge() (*MergeResult, error) {
	tables := m.loadTables()

	result := &MergeResult{Columns: []string{"offer_id"}}
	merged := make(map[string]map[string]string)
	order := make([]string, 0)

	join := func(name, suffix string) {
		t, ok := tables[name]
		if !ok {
			return
		}
		m.joinTable(result, merged, &order, name, suffix, t)
	}
	for _, step := range joinOrder {
		join(step.table, step.suffix)
	}
	join(m.listingsTable, listingsSuffix)

	if len(order) == 0 {
		return nil, fmt.Errorf("merge: no source tables under %q and the category files", m.listingsTable)
	}

	if history, ok := tables[models.CategoryPriceHistory]; ok {
		m.joinPriceStats(result, merged, history.rows)
	}

	m.fillGaps(result, merged)
	m.drop(result, merged)

	result.Rows = make([]map[string]string, 0, len(order))
	for _, id := range order {
		merged[id]["offer_id"] = id
		result.Rows = append(result.Rows, merged[id])
	}
	m.logger.Info("[merge] %d listings, %d columns", len(result.Rows), len(result.Columns))
	return result, nil
}

// loadTables reads every input concurrently; an absent or unreadable table
// is reported and left out.
func (m *Merger) loadTables() map[string]loadedTable {
	names := make([]string, 0, len(joinOrder)+2)
	for _, step := range joinOrder {
		names = append(names, step.table)
	}
	names = append(names, m.listingsTable, models.CategoryPriceHistory)

	var mu sync.Mutex
	tables := make(map[string]loadedTable, len(names))

	pool := utils.NewWorkerPool(4, 0)
	for _, name := range names {
		name := name
		pool.Submit(func() {
			if !m.source.Exists(name) {
				m.logger.Warn("[merge] Table %s not found, skipping", name)
				return
			}
			header, err := m.source.Header(name)
			if err != nil {
				m.logger.Warn("[merge] Could not read %s header, skipping: %v", name, err)
				return
			}
			rows, err := m.source.ReadAll(name)
			if err != nil {
				m.logger.Warn("[merge] Could not read %s, skipping: %v", name, err)
				return
			}
			mu.Lock()
			tables[name] = loadedTable{header: header, rows: rows}
			mu.Unlock()
		})
	}
	pool.Wait()
	return tables
}

// joinTable outer-joins one table into the accumulated dataset. Duplicate
// offer_ids within a table collapse to the last row; overlapping column
// names get the table's suffix.
func (m *Merger) joinTable(result *MergeResult, merged map[string]map[string]string,
	order *[]string, name, suffix string, t loadedTable) {

	deduped, dupCount := dedupeKeepLast(t.rows)
	if dupCount > 0 {
		m.logger.Warn("[merge] %s: %d duplicate offer_id rows, keeping the most recent", name, dupCount)
	}

	renamed := make(map[string]string, len(t.header))
	existing := make(map[string]bool, len(result.Columns))
	for _, col := range result.Columns {
		existing[col] = true
	}
	for _, col := range t.header {
		if col == "offer_id" {
			continue
		}
		target := col
		if existing[col] {
			target = col + suffix
		}
		renamed[col] = target
		result.Columns = append(result.Columns, target)
		existing[target] = true
	}

	added := 0
	for _, id := range deduped.ids {
		row := deduped.byID[id]
		dst, ok := merged[id]
		if !ok {
			dst = make(map[string]string)
			merged[id] = dst
			*order = append(*order, id)
			added++
		}
		for col, target := range renamed {
			dst[target] = row[col]
		}
	}
	m.logger.Info("[merge] %s: %d rows (%d new listings)", name, len(deduped.ids), added)
}

// joinPriceStats computes per-listing statistics over the append-ordered
// price history and left-joins them: listings without history keep empty
// stat cells.
func (m *Merger) joinPriceStats(result *MergeResult, merged map[string]map[string]string,
	history []map[string]string) {

	type stats struct {
		peak, lowest, first, last float64
		count                     int
	}
	byID := make(map[string]*stats)

	for _, row := range history {
		id := row["offer_id"]
		if id == "" {
			continue
		}
		price, err := strconv.ParseFloat(row["price_clean"], 64)
		if err != nil {
			continue
		}
		s, ok := byID[id]
		if !ok {
			s = &stats{peak: price, lowest: price, first: price}
			byID[id] = s
		}
		if price > s.peak {
			s.peak = price
		}
		if price < s.lowest {
			s.lowest = price
		}
		s.last = price
		s.count++
	}

	result.Columns = append(result.Columns, priceStatColumns...)

	joined := 0
	for id, s := range byID {
		dst, ok := merged[id]
		if !ok {
			continue
		}
		dst["peak_price"] = formatPrice(s.peak)
		dst["lowest_price"] = formatPrice(s.lowest)
		dst["first_recorded_price"] = formatPrice(s.first)
		dst["last_recorded_price"] = formatPrice(s.last)
		dst["price_change_count"] = strconv.Itoa(s.count)
		dst["price_difference"] = formatPrice(s.peak - s.lowest)
		if s.first != 0 {
			pct := (s.last - s.first) / s.first * 100
			dst["price_percent_change"] = strconv.FormatFloat(math.Round(pct*100)/100, 'f', 2, 64)
		}
		joined++
	}
	m.logger.Info("[merge] Price statistics for %d of %d listings with history", joined, len(byID))
}

func (m *Merger) fillGaps(result *MergeResult, merged map[string]map[string]string) {
	existing := make(map[string]bool, len(result.Columns))
	for _, col := range result.Columns {
		existing[col] = true
	}

	for _, pair := range fillPairs {
		target, source := pair[0], pair[1]
		if !existing[target] || !existing[source] {
			continue
		}
		filled := 0
		for _, row := range merged {
			if row[target] == "" && row[source] != "" {
				row[target] = row[source]
				filled++
			}
		}
		if filled > 0 {
			m.logger.Info("[merge] Filled %d empty %s cells from %s", filled, target, source)
		}
	}
}

func (m *Merger) drop(result *MergeResult, merged map[string]map[string]string) {
	doomed := make(map[string]bool, len(dropColumns))
	for _, col := range dropColumns {
		doomed[col] = true
	}

	kept := result.Columns[:0]
	dropped := 0
	for _, col := range result.Columns {
		if doomed[col] {
			dropped++
			continue
		}
		kept = append(kept, col)
	}
	result.Columns = kept

	if dropped > 0 {
		for _, row := range merged {
			for col := range doomed {
				delete(row, col)
			}
		}
		m.logger.Info("[merge] Dropped %d redundant columns", dropped)
	}
}

type dedupedRows struct {
	ids  []string
	byID map[string]map[string]string
}

// dedupeKeepLast collapses repeated offer_ids to their last occurrence while
// keeping first-seen order.
func dedupeKeepLast(rows []map[string]string) (dedupedRows, int) {
	d := dedupedRows{byID: make(map[string]map[string]string, len(rows))}
	duplicates := 0
	for _, row := range rows {
		id := row["offer_id"]
		if id == "" {
			continue
		}
		if _, seen := d.byID[id]; seen {
			duplicates++
		} else {
			d.ids = append(d.ids, id)
		}
		d.byID[id] = row
	}
	return d, duplicates
}

func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
