package storage

// TableStore is the durable per-category table abstraction the scrape
// pipeline works against. Tables are append-only during scraping; Append
// must create the table with its fixed header when absent.
type TableStore interface {
	Append(category string, record map[string]string) error
	ReadAll(category string) ([]map[string]string, error)
	Exists(category string) bool
}

// TableWriter rewrites a whole table in one shot. Used by the batch jobs
// (merge output, price-change sync) that own their files exclusively.
type TableWriter interface {
	Replace(table string, header []string, rows []map[string]string) error
}

// MergedStore persists the consolidated per-listing dataset.
type MergedStore interface {
	Write(columns []string, rows []map[string]string) error
	Close() error
}
