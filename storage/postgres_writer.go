package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"cian-scraper/utils"
)

// MergedWriter persists the consolidated merged dataset to PostgreSQL.
type MergedWriter struct {
	db *sql.DB
}

// NewMergedWriter opens a connection, waits for the server to come up, runs
// schema migrations and returns a ready-to-use writer.
func NewMergedWriter(dsn string, logger *utils.Logger) (*MergedWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	mw := &MergedWriter{db: db}
	if err := mw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return mw, nil
}

func (mw *MergedWriter) migrate() error {
	_, err := mw.db.Exec(`
		CREATE TABLE IF NOT EXISTS merged_listings (
			offer_id             TEXT PRIMARY KEY,
			status               TEXT    NOT NULL DEFAULT 'active',
			peak_price           NUMERIC,
			lowest_price         NUMERIC,
			first_recorded_price NUMERIC,
			last_recorded_price  NUMERIC,
			price_difference     NUMERIC,
			price_percent_change NUMERIC,
			price_change_count   INTEGER,
			data                 JSONB   NOT NULL,
			merged_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_merged_status ON merged_listings(status);
		CREATE INDEX IF NOT EXISTS idx_merged_last_price ON merged_listings(last_recorded_price);
	`)
	return err
}

// Clear deletes all previously merged rows. The merged dataset is recomputed
// wholesale on every merge run.
func (mw *MergedWriter) Clear() error {
	if _, err := mw.db.Exec("DELETE FROM merged_listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the merged rows, clearing the previous run first.
func (mw *MergedWriter) Write(columns []string, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}

	if err := mw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := mw.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (mw *MergedWriter) insertBatch(batch []map[string]string) error {
	const fields = 10
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, row := range batch {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("postgres: marshal row %q: %w", row["offer_id"], err)
		}

		base := idx * fields
		placeholders := make([]string, fields)
		for j := 0; j < fields; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		status := row["status"]
		if status == "" {
			status = "active"
		}
		valueArgs = append(valueArgs,
			row["offer_id"],
			status,
			nullableNumeric(row["peak_price"]),
			nullableNumeric(row["lowest_price"]),
			nullableNumeric(row["first_recorded_price"]),
			nullableNumeric(row["last_recorded_price"]),
			nullableNumeric(row["price_difference"]),
			nullableNumeric(row["price_percent_change"]),
			nullableNumeric(row["price_change_count"]),
			string(payload),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO merged_listings
			(offer_id, status, peak_price, lowest_price, first_recorded_price,
			 last_recorded_price, price_difference, price_percent_change,
			 price_change_count, data)
		VALUES %s
		ON CONFLICT (offer_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := mw.db.Exec(query, valueArgs...)
	return err
}

func (mw *MergedWriter) Close() error {
	return mw.db.Close()
}

// nullableNumeric maps empty or unparsable strings to SQL NULL.
func nullableNumeric(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}
