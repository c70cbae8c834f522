package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		id           BIGSERIAL PRIMARY KEY,
		store        TEXT NOT NULL,
		machine_id   TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 0,
		process_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_machine_time
		ON inventory (store, machine_id, process_time DESC)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id           BIGSERIAL PRIMARY KEY,
		store        TEXT NOT NULL,
		machine_id   TEXT NOT NULL,
		product_name TEXT,
		sold_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_store_sold_at ON sales (store text_pattern_ops, sold_at)`,
	`CREATE TABLE IF NOT EXISTS warehouse_stock (
		warehouse_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (warehouse_id, product_name)
	)`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id            BIGSERIAL PRIMARY KEY,
		source        TEXT NOT NULL,
		status        TEXT NOT NULL,
		total_rows    INTEGER NOT NULL DEFAULT 0,
		started_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ,
		error_message TEXT
	)`,
}

// Migrate creates the tables used by the replenishment service
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
