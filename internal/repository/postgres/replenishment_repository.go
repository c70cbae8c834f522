package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetCurrentInventory(ctx context.Context, key domain.StoreKey) (map[string]int, error) {
	query := `
		SELECT product_name, SUM(quantity) AS quantity
		FROM inventory
		WHERE store = $1 AND machine_id = $2
		  AND process_time = (
			SELECT MAX(process_time) FROM inventory WHERE store = $1 AND machine_id = $2
		  )
		GROUP BY product_name
	`

	var rows []struct {
		ProductName string `db:"product_name"`
		Quantity    int    `db:"quantity"`
	}
	err := r.db.withLimit(ctx, func() error {
		return r.db.SelectContext(ctx, &rows, query, key.Store, key.MachineID)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting current inventory for %s: %w", key, err)
	}

	current := make(map[string]int, len(rows))
	for _, row := range rows {
		current[row.ProductName] = row.Quantity
	}
	return current, nil
}

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSaleEvents(ctx context.Context, storePrefix string, since time.Time) ([]domain.SaleEvent, error) {
	query := `
		SELECT store, machine_id, product_name, sold_at
		FROM sales
		WHERE store LIKE $1 || '%' AND sold_at >= $2
	`

	var events []domain.SaleEvent
	err := r.db.withLimit(ctx, func() error {
		return r.db.SelectContext(ctx, &events, query, escapeLike(storePrefix), since)
	})
	if err != nil {
		return nil, fmt.Errorf("error getting sale events: %w", err)
	}
	return events, nil
}

type warehouseRepository struct {
	db *DB
}

func NewWarehouseRepository(db *DB) repository.WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) GetWarehouseRecords(ctx context.Context, warehouseIDs []string) ([]domain.WarehouseRecord, error) {
	if len(warehouseIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT warehouse_id, product_name, quantity
		FROM warehouse_stock
		WHERE warehouse_id = ANY($1::text[])
	`

	var records []domain.WarehouseRecord
	err := r.db.withLimit(ctx, func() error {
		return r.db.SelectContext(ctx, &records, query, pq.Array(warehouseIDs))
	})
	if err != nil {
		return nil, fmt.Errorf("error getting warehouse records: %w", err)
	}
	return records, nil
}

func (r *warehouseRepository) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	query := `
		SELECT warehouse_id,
		       COUNT(*) FILTER (WHERE quantity > 0) AS product_count,
		       COALESCE(SUM(quantity) FILTER (WHERE quantity > 0), 0) AS total_qty
		FROM warehouse_stock
		GROUP BY warehouse_id
		ORDER BY warehouse_id
	`

	var warehouses []domain.Warehouse
	err := r.db.withLimit(ctx, func() error {
		return r.db.SelectContext(ctx, &warehouses, query)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing warehouses: %w", err)
	}
	return warehouses, nil
}

type ingestRunRepository struct {
	db *DB
}

func NewIngestRunRepository(db *DB) repository.IngestRunRepository {
	return &ingestRunRepository{db: db}
}

func (r *ingestRunRepository) IsUpdating(ctx context.Context) (bool, error) {
	run, err := r.GetLatestRun(ctx)
	if err != nil {
		return false, err
	}
	return run != nil && run.Status == domain.IngestStatusRunning, nil
}

func (r *ingestRunRepository) GetLatestRun(ctx context.Context) (*domain.IngestRun, error) {
	query := `
		SELECT id, source, status, total_rows, started_at, completed_at, error_message
		FROM ingest_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	run := &domain.IngestRun{}
	err := r.db.withLimit(ctx, func() error {
		return r.db.GetContext(ctx, run, query)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting latest ingest run: %w", err)
	}
	return run, nil
}

func (r *ingestRunRepository) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	query := `
		UPDATE ingest_runs
		SET status = $1, completed_at = NOW(), error_message = $2
		WHERE status = $3 AND started_at < $4
	`

	var affected int64
	err := r.db.withLimit(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query,
			domain.IngestStatusFailed, "run did not finish",
			domain.IngestStatusRunning, time.Now().Add(-olderThan),
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error failing stale ingest runs: %w", err)
	}
	if affected > 0 {
		log.Warn().Int64("runs", affected).Msg("marked stale ingest runs as failed")
	}
	return int(affected), nil
}

// escapeLike makes a store name safe to use as a LIKE prefix
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
