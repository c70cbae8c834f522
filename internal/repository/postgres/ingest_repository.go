package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// IngestRepository writes snapshot imports and tracks their runs.
// Every snapshot replacement runs in its own transaction.
type IngestRepository struct {
	db *DB
}

func NewIngestRepository(db *DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// StartRun records a running import; readers answer "data updating" until it finishes
func (r *IngestRepository) StartRun(ctx context.Context, source string) (*domain.IngestRun, error) {
	run := &domain.IngestRun{
		Source:    source,
		Status:    domain.IngestStatusRunning,
		StartedAt: time.Now(),
	}

	query := `
		INSERT INTO ingest_runs (source, status, total_rows, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.withLimit(ctx, func() error {
		return r.db.QueryRowxContext(ctx, query, run.Source, run.Status, 0, run.StartedAt).Scan(&run.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start ingest run: %w", err)
	}
	return run, nil
}

// FinishRun marks the run completed, or failed when runErr is set
func (r *IngestRepository) FinishRun(ctx context.Context, run *domain.IngestRun, runErr error) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = domain.IngestStatusCompleted
	if runErr != nil {
		msg := runErr.Error()
		run.Status = domain.IngestStatusFailed
		run.ErrorMessage = &msg
	}

	query := `
		UPDATE ingest_runs
		SET status = $1, total_rows = $2, completed_at = $3, error_message = $4
		WHERE id = $5
	`
	err := r.db.withLimit(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query, run.Status, run.TotalRows, run.CompletedAt, run.ErrorMessage, run.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to finish ingest run: %w", err)
	}
	return nil
}

// ReplaceInventory swaps the inventory snapshot for every machine present in records
func (r *IngestRepository) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) (int, error) {
	machines := make(map[domain.StoreKey]struct{})
	for _, rec := range records {
		machines[domain.StoreKey{Store: rec.Store, MachineID: rec.MachineID}] = struct{}{}
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for key := range machines {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM inventory WHERE store = $1 AND machine_id = $2`,
				key.Store, key.MachineID,
			); err != nil {
				return fmt.Errorf("failed to clear inventory for %s: %w", key, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO inventory (store, machine_id, product_name, quantity, process_time)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare inventory insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.Store, rec.MachineID, rec.ProductName, rec.Quantity, rec.ProcessTime); err != nil {
				return fmt.Errorf("failed to insert inventory row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// InsertSaleEvents appends sale events
func (r *IngestRepository) InsertSaleEvents(ctx context.Context, events []domain.SaleEvent) (int, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sales (store, machine_id, product_name, sold_at)
			VALUES ($1, $2, $3, $4)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare sales insert: %w", err)
		}
		defer stmt.Close()

		for _, ev := range events {
			if _, err := stmt.ExecContext(ctx, ev.Store, ev.MachineID, ev.ProductName, ev.SoldAt); err != nil {
				return fmt.Errorf("failed to insert sale event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// ReplaceWarehouseStock swaps the stock of every warehouse present in records
func (r *IngestRepository) ReplaceWarehouseStock(ctx context.Context, records []domain.WarehouseRecord) (int, error) {
	warehouses := make(map[string]struct{})
	for _, rec := range records {
		warehouses[rec.WarehouseID] = struct{}{}
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for id := range warehouses {
			if _, err := tx.ExecContext(ctx, `DELETE FROM warehouse_stock WHERE warehouse_id = $1`, id); err != nil {
				return fmt.Errorf("failed to clear warehouse %s: %w", id, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO warehouse_stock (warehouse_id, product_name, quantity, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (warehouse_id, product_name)
			DO UPDATE SET quantity = warehouse_stock.quantity + EXCLUDED.quantity, updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare warehouse insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.WarehouseID, rec.ProductName, rec.Quantity); err != nil {
				return fmt.Errorf("failed to insert warehouse row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
