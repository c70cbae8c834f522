// backend-go/internal/repository/replenishment_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

type InventoryRepository interface {
	// GetCurrentInventory returns product -> quantity from the latest snapshot of one machine
	GetCurrentInventory(ctx context.Context, key domain.StoreKey) (map[string]int, error)
}

type SalesRepository interface {
	// GetSaleEvents returns sales of every store whose name starts with storePrefix, sold at or after since
	GetSaleEvents(ctx context.Context, storePrefix string, since time.Time) ([]domain.SaleEvent, error)
}

type WarehouseRepository interface {
	GetWarehouseRecords(ctx context.Context, warehouseIDs []string) ([]domain.WarehouseRecord, error)
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)
}

type IngestRunRepository interface {
	// IsUpdating reports whether an ingest run is currently replacing the snapshot
	IsUpdating(ctx context.Context) (bool, error)
	GetLatestRun(ctx context.Context) (*domain.IngestRun, error)
	// FailStaleRuns marks runs still running after olderThan as failed
	FailStaleRuns(ctx context.Context, olderThan time.Duration) (int, error)
}
