// Package memory serves the read repositories from a parsed snapshot held in memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
)

type Store struct {
	inventory []domain.InventoryRecord
	sales     []domain.SaleEvent
	warehouse []domain.WarehouseRecord
}

var (
	_ repository.InventoryRepository = (*Store)(nil)
	_ repository.SalesRepository     = (*Store)(nil)
	_ repository.WarehouseRepository = (*Store)(nil)
)

func NewStore(inventory []domain.InventoryRecord, sales []domain.SaleEvent, warehouse []domain.WarehouseRecord) *Store {
	return &Store{inventory: inventory, sales: sales, warehouse: warehouse}
}

// GetCurrentInventory sums the rows of the machine's latest process time
func (s *Store) GetCurrentInventory(ctx context.Context, key domain.StoreKey) (map[string]int, error) {
	var latest time.Time
	for _, rec := range s.inventory {
		if rec.Store == key.Store && rec.MachineID == key.MachineID && rec.ProcessTime.After(latest) {
			latest = rec.ProcessTime
		}
	}

	current := make(map[string]int)
	for _, rec := range s.inventory {
		if rec.Store == key.Store && rec.MachineID == key.MachineID && rec.ProcessTime.Equal(latest) {
			current[rec.ProductName] += rec.Quantity
		}
	}
	return current, nil
}

func (s *Store) GetSaleEvents(ctx context.Context, storePrefix string, since time.Time) ([]domain.SaleEvent, error) {
	var events []domain.SaleEvent
	for _, ev := range s.sales {
		if strings.HasPrefix(ev.Store, storePrefix) && !ev.SoldAt.Before(since) {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *Store) GetWarehouseRecords(ctx context.Context, warehouseIDs []string) ([]domain.WarehouseRecord, error) {
	wanted := make(map[string]struct{}, len(warehouseIDs))
	for _, id := range warehouseIDs {
		wanted[id] = struct{}{}
	}

	var records []domain.WarehouseRecord
	for _, rec := range s.warehouse {
		if _, ok := wanted[rec.WarehouseID]; ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Store) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	byID := make(map[string]*domain.Warehouse)
	for _, rec := range s.warehouse {
		w, ok := byID[rec.WarehouseID]
		if !ok {
			w = &domain.Warehouse{WarehouseID: rec.WarehouseID}
			byID[rec.WarehouseID] = w
		}
		if rec.Quantity > 0 {
			w.ProductCount++
			w.TotalQty += rec.Quantity
		}
	}

	warehouses := make([]domain.Warehouse, 0, len(byID))
	for _, w := range byID {
		warehouses = append(warehouses, *w)
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].WarehouseID < warehouses[j].WarehouseID })
	return warehouses, nil
}

// Machines lists every machine key present in the inventory, sorted
func (s *Store) Machines() []domain.StoreKey {
	seen := make(map[domain.StoreKey]struct{})
	var keys []domain.StoreKey
	for _, rec := range s.inventory {
		key := domain.StoreKey{Store: rec.Store, MachineID: rec.MachineID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
