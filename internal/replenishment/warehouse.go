package replenishment

import "github.com/andresuchdata/restock/backend-go/internal/domain"

// AggregateWarehouseStock sums product quantities across the selected warehouses.
// Records from other warehouses are ignored and products whose total is not
// positive are left out, so a missing key always means nothing available.
func AggregateWarehouseStock(selected []string, records []domain.WarehouseRecord) map[string]int {
	wanted := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}

	totals := make(map[string]int)
	for _, rec := range records {
		if _, ok := wanted[rec.WarehouseID]; !ok {
			continue
		}
		totals[rec.ProductName] += rec.Quantity
	}

	for product, qty := range totals {
		if qty <= 0 {
			delete(totals, product)
		}
	}

	return totals
}
