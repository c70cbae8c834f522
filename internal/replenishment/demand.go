package replenishment

import (
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// EstimateDemand counts sale events per product inside [now-lookback, now].
// Events without a product or outside the store scope are ignored.
func EstimateDemand(events []domain.SaleEvent, scope domain.StoreScope, lookback time.Duration, now time.Time) map[string]int {
	counts := make(map[string]int)
	start := now.Add(-lookback)

	for _, ev := range events {
		if ev.ProductName == nil || *ev.ProductName == "" {
			continue
		}
		if !scope.Contains(ev.Store) {
			continue
		}
		if ev.SoldAt.Before(start) || ev.SoldAt.After(now) {
			continue
		}
		counts[*ev.ProductName]++
	}

	return counts
}
