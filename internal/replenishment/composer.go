package replenishment

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

const (
	warningAlreadyFull = "current stock already at or above capacity"
	messageNoSupply    = "selected warehouses have no stock available"
)

// Compose merges current inventory with the allocated additions into line items.
//
// Products in current inventory always get a line item, other products only
// when their addition is positive. A machine already at capacity keeps its
// current quantities. When the suggested total exceeds capacity the largest
// suggestions give back added units until it fits.
func Compose(current, additions, sales map[string]int, capacity int, onlyAdd bool) domain.AllocationResult {
	if sumValues(current) >= capacity {
		return unchanged(current, sales, domain.OutcomeAlreadyFull, warningAlreadyFull)
	}

	products := make(map[string]struct{}, len(current)+len(additions))
	for p := range current {
		products[p] = struct{}{}
	}
	for p, qty := range additions {
		if qty > 0 {
			products[p] = struct{}{}
		}
	}

	items := make([]domain.AllocationLineItem, 0, len(products))
	total := 0
	for p := range products {
		cur := nonNegative(current[p])
		add := nonNegative(additions[p])

		suggested := cur + add
		if onlyAdd && suggested < cur {
			suggested = cur
		}

		items = append(items, domain.AllocationLineItem{
			ProductName:   p,
			CurrentQty:    cur,
			SuggestedQty:  suggested,
			SalesCount30d: sales[p],
		})
		total += suggested
	}
	sortLineItems(items)

	result := domain.AllocationResult{LineItems: items, Outcome: domain.OutcomeAllocated}

	if overflow := total - capacity; overflow > 0 {
		reduced := 0
		for i := range items {
			if overflow == 0 {
				break
			}
			reducible := items[i].SuggestedQty - items[i].CurrentQty
			if reducible <= 0 {
				continue
			}
			cut := reducible
			if cut > overflow {
				cut = overflow
			}
			items[i].SuggestedQty -= cut
			overflow -= cut
			reduced += cut
		}
		items = dropEmptyAdditions(items, current)
		sortLineItems(items)
		result.LineItems = items

		warning := fmt.Sprintf("rounding overflow corrected: reduced %d units to fit capacity %d", reduced, capacity)
		result.Warning = &warning
	}

	return result
}

// unchanged returns the current inventory as the suggestion.
func unchanged(current, sales map[string]int, outcome domain.Outcome, note string) domain.AllocationResult {
	items := make([]domain.AllocationLineItem, 0, len(current))
	for p, qty := range current {
		qty = nonNegative(qty)
		items = append(items, domain.AllocationLineItem{
			ProductName:   p,
			CurrentQty:    qty,
			SuggestedQty:  qty,
			SalesCount30d: sales[p],
		})
	}
	sortLineItems(items)

	result := domain.AllocationResult{LineItems: items, Outcome: outcome}
	switch outcome {
	case domain.OutcomeAlreadyFull:
		result.Warning = &note
	case domain.OutcomeNoSupply:
		result.Message = &note
	}
	return result
}

// sortLineItems orders by suggested quantity descending, then by name.
func sortLineItems(items []domain.AllocationLineItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].SuggestedQty != items[j].SuggestedQty {
			return items[i].SuggestedQty > items[j].SuggestedQty
		}
		return items[i].ProductName < items[j].ProductName
	})
}

func sumValues(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += nonNegative(v)
	}
	return total
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// dropEmptyAdditions removes products that only entered the result through an
// addition that the overflow correction took back entirely.
func dropEmptyAdditions(items []domain.AllocationLineItem, current map[string]int) []domain.AllocationLineItem {
	kept := items[:0]
	for _, li := range items {
		if _, ok := current[li.ProductName]; !ok && li.SuggestedQty == 0 {
			continue
		}
		kept = append(kept, li)
	}
	return kept
}
