package replenishment

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Allocator splits a slot budget across eligible products.
//
// Weights hold every eligible product, with zero for products that did not
// sell. Supply holds every candidate product of the no-sales fallback, with
// the quantity the fallback ranks by.
type Allocator interface {
	Allocate(budget int, weights map[string]int) map[string]int
	AllocateWithoutSales(budget int, supply map[string]int) map[string]int
}

// AllocatorFor returns the allocator implementing a strategy
func AllocatorFor(strategy domain.Strategy, params Params) (Allocator, error) {
	params = params.withDefaults()

	switch strategy {
	case domain.StrategyStable:
		return stableAllocator{}, nil
	case domain.StrategyAggressive:
		return aggressiveAllocator{
			topN:     params.TopN,
			topShare: decimal.NewFromFloat(params.TopShare),
		}, nil
	case domain.StrategyExploratory:
		return exploratoryAllocator{
			salesShare: decimal.NewFromFloat(params.SalesShare),
			trialQty:   params.TrialQty,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStrategy, strategy)
	}
}

// stableAllocator splits the whole budget proportionally to sales.
type stableAllocator struct{}

func (stableAllocator) Allocate(budget int, weights map[string]int) map[string]int {
	if budget < 0 {
		budget = 0
	}
	if len(weights) == 0 {
		return map[string]int{}
	}

	products := sortedKeys(weights)
	return DistributeLargestRemainder(proportionalShares(products, weights, budget), budget)
}

// AllocateWithoutSales splits the budget evenly across every supplied product.
func (a stableAllocator) AllocateWithoutSales(budget int, supply map[string]int) map[string]int {
	even := make(map[string]int, len(supply))
	for p := range supply {
		even[p] = 0
	}
	return a.Allocate(budget, even)
}

// aggressiveAllocator concentrates the budget on the best sellers.
type aggressiveAllocator struct {
	topN     int
	topShare decimal.Decimal
}

func (a aggressiveAllocator) Allocate(budget int, weights map[string]int) map[string]int {
	if budget < 0 {
		budget = 0
	}
	out := make(map[string]int, len(weights))
	if len(weights) == 0 {
		return out
	}

	ranked := rankByWeight(weights)
	n := a.topSize(ranked, weights)
	top, others := ranked[:n], ranked[n:]

	topTarget := shareOf(budget, a.topShare)
	mergeInto(out, DistributeLargestRemainder(proportionalShares(top, weights, topTarget), topTarget))

	// the others budget stays unused when nobody is left outside the top group
	if len(others) > 0 {
		otherTarget := shareOf(budget, decimal.NewFromInt(1).Sub(a.topShare))
		mergeInto(out, DistributeLargestRemainder(proportionalShares(others, weights, otherTarget), otherTarget))
	}

	return out
}

// topSize counts the ranked products that belong in the top group. Only
// products with weight qualify, so unsold products all land in the others
// group. When nothing has weight everything ranks equally and the first
// topN by name form the group.
func (a aggressiveAllocator) topSize(ranked []string, weights map[string]int) int {
	n := 0
	for _, p := range ranked {
		if n == a.topN || weights[p] <= 0 {
			break
		}
		n++
	}
	if n == 0 && len(ranked) > 0 {
		n = a.topN
		if n > len(ranked) {
			n = len(ranked)
		}
	}
	return n
}

// AllocateWithoutSales ranks by supplied quantity instead of sales.
func (a aggressiveAllocator) AllocateWithoutSales(budget int, supply map[string]int) map[string]int {
	return a.Allocate(budget, supply)
}

// exploratoryAllocator keeps most of the budget on sold products and
// reserves the rest for products that have not sold yet.
type exploratoryAllocator struct {
	salesShare decimal.Decimal
	trialQty   int
}

func (a exploratoryAllocator) Allocate(budget int, weights map[string]int) map[string]int {
	if budget < 0 {
		budget = 0
	}
	out := make(map[string]int, len(weights))
	if len(weights) == 0 {
		return out
	}

	var sold, fresh []string
	for _, p := range sortedKeys(weights) {
		if weights[p] > 0 {
			sold = append(sold, p)
		} else {
			fresh = append(fresh, p)
		}
	}

	if len(sold) > 0 {
		soldTarget := shareOf(budget, a.salesShare)
		mergeInto(out, DistributeLargestRemainder(proportionalShares(sold, weights, soldTarget), soldTarget))
	}

	// the trial budget stays unused when every product already sells
	if len(fresh) > 0 {
		freshTarget := shareOf(budget, decimal.NewFromInt(1).Sub(a.salesShare))
		mergeInto(out, DistributeLargestRemainder(proportionalShares(fresh, nil, freshTarget), freshTarget))
	}

	return out
}

// AllocateWithoutSales gives every supplied product a fixed trial quantity,
// largest supply first, until the budget runs out.
func (a exploratoryAllocator) AllocateWithoutSales(budget int, supply map[string]int) map[string]int {
	out := make(map[string]int, len(supply))
	left := budget
	for _, p := range rankByWeight(supply) {
		if left <= 0 {
			break
		}
		qty := a.trialQty
		if qty > left {
			qty = left
		}
		out[p] = qty
		left -= qty
	}
	return out
}

// sortedKeys returns the map keys in name order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rankByWeight orders products by weight descending, then by name.
func rankByWeight(weights map[string]int) []string {
	ranked := sortedKeys(weights)
	sort.SliceStable(ranked, func(i, j int) bool {
		return weights[ranked[i]] > weights[ranked[j]]
	})
	return ranked
}

func mergeInto(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}
