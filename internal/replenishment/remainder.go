package replenishment

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Share is the real-valued ideal allocation of one product
type Share struct {
	Product string
	Ideal   decimal.Decimal
}

// DistributeLargestRemainder converts ideal shares into integers summing to total.
//
// Every product receives floor(ideal) and the products with the largest
// fractional remainder receive one extra unit until total is reached. Ties keep
// input order, which makes the result reproducible for equal inputs.
func DistributeLargestRemainder(shares []Share, total int) map[string]int {
	out := make(map[string]int, len(shares))
	if len(shares) == 0 {
		return out
	}
	if total < 0 {
		total = 0
	}

	type remainder struct {
		idx  int
		frac decimal.Decimal
	}

	remainders := make([]remainder, len(shares))
	assigned := 0
	for i, s := range shares {
		ideal := s.Ideal
		if ideal.IsNegative() {
			ideal = decimal.Zero
		}
		floor := ideal.Floor()
		n := int(floor.IntPart())

		out[s.Product] += n
		assigned += n
		remainders[i] = remainder{idx: i, frac: ideal.Sub(floor)}
	}

	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].frac.GreaterThan(remainders[b].frac)
	})

	// ideals that do not sum to total would leave more than one unit per item
	for left, i := total-assigned, 0; left > 0; left, i = left-1, (i+1)%len(remainders) {
		out[shares[remainders[i].idx].Product]++
	}

	return out
}

// proportionalShares splits target across products by weight, evenly when
// every weight is zero.
func proportionalShares(products []string, weights map[string]int, target int) []Share {
	shares := make([]Share, 0, len(products))
	if len(products) == 0 {
		return shares
	}

	budget := decimal.NewFromInt(int64(target))
	totalWeight := 0
	for _, p := range products {
		if w := weights[p]; w > 0 {
			totalWeight += w
		}
	}

	if totalWeight == 0 {
		even := budget.Div(decimal.NewFromInt(int64(len(products))))
		for _, p := range products {
			shares = append(shares, Share{Product: p, Ideal: even})
		}
		return shares
	}

	denominator := decimal.NewFromInt(int64(totalWeight))
	for _, p := range products {
		w := weights[p]
		if w < 0 {
			w = 0
		}
		ideal := budget.Mul(decimal.NewFromInt(int64(w))).Div(denominator)
		shares = append(shares, Share{Product: p, Ideal: ideal})
	}

	return shares
}

// shareOf returns round(budget * share), rounding halves away from zero.
func shareOf(budget int, share decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(budget)).Mul(share).Round(0).IntPart())
}
