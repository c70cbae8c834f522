package replenishment

import (
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocatorFor(t *testing.T, s domain.Strategy) Allocator {
	t.Helper()
	a, err := AllocatorFor(s, DefaultParams())
	require.NoError(t, err)
	return a
}

func TestStableAllocator(t *testing.T) {
	a := allocatorFor(t, domain.StrategyStable)

	tests := []struct {
		name    string
		budget  int
		weights map[string]int
		want    map[string]int
	}{
		{
			name:    "proportional to sales",
			budget:  10,
			weights: map[string]int{"A": 5, "B": 3, "C": 2},
			want:    map[string]int{"A": 5, "B": 3, "C": 2},
		},
		{
			name:    "zero total sales splits evenly",
			budget:  10,
			weights: map[string]int{"A": 0, "B": 0, "C": 0},
			want:    map[string]int{"A": 4, "B": 3, "C": 3},
		},
		{
			name:    "unsold products get nothing",
			budget:  6,
			weights: map[string]int{"A": 1, "B": 0},
			want:    map[string]int{"A": 6, "B": 0},
		},
		{
			name:    "negative budget",
			budget:  -3,
			weights: map[string]int{"A": 1},
			want:    map[string]int{"A": 0},
		},
		{
			name:    "no products",
			budget:  10,
			weights: map[string]int{},
			want:    map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Allocate(tt.budget, tt.weights))
		})
	}
}

func TestAggressiveAllocator(t *testing.T) {
	a := allocatorFor(t, domain.StrategyAggressive)

	t.Run("top three take eighty percent", func(t *testing.T) {
		got := a.Allocate(10, map[string]int{"A": 10, "B": 8, "C": 6, "D": 4, "E": 2})
		assert.Equal(t, map[string]int{"A": 3, "B": 3, "C": 2, "D": 1, "E": 1}, got)
	})

	t.Run("empty others group leaves its budget unused", func(t *testing.T) {
		got := a.Allocate(10, map[string]int{"A": 5, "B": 5})
		assert.Equal(t, map[string]int{"A": 4, "B": 4}, got)
	})

	t.Run("ties rank by name", func(t *testing.T) {
		got := a.Allocate(5, map[string]int{"D": 1, "C": 1, "B": 1, "A": 1})
		// A, B, C share 4 of the budget, D keeps the remaining unit
		assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 1, "D": 1}, got)
	})

	t.Run("unsold products all share the others group", func(t *testing.T) {
		got := a.Allocate(15, map[string]int{"A": 10, "B": 5, "C": 0, "D": 0, "E": 0})
		assert.Equal(t, map[string]int{"A": 8, "B": 4, "C": 1, "D": 1, "E": 1}, got)
	})

	t.Run("nothing sold ranks everything by name", func(t *testing.T) {
		got := a.Allocate(10, map[string]int{"A": 0, "B": 0, "C": 0, "D": 0})
		assert.Equal(t, map[string]int{"A": 3, "B": 3, "C": 2, "D": 2}, got)
	})

	t.Run("fallback ranks by supply", func(t *testing.T) {
		got := a.AllocateWithoutSales(10, map[string]int{"A": 1, "B": 50, "C": 30, "D": 20, "E": 10})
		assert.Equal(t, map[string]int{"A": 0, "B": 4, "C": 2, "D": 2, "E": 2}, got)
	})
}

func TestExploratoryAllocator(t *testing.T) {
	a := allocatorFor(t, domain.StrategyExploratory)

	t.Run("sold products proportional, new products even", func(t *testing.T) {
		got := a.Allocate(10, map[string]int{"A": 6, "B": 2, "C": 0, "D": 0})
		assert.Equal(t, map[string]int{"A": 6, "B": 2, "C": 1, "D": 1}, got)
	})

	t.Run("no new products leaves trial budget unused", func(t *testing.T) {
		got := a.Allocate(10, map[string]int{"A": 3, "B": 1})
		assert.Equal(t, map[string]int{"A": 6, "B": 2}, got)
	})

	t.Run("fallback gives a trial quantity, largest supply first", func(t *testing.T) {
		got := a.AllocateWithoutSales(5, map[string]int{"A": 1, "B": 5, "C": 3})
		assert.Equal(t, map[string]int{"B": 2, "C": 2, "A": 1}, got)
	})

	t.Run("fallback stops when the budget is spent", func(t *testing.T) {
		got := a.AllocateWithoutSales(3, map[string]int{"A": 9, "B": 8, "C": 7})
		assert.Equal(t, map[string]int{"A": 2, "B": 1}, got)
	})
}

func TestAllocatorFor(t *testing.T) {
	assert.IsType(t, stableAllocator{}, allocatorFor(t, domain.StrategyStable))
	assert.IsType(t, aggressiveAllocator{}, allocatorFor(t, domain.StrategyAggressive))
	assert.IsType(t, exploratoryAllocator{}, allocatorFor(t, domain.StrategyExploratory))
}

func TestAllocatorFor_UnknownStrategy(t *testing.T) {
	_, err := AllocatorFor(domain.Strategy(42), DefaultParams())
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}
