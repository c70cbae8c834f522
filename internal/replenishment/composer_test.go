package replenishment

import (
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_AddsToCurrent(t *testing.T) {
	current := map[string]int{"A": 10}
	additions := map[string]int{"A": 5, "B": 3, "C": 0}
	sales := map[string]int{"A": 4, "B": 1}

	got := Compose(current, additions, sales, 50, true)

	assert.Equal(t, domain.OutcomeAllocated, got.Outcome)
	assert.Nil(t, got.Warning)
	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "A", CurrentQty: 10, SuggestedQty: 15, SalesCount30d: 4},
		{ProductName: "B", CurrentQty: 0, SuggestedQty: 3, SalesCount30d: 1},
	}, got.LineItems)
}

func TestCompose_AlreadyFull(t *testing.T) {
	current := map[string]int{"A": 30, "B": 20}

	got := Compose(current, map[string]int{"A": 5}, nil, 50, false)

	assert.Equal(t, domain.OutcomeAlreadyFull, got.Outcome)
	require.NotNil(t, got.Warning)
	assert.Equal(t, warningAlreadyFull, *got.Warning)
	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "A", CurrentQty: 30, SuggestedQty: 30},
		{ProductName: "B", CurrentQty: 20, SuggestedQty: 20},
	}, got.LineItems)
}

func TestCompose_CorrectsOverflow(t *testing.T) {
	current := map[string]int{"A": 10, "B": 5}
	additions := map[string]int{"A": 20, "B": 20}

	got := Compose(current, additions, nil, 50, true)

	require.NotNil(t, got.Warning)
	assert.Contains(t, *got.Warning, "reduced 5 units")
	assert.Equal(t, 50, got.TotalSuggested())
	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "A", CurrentQty: 10, SuggestedQty: 25},
		{ProductName: "B", CurrentQty: 5, SuggestedQty: 25},
	}, got.LineItems)
}

func TestCompose_OverflowNeverDropsBelowCurrent(t *testing.T) {
	current := map[string]int{"A": 40, "B": 1}
	additions := map[string]int{"A": 1, "B": 10}

	got := Compose(current, additions, nil, 45, true)

	assert.Equal(t, 45, got.TotalSuggested())
	for _, li := range got.LineItems {
		assert.GreaterOrEqual(t, li.SuggestedQty, li.CurrentQty, li.ProductName)
	}
}

func TestCompose_OrderIsDeterministic(t *testing.T) {
	current := map[string]int{"C": 2, "A": 2, "B": 2}

	for i := 0; i < 20; i++ {
		got := Compose(current, nil, nil, 50, true)
		names := []string{got.LineItems[0].ProductName, got.LineItems[1].ProductName, got.LineItems[2].ProductName}
		assert.Equal(t, []string{"A", "B", "C"}, names)
	}
}
