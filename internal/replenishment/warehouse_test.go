package replenishment

import (
	"testing"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAggregateWarehouseStock(t *testing.T) {
	records := []domain.WarehouseRecord{
		{WarehouseID: "W1", ProductName: "Pudding", Quantity: 3},
		{WarehouseID: "W2", ProductName: "Pudding", Quantity: 2},
		{WarehouseID: "W3", ProductName: "Pudding", Quantity: 100},
		{WarehouseID: "W1", ProductName: "Cake", Quantity: 0},
		{WarehouseID: "W2", ProductName: "Tea", Quantity: 7},
		{WarehouseID: "W3", ProductName: "Jelly", Quantity: 4},
	}

	tests := []struct {
		name     string
		selected []string
		want     map[string]int
	}{
		{name: "two warehouses", selected: []string{"W1", "W2"}, want: map[string]int{"Pudding": 5, "Tea": 7}},
		{name: "unknown warehouse", selected: []string{"W9"}, want: map[string]int{}},
		{name: "nothing selected", selected: nil, want: map[string]int{}},
		{name: "duplicate selection counted once", selected: []string{"W3", "W3"}, want: map[string]int{"Pudding": 100, "Jelly": 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateWarehouseStock(tt.selected, records))
		})
	}
}
