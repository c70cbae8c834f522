package replenishment

import (
	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Snapshot holds the inputs fetched for one machine.
// WarehouseStock is only read in warehouse-aware mode.
type Snapshot struct {
	CurrentInventory map[string]int
	Sales            map[string]int
	WarehouseStock   map[string]int
}

// Engine computes replenishment suggestions. It keeps no state between calls
// and is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an engine, filling unset params with defaults
func NewEngine(params Params) *Engine {
	return &Engine{params: params.withDefaults()}
}

// Params returns the thresholds the engine runs with
func (e *Engine) Params() Params {
	return e.params
}

// ClampCapacity maps out-of-range capacities to the default capacity.
func (e *Engine) ClampCapacity(capacity int) int {
	if capacity < 1 || capacity > e.params.MaxCapacity {
		return e.params.DefaultCapacity
	}
	return capacity
}

// AvailableReplenish returns the free slots left after reserving space.
func AvailableReplenish(capacity, currentTotal, reserveSlots int) int {
	if reserveSlots < 0 {
		reserveSlots = 0
	}
	free := capacity - currentTotal - reserveSlots
	if free < 0 {
		return 0
	}
	return free
}

// Compute returns the suggestion for one machine.
func (e *Engine) Compute(req domain.AllocationRequest, snap Snapshot) (domain.AllocationResult, error) {
	allocator, err := AllocatorFor(req.Strategy, e.params)
	if err != nil {
		return domain.AllocationResult{}, err
	}
	if req.WarehouseAware && len(req.SelectedWarehouses) == 0 {
		return domain.AllocationResult{}, domain.ErrNoWarehouseSelected
	}

	capacity := e.ClampCapacity(req.MachineCapacity)
	current := withoutNegatives(snap.CurrentInventory)
	sales := positive(snap.Sales)

	var stock map[string]int
	if req.WarehouseAware {
		stock = positive(snap.WarehouseStock)
	}

	currentTotal := sumValues(current)
	if currentTotal >= capacity {
		return unchanged(current, sales, domain.OutcomeAlreadyFull, warningAlreadyFull), nil
	}
	if req.WarehouseAware && len(stock) == 0 {
		return unchanged(current, sales, domain.OutcomeNoSupply, messageNoSupply), nil
	}

	budget := AvailableReplenish(capacity, currentTotal, req.ReserveSlots)

	var additions map[string]int
	if len(sales) == 0 {
		additions = allocator.AllocateWithoutSales(budget, fallbackSupply(current, stock, req.WarehouseAware))
	} else {
		additions = allocator.Allocate(budget, eligibleWeights(current, sales, stock))
	}

	clamped := ClampToWarehouse(additions, stock, req.WarehouseAware)
	return Compose(current, clamped, sales, capacity, req.OnlyAdd), nil
}

// eligibleWeights returns the sales weight of every product present in the
// machine, sold in the store or available in the warehouses.
func eligibleWeights(current, sales, stock map[string]int) map[string]int {
	weights := make(map[string]int, len(current)+len(sales)+len(stock))
	for p := range current {
		weights[p] = 0
	}
	for p := range stock {
		weights[p] = 0
	}
	for p, n := range sales {
		weights[p] = n
	}
	return weights
}

// fallbackSupply returns the candidates used when no sales were recorded:
// warehouse stock in warehouse-aware mode, the machine contents otherwise.
func fallbackSupply(current, stock map[string]int, warehouseAware bool) map[string]int {
	if warehouseAware {
		return stock
	}
	supply := make(map[string]int, len(current))
	for p, qty := range current {
		supply[p] = qty
	}
	return supply
}

// positive copies m, keeping only keys with a value above zero.
func positive(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// withoutNegatives copies m, raising negative values to zero.
func withoutNegatives(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = nonNegative(v)
	}
	return out
}
