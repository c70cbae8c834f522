// backend-go/internal/domain/models.go
package domain

import "time"

// InventoryRecord represents the scraped quantity of a product in a specific machine
type InventoryRecord struct {
	ID          int64     `json:"id" db:"id"`
	Store       string    `json:"store" db:"store"`
	MachineID   string    `json:"machine_id" db:"machine_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	ProcessTime time.Time `json:"process_time" db:"process_time"`
}

// SaleEvent represents a single sale transaction reported by a machine.
// ProductName is nil when the source row carried no product.
type SaleEvent struct {
	Store       string    `json:"store" db:"store"`
	MachineID   string    `json:"machine_id" db:"machine_id"`
	ProductName *string   `json:"product_name" db:"product_name"`
	SoldAt      time.Time `json:"sold_at" db:"sold_at"`
}

// WarehouseRecord represents the quantity of a product held by one warehouse
type WarehouseRecord struct {
	WarehouseID string `json:"warehouse_id" db:"warehouse_id"`
	ProductName string `json:"product_name" db:"product_name"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

// Warehouse summarises a warehouse for the selection list
type Warehouse struct {
	WarehouseID  string `json:"warehouseName" db:"warehouse_id"`
	ProductCount int    `json:"productCount" db:"product_count"`
	TotalQty     int    `json:"totalQty" db:"total_qty"`
}

// AllocationRequest describes one replenishment suggestion for one machine
type AllocationRequest struct {
	StoreKey           StoreKey
	Strategy           Strategy
	MachineCapacity    int
	ReserveSlots       int
	OnlyAdd            bool
	WarehouseAware     bool
	SelectedWarehouses []string
}

// AllocationLineItem is the suggestion for a single product
type AllocationLineItem struct {
	ProductName   string `json:"productName"`
	CurrentQty    int    `json:"currentQty"`
	SuggestedQty  int    `json:"suggestedQty"`
	SalesCount30d int    `json:"salesCount30d"`
}

// Adjustment is the number of units to load (positive) or pull (negative)
func (li AllocationLineItem) Adjustment() int {
	return li.SuggestedQty - li.CurrentQty
}

// Outcome distinguishes why a result looks the way it does
type Outcome string

const (
	OutcomeAllocated   Outcome = "allocated"
	OutcomeAlreadyFull Outcome = "already_full"
	OutcomeNoSupply    Outcome = "no_supply"
)

// AllocationResult is the engine output, line items ordered by SuggestedQty descending
type AllocationResult struct {
	LineItems []AllocationLineItem `json:"suggestion"`
	Warning   *string              `json:"warning"`
	Message   *string              `json:"message,omitempty"`
	Outcome   Outcome              `json:"outcome"`
}

// TotalSuggested returns the sum of suggested quantities
func (r AllocationResult) TotalSuggested() int {
	total := 0
	for _, li := range r.LineItems {
		total += li.SuggestedQty
	}
	return total
}

// Totals represents the summary row of a machine suggestion
type Totals struct {
	SalesCount   int `json:"salesCount"`
	CurrentQty   int `json:"currentQty"`
	SuggestedQty int `json:"suggestedQty"`
	Adjustment   int `json:"adjustment"`
}

// Totals sums every line item
func (r AllocationResult) Totals() Totals {
	var t Totals
	for _, li := range r.LineItems {
		t.SalesCount += li.SalesCount30d
		t.CurrentQty += li.CurrentQty
		t.SuggestedQty += li.SuggestedQty
		t.Adjustment += li.Adjustment()
	}
	return t
}

// MachineSuggestion pairs a machine with its result inside a batch
type MachineSuggestion struct {
	Machine string           `json:"machine"`
	Result  AllocationResult `json:"result"`
	Totals  Totals           `json:"totals"`
}

// ShipmentLine is one row of the consolidated shipment list
type ShipmentLine struct {
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// BatchResult holds suggestions for several machines plus the merged shipment list
type BatchResult struct {
	Suggestions   []MachineSuggestion `json:"suggestions"`
	Shipment      []ShipmentLine      `json:"shipment"`
	ShipmentTotal int                 `json:"shipmentTotal"`
}

// IngestRun status values
const (
	IngestStatusRunning   = "running"
	IngestStatusCompleted = "completed"
	IngestStatusFailed    = "failed"
)

// IngestRun tracks one snapshot import
type IngestRun struct {
	ID           int64      `json:"id" db:"id"`
	Source       string     `json:"source" db:"source"`
	Status       string     `json:"status" db:"status"`
	TotalRows    int        `json:"total_rows" db:"total_rows"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage *string    `json:"error_message" db:"error_message"`
}
