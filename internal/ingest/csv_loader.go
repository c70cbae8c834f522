package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

var (
	inventoryHeader = []string{"store", "machine_id", "product_name", "quantity", "process_time"}
	salesHeader     = []string{"store", "machine_id", "product_name", "sold_at"}
	warehouseHeader = []string{"warehouse_id", "product_name", "quantity"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// Loader parses snapshot exports. Columns are matched by header name, so
// extra columns and any column order are accepted.
type Loader struct {
	location *time.Location
}

// NewLoader creates a loader that reads zone-less timestamps in loc
func NewLoader(loc *time.Location) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{location: loc}
}

// LoadInventory parses a machine inventory export
func (l *Loader) LoadInventory(r io.Reader) ([]domain.InventoryRecord, error) {
	rows, err := readTable(r, "inventory", inventoryHeader)
	if err != nil {
		return nil, err
	}

	records := make([]domain.InventoryRecord, 0, len(rows))
	for _, row := range rows {
		qty, err := parseQuantity(row.get("quantity"))
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", row.line, err)
		}
		at, err := l.parseTime(row.get("process_time"))
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", row.line, err)
		}
		rec := domain.InventoryRecord{
			Store:       row.get("store"),
			MachineID:   row.get("machine_id"),
			ProductName: row.get("product_name"),
			Quantity:    qty,
			ProcessTime: at,
		}
		if rec.Store == "" || rec.MachineID == "" || rec.ProductName == "" {
			return nil, fmt.Errorf("inventory CSV row %d: store, machine_id and product_name are required", row.line)
		}
		records = append(records, rec)
	}

	return records, nil
}

// LoadSales parses a sales export. A blank product is kept as a nil name.
func (l *Loader) LoadSales(r io.Reader) ([]domain.SaleEvent, error) {
	rows, err := readTable(r, "sales", salesHeader)
	if err != nil {
		return nil, err
	}

	events := make([]domain.SaleEvent, 0, len(rows))
	for _, row := range rows {
		at, err := l.parseTime(row.get("sold_at"))
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", row.line, err)
		}
		ev := domain.SaleEvent{
			Store:     row.get("store"),
			MachineID: row.get("machine_id"),
			SoldAt:    at,
		}
		if name := row.get("product_name"); name != "" {
			ev.ProductName = &name
		}
		if ev.Store == "" {
			return nil, fmt.Errorf("sales CSV row %d: store is required", row.line)
		}
		events = append(events, ev)
	}

	return events, nil
}

// LoadWarehouse parses a warehouse stock export
func (l *Loader) LoadWarehouse(r io.Reader) ([]domain.WarehouseRecord, error) {
	rows, err := readTable(r, "warehouse", warehouseHeader)
	if err != nil {
		return nil, err
	}

	records := make([]domain.WarehouseRecord, 0, len(rows))
	for _, row := range rows {
		qty, err := parseQuantity(row.get("quantity"))
		if err != nil {
			return nil, fmt.Errorf("warehouse CSV row %d: %w", row.line, err)
		}
		rec := domain.WarehouseRecord{
			WarehouseID: row.get("warehouse_id"),
			ProductName: row.get("product_name"),
			Quantity:    qty,
		}
		if rec.WarehouseID == "" || rec.ProductName == "" {
			return nil, fmt.Errorf("warehouse CSV row %d: warehouse_id and product_name are required", row.line)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (l *Loader) parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, l.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

type tableRow struct {
	line   int
	fields []string
	index  map[string]int
}

func (r tableRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func readTable(r io.Reader, kind string, required []string) ([]tableRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s CSV must have a header", kind)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s CSV header mismatch. Expected columns: %v, Got: %v", kind, required, records[0])
		}
	}

	rows := make([]tableRow, 0, len(records)-1)
	for i, fields := range records[1:] {
		if isBlank(fields) {
			continue
		}
		rows = append(rows, tableRow{line: i + 2, fields: fields, index: index})
	}
	return rows, nil
}

func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if qty, err := strconv.Atoi(raw); err == nil {
		return qty, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return int(f), nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
