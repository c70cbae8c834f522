package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/rs/zerolog"
)

// Snapshot is the parsed content of one set of export files.
// A file missing from the source leaves its slice nil.
type Snapshot struct {
	Inventory []domain.InventoryRecord
	Sales     []domain.SaleEvent
	Warehouse []domain.WarehouseRecord
}

// Rows counts every parsed row
func (s *Snapshot) Rows() int {
	return len(s.Inventory) + len(s.Sales) + len(s.Warehouse)
}

// LoadSnapshot reads whichever snapshot files the source holds.
func (l *Loader) LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := loadFile(ctx, src, InventoryFile, func(r io.Reader) (err error) {
		snap.Inventory, err = l.LoadInventory(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := loadFile(ctx, src, SalesFile, func(r io.Reader) (err error) {
		snap.Sales, err = l.LoadSales(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := loadFile(ctx, src, WarehouseFile, func(r io.Reader) (err error) {
		snap.Warehouse, err = l.LoadWarehouse(r)
		return err
	}); err != nil {
		return nil, err
	}

	if snap.Inventory == nil && snap.Sales == nil && snap.Warehouse == nil {
		return nil, fmt.Errorf("no snapshot files found in %s", src)
	}
	return snap, nil
}

// loadFile parses name, falling back to the .xlsx export of the same file.
func loadFile(ctx context.Context, src Source, name string, parse func(io.Reader) error) error {
	rc, ok, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		defer rc.Close()
		if err := parse(rc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	xlsxName := strings.TrimSuffix(name, ".csv") + ".xlsx"
	rc, ok, err = src.Open(ctx, xlsxName)
	if err != nil || !ok {
		return err
	}
	defer rc.Close()

	converted, err := xlsxToCSV(rc)
	if err != nil {
		return fmt.Errorf("%s: %w", xlsxName, err)
	}
	if err := parse(converted); err != nil {
		return fmt.Errorf("%s: %w", xlsxName, err)
	}
	return nil
}

// Writer persists a parsed snapshot and tracks the run
type Writer interface {
	StartRun(ctx context.Context, source string) (*domain.IngestRun, error)
	FinishRun(ctx context.Context, run *domain.IngestRun, runErr error) error
	ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) (int, error)
	InsertSaleEvents(ctx context.Context, events []domain.SaleEvent) (int, error)
	ReplaceWarehouseStock(ctx context.Context, records []domain.WarehouseRecord) (int, error)
}

// Importer loads snapshot files and writes them inside a tracked ingest run
type Importer struct {
	loader *Loader
	writer Writer
	log    zerolog.Logger

	// OnComplete runs after a successful import, e.g. to drop cached aggregates
	OnComplete func(ctx context.Context) error
}

func NewImporter(loader *Loader, writer Writer, log zerolog.Logger) *Importer {
	return &Importer{loader: loader, writer: writer, log: log.With().Str("component", "ingest").Logger()}
}

func (i *Importer) Import(ctx context.Context, src Source) (*domain.IngestRun, error) {
	snap, err := i.loader.LoadSnapshot(ctx, src)
	if err != nil {
		return nil, err
	}

	run, err := i.writer.StartRun(ctx, src.String())
	if err != nil {
		return nil, err
	}

	writeErr := i.write(ctx, run, snap)
	if err := i.writer.FinishRun(ctx, run, writeErr); err != nil {
		i.log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to record ingest run result")
	}
	if writeErr != nil {
		return run, writeErr
	}

	if i.OnComplete != nil {
		if err := i.OnComplete(ctx); err != nil {
			i.log.Warn().Err(err).Msg("post-import hook failed")
		}
	}

	i.log.Info().
		Int64("run_id", run.ID).
		Str("source", src.String()).
		Int("inventory_rows", len(snap.Inventory)).
		Int("sales_rows", len(snap.Sales)).
		Int("warehouse_rows", len(snap.Warehouse)).
		Msg("snapshot imported")

	return run, nil
}

func (i *Importer) write(ctx context.Context, run *domain.IngestRun, snap *Snapshot) error {
	if len(snap.Inventory) > 0 {
		n, err := i.writer.ReplaceInventory(ctx, snap.Inventory)
		if err != nil {
			return err
		}
		run.TotalRows += n
	}
	if len(snap.Sales) > 0 {
		n, err := i.writer.InsertSaleEvents(ctx, snap.Sales)
		if err != nil {
			return err
		}
		run.TotalRows += n
	}
	if len(snap.Warehouse) > 0 {
		n, err := i.writer.ReplaceWarehouseStock(ctx, snap.Warehouse)
		if err != nil {
			return err
		}
		run.TotalRows += n
	}
	return nil
}
