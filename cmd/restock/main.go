// Command restock prints replenishment suggestions straight from snapshot CSV files.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/ingest"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/repository/memory"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	app := &cli.App{
		Name:  "restock",
		Usage: "Compute replenishment suggestions from snapshot CSV files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Snapshot directory", Value: "./data/snapshots", EnvVars: []string{"SNAPSHOT_DIR"}},
			&cli.StringFlag{Name: "timezone", Value: "Asia/Taipei"},
			&cli.StringSliceFlag{Name: "machine", Aliases: []string{"m"}, Usage: "Store key like \"TW Lion HQ 1.0-551\"; repeatable, defaults to every machine"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: "stable", Usage: "stable, aggressive or exploratory"},
			&cli.IntFlag{Name: "capacity", Value: cfg.Engine.DefaultCapacity},
			&cli.IntFlag{Name: "reserve", Usage: "Slots to keep free"},
			&cli.BoolFlag{Name: "only-add", Usage: "Never suggest removing units"},
			&cli.StringSliceFlag{Name: "warehouse", Aliases: []string{"w"}, Usage: "Limit additions to the stock of these warehouses"},
		},
		Action: func(c *cli.Context) error {
			return run(c, cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("restock failed")
	}
}

func run(c *cli.Context, cfg *config.Config) error {
	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	snap, err := ingest.NewLoader(loc).LoadSnapshot(c.Context, ingest.DirSource(c.String("dir")))
	if err != nil {
		return err
	}
	store := memory.NewStore(snap.Inventory, snap.Sales, snap.Warehouse)

	strategy, ok := domain.ParseStrategy(c.String("strategy"))
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, c.String("strategy"))
	}

	keys, err := machineKeys(c.StringSlice("machine"), store)
	if err != nil {
		return err
	}

	warehouses := c.StringSlice("warehouse")
	reqs := make([]domain.AllocationRequest, 0, len(keys))
	for _, key := range keys {
		reqs = append(reqs, domain.AllocationRequest{
			StoreKey:           key,
			Strategy:           strategy,
			MachineCapacity:    c.Int("capacity"),
			ReserveSlots:       c.Int("reserve"),
			OnlyAdd:            c.Bool("only-add"),
			WarehouseAware:     len(warehouses) > 0,
			SelectedWarehouses: warehouses,
		})
	}

	svc := service.NewReplenishmentService(service.Repositories{
		Inventory:  store,
		Sales:      store,
		Warehouses: store,
	}, nil, replenishment.NewEngine(replenishment.ParamsFromConfig(cfg.Engine)), cfg.Engine.BatchConcurrency)

	batch, err := svc.ComputeBatch(c.Context, reqs)
	if err != nil {
		return err
	}

	return render(os.Stdout, batch)
}

func machineKeys(raw []string, store *memory.Store) ([]domain.StoreKey, error) {
	if len(raw) == 0 {
		keys := store.Machines()
		if len(keys) == 0 {
			return nil, fmt.Errorf("inventory snapshot has no machines")
		}
		return keys, nil
	}

	keys := make([]domain.StoreKey, 0, len(raw))
	for _, r := range raw {
		key, err := domain.ParseStoreKey(r)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func render(out io.Writer, batch *domain.BatchResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for _, ms := range batch.Suggestions {
		fmt.Fprintf(w, "== %s (%s)\n", ms.Machine, ms.Result.Outcome)
		if ms.Result.Warning != nil {
			fmt.Fprintf(w, "warning: %s\n", *ms.Result.Warning)
		}
		if ms.Result.Message != nil {
			fmt.Fprintf(w, "note: %s\n", *ms.Result.Message)
		}
		fmt.Fprintln(w, "PRODUCT\tSALES\tCURRENT\tSUGGESTED\tADJUST")
		for _, li := range ms.Result.LineItems {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%+d\n", li.ProductName, li.SalesCount30d, li.CurrentQty, li.SuggestedQty, li.Adjustment())
		}
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%+d\n\n", ms.Totals.SalesCount, ms.Totals.CurrentQty, ms.Totals.SuggestedQty, ms.Totals.Adjustment)
	}

	fmt.Fprintln(w, "== shipment")
	for _, line := range batch.Shipment {
		fmt.Fprintf(w, "%s\t%d\n", line.ProductName, line.Quantity)
	}
	fmt.Fprintf(w, "TOTAL\t%d\n", batch.ShipmentTotal)

	return w.Flush()
}
