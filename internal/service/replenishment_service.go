package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 4

type ReplenishmentService struct {
	inventory  repository.InventoryRepository
	sales      repository.SalesRepository
	warehouses repository.WarehouseRepository
	runs       repository.IngestRunRepository
	cache      cache.WarehouseStockCache
	engine     *replenishment.Engine

	batchConcurrency int
	now              func() time.Time
}

// Repositories groups the read models the service depends on.
// Runs is optional; without it the service never reports data updating.
type Repositories struct {
	Inventory  repository.InventoryRepository
	Sales      repository.SalesRepository
	Warehouses repository.WarehouseRepository
	Runs       repository.IngestRunRepository
}

func NewReplenishmentService(repos Repositories, cacheImpl cache.WarehouseStockCache, engine *replenishment.Engine, batchConcurrency int) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopWarehouseStockCache()
	}
	if engine == nil {
		engine = replenishment.NewEngine(replenishment.DefaultParams())
	}
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &ReplenishmentService{
		inventory:        repos.Inventory,
		sales:            repos.Sales,
		warehouses:       repos.Warehouses,
		runs:             repos.Runs,
		cache:            cacheImpl,
		engine:           engine,
		batchConcurrency: batchConcurrency,
		now:              time.Now,
	}
}

// ComputeSuggestion fetches the machine snapshot and runs the allocation engine on it.
func (s *ReplenishmentService) ComputeSuggestion(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error) {
	if err := s.ensureNotUpdating(ctx); err != nil {
		return nil, err
	}
	return s.compute(ctx, req)
}

// ComputeBatch computes suggestions for several machines and merges the
// positive adjustments into one shipment list.
func (s *ReplenishmentService) ComputeBatch(ctx context.Context, reqs []domain.AllocationRequest) (*domain.BatchResult, error) {
	if err := s.ensureNotUpdating(ctx); err != nil {
		return nil, err
	}

	suggestions := make([]domain.MachineSuggestion, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := s.compute(gctx, req)
			if err != nil {
				return fmt.Errorf("machine %s: %w", req.StoreKey, err)
			}
			suggestions[i] = domain.MachineSuggestion{
				Machine: req.StoreKey.String(),
				Result:  *result,
				Totals:  result.Totals(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shipment, total := BuildShipment(suggestions)
	return &domain.BatchResult{
		Suggestions:   suggestions,
		Shipment:      shipment,
		ShipmentTotal: total,
	}, nil
}

func (s *ReplenishmentService) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	warehouses, err := s.warehouses.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	if warehouses == nil {
		warehouses = make([]domain.Warehouse, 0)
	}
	return warehouses, nil
}

// InvalidateWarehouseCache drops every cached warehouse aggregate
func (s *ReplenishmentService) InvalidateWarehouseCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// BuildShipment sums positive adjustments per product, sorted by product name.
func BuildShipment(suggestions []domain.MachineSuggestion) ([]domain.ShipmentLine, int) {
	byProduct := make(map[string]int)
	for _, ms := range suggestions {
		for _, li := range ms.Result.LineItems {
			if adj := li.Adjustment(); adj > 0 {
				byProduct[li.ProductName] += adj
			}
		}
	}

	lines := make([]domain.ShipmentLine, 0, len(byProduct))
	total := 0
	for product, qty := range byProduct {
		lines = append(lines, domain.ShipmentLine{ProductName: product, Quantity: qty})
		total += qty
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductName < lines[j].ProductName })

	return lines, total
}

func (s *ReplenishmentService) compute(ctx context.Context, req domain.AllocationRequest) (*domain.AllocationResult, error) {
	if req.WarehouseAware && len(req.SelectedWarehouses) == 0 {
		return nil, domain.ErrNoWarehouseSelected
	}

	params := s.engine.Params()
	lookback := params.Lookback()
	now := s.now()

	var (
		current map[string]int
		events  []domain.SaleEvent
		stock   map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.inventory.GetCurrentInventory(gctx, req.StoreKey)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.sales.GetSaleEvents(gctx, domain.ScopeFor(req.StoreKey).Prefix, now.Add(-lookback))
		return err
	})
	if req.WarehouseAware {
		g.Go(func() error {
			var err error
			stock, err = s.warehouseStock(gctx, req.SelectedWarehouses)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := replenishment.Snapshot{
		CurrentInventory: current,
		Sales:            replenishment.EstimateDemand(events, domain.ScopeFor(req.StoreKey), lookback, now),
		WarehouseStock:   stock,
	}

	result, err := s.engine.Compute(req, snap)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("machine", req.StoreKey.String()).
		Str("strategy", req.Strategy.String()).
		Str("outcome", string(result.Outcome)).
		Int("suggested_total", result.TotalSuggested()).
		Msg("replenishment: suggestion computed")

	return &result, nil
}

func (s *ReplenishmentService) warehouseStock(ctx context.Context, warehouseIDs []string) (map[string]int, error) {
	if stock, ok, err := s.cache.GetStock(ctx, warehouseIDs); err == nil && ok {
		return stock, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get warehouse stock failed")
	}

	records, err := s.warehouses.GetWarehouseRecords(ctx, warehouseIDs)
	if err != nil {
		return nil, err
	}
	stock := replenishment.AggregateWarehouseStock(warehouseIDs, records)

	if err := s.cache.SetStock(ctx, warehouseIDs, stock); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache set warehouse stock failed")
	}

	return stock, nil
}

func (s *ReplenishmentService) ensureNotUpdating(ctx context.Context) error {
	if s.runs == nil {
		return nil
	}
	updating, err := s.runs.IsUpdating(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("replenishment: ingest run check failed")
		return nil
	}
	if updating {
		return domain.ErrDataUpdating
	}
	return nil
}
