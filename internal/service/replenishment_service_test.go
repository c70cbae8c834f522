package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeInventoryRepo struct {
	byMachine map[string]map[string]int
	err       error
}

func (f *fakeInventoryRepo) GetCurrentInventory(ctx context.Context, key domain.StoreKey) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byMachine[key.String()], nil
}

type fakeSalesRepo struct {
	events []domain.SaleEvent
}

func (f *fakeSalesRepo) GetSaleEvents(ctx context.Context, storePrefix string, since time.Time) ([]domain.SaleEvent, error) {
	return f.events, nil
}

type fakeWarehouseRepo struct {
	mu         sync.Mutex
	records    []domain.WarehouseRecord
	warehouses []domain.Warehouse
	calls      int
}

func (f *fakeWarehouseRepo) GetWarehouseRecords(ctx context.Context, ids []string) ([]domain.WarehouseRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.records, nil
}

func (f *fakeWarehouseRepo) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	return f.warehouses, nil
}

type fakeRunRepo struct {
	updating bool
	err      error
}

func (f *fakeRunRepo) IsUpdating(ctx context.Context) (bool, error) { return f.updating, f.err }

func (f *fakeRunRepo) GetLatestRun(ctx context.Context) (*domain.IngestRun, error) { return nil, nil }

func (f *fakeRunRepo) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

type fakeStockCache struct {
	mu          sync.Mutex
	stored      map[string]int
	hit         map[string]int
	invalidated bool
}

func (f *fakeStockCache) GetStock(ctx context.Context, ids []string) (map[string]int, bool, error) {
	if f.hit != nil {
		return f.hit, true, nil
	}
	return nil, false, nil
}

func (f *fakeStockCache) SetStock(ctx context.Context, ids []string, stock map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = stock
	return nil
}

func (f *fakeStockCache) InvalidateAll(ctx context.Context) error {
	f.invalidated = true
	return nil
}

func sale(store, product string, at time.Time) domain.SaleEvent {
	return domain.SaleEvent{Store: store, MachineID: "1", ProductName: &product, SoldAt: at}
}

func storeSales() []domain.SaleEvent {
	recent := testNow.Add(-24 * time.Hour)
	return []domain.SaleEvent{
		sale("Store", "A", recent),
		sale("Store", "A", recent),
		sale("Store", "A", recent),
		sale("Store", "B", recent),
		sale("Store", "A", testNow.AddDate(0, 0, -40)),
		sale("Other", "C", recent),
	}
}

type fixture struct {
	inventory  *fakeInventoryRepo
	sales      *fakeSalesRepo
	warehouses *fakeWarehouseRepo
	runs       *fakeRunRepo
	cache      *fakeStockCache
	svc        *ReplenishmentService
}

func newFixture() *fixture {
	f := &fixture{
		inventory:  &fakeInventoryRepo{byMachine: map[string]map[string]int{}},
		sales:      &fakeSalesRepo{events: storeSales()},
		warehouses: &fakeWarehouseRepo{},
		runs:       &fakeRunRepo{},
		cache:      &fakeStockCache{},
	}
	f.svc = NewReplenishmentService(Repositories{
		Inventory:  f.inventory,
		Sales:      f.sales,
		Warehouses: f.warehouses,
		Runs:       f.runs,
	}, f.cache, replenishment.NewEngine(replenishment.DefaultParams()), 2)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func request(t *testing.T, key string, capacity int) domain.AllocationRequest {
	t.Helper()
	sk, err := domain.ParseStoreKey(key)
	require.NoError(t, err)
	return domain.AllocationRequest{StoreKey: sk, Strategy: domain.StrategyStable, MachineCapacity: capacity}
}

func TestComputeSuggestion_UsesStoreSalesInWindow(t *testing.T) {
	f := newFixture()
	f.inventory.byMachine["Store-1"] = map[string]int{"A": 2}

	result, err := f.svc.ComputeSuggestion(context.Background(), request(t, "Store-1", 10))
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAllocated, result.Outcome)
	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "A", CurrentQty: 2, SuggestedQty: 8, SalesCount30d: 3},
		{ProductName: "B", CurrentQty: 0, SuggestedQty: 2, SalesCount30d: 1},
	}, result.LineItems)
	assert.Nil(t, result.Warning)
}

func TestComputeSuggestion_WarehouseAwareClampsAndCaches(t *testing.T) {
	f := newFixture()
	f.warehouses.records = []domain.WarehouseRecord{
		{WarehouseID: "WH-1", ProductName: "A", Quantity: 1},
		{WarehouseID: "WH-1", ProductName: "B", Quantity: 10},
		{WarehouseID: "WH-2", ProductName: "C", Quantity: 5},
	}

	req := request(t, "Store-1", 10)
	req.WarehouseAware = true
	req.SelectedWarehouses = []string{"WH-1"}

	result, err := f.svc.ComputeSuggestion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "B", CurrentQty: 0, SuggestedQty: 2, SalesCount30d: 1},
		{ProductName: "A", CurrentQty: 0, SuggestedQty: 1, SalesCount30d: 3},
	}, result.LineItems)
	assert.Equal(t, map[string]int{"A": 1, "B": 10}, f.cache.stored)
}

func TestComputeSuggestion_CacheHitSkipsRepository(t *testing.T) {
	f := newFixture()
	f.cache.hit = map[string]int{"B": 10}

	req := request(t, "Store-1", 4)
	req.WarehouseAware = true
	req.SelectedWarehouses = []string{"WH-1"}

	result, err := f.svc.ComputeSuggestion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, f.warehouses.calls)
	require.Len(t, result.LineItems, 1)
	assert.Equal(t, "B", result.LineItems[0].ProductName)
	assert.Equal(t, 1, result.LineItems[0].SuggestedQty)
}

func TestComputeSuggestion_NoSupply(t *testing.T) {
	f := newFixture()
	f.inventory.byMachine["Store-1"] = map[string]int{"A": 2}
	f.warehouses.records = []domain.WarehouseRecord{{WarehouseID: "WH-1", ProductName: "A", Quantity: 3}}

	req := request(t, "Store-1", 10)
	req.WarehouseAware = true
	req.SelectedWarehouses = []string{"WH-2"}

	result, err := f.svc.ComputeSuggestion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNoSupply, result.Outcome)
	require.NotNil(t, result.Message)
	assert.Equal(t, []domain.AllocationLineItem{
		{ProductName: "A", CurrentQty: 2, SuggestedQty: 2, SalesCount30d: 3},
	}, result.LineItems)
}

func TestComputeSuggestion_Errors(t *testing.T) {
	t.Run("no warehouse selected", func(t *testing.T) {
		f := newFixture()
		req := request(t, "Store-1", 10)
		req.WarehouseAware = true

		_, err := f.svc.ComputeSuggestion(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrNoWarehouseSelected)
	})

	t.Run("data updating", func(t *testing.T) {
		f := newFixture()
		f.runs.updating = true

		_, err := f.svc.ComputeSuggestion(context.Background(), request(t, "Store-1", 10))
		assert.ErrorIs(t, err, domain.ErrDataUpdating)
	})

	t.Run("run check failure is not fatal", func(t *testing.T) {
		f := newFixture()
		f.runs.err = errors.New("db down")

		_, err := f.svc.ComputeSuggestion(context.Background(), request(t, "Store-1", 10))
		assert.NoError(t, err)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture()
		boom := errors.New("connection refused")
		f.inventory.err = boom

		_, err := f.svc.ComputeSuggestion(context.Background(), request(t, "Store-1", 10))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		f := newFixture()
		req := request(t, "Store-1", 10)
		req.Strategy = domain.Strategy(42)

		_, err := f.svc.ComputeSuggestion(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
	})
}

func TestComputeBatch_MergesShipment(t *testing.T) {
	f := newFixture()
	f.inventory.byMachine["Store-1"] = map[string]int{"A": 2}
	f.inventory.byMachine["Store-2"] = map[string]int{"A": 9, "B": 1}

	batch, err := f.svc.ComputeBatch(context.Background(), []domain.AllocationRequest{
		request(t, "Store-1", 10),
		request(t, "Store-2", 10),
	})
	require.NoError(t, err)

	require.Len(t, batch.Suggestions, 2)
	assert.Equal(t, "Store-1", batch.Suggestions[0].Machine)
	assert.Equal(t, domain.OutcomeAllocated, batch.Suggestions[0].Result.Outcome)
	assert.Equal(t, domain.Totals{SalesCount: 4, CurrentQty: 2, SuggestedQty: 10, Adjustment: 8}, batch.Suggestions[0].Totals)
	assert.Equal(t, "Store-2", batch.Suggestions[1].Machine)
	assert.Equal(t, domain.OutcomeAlreadyFull, batch.Suggestions[1].Result.Outcome)

	assert.Equal(t, []domain.ShipmentLine{
		{ProductName: "A", Quantity: 6},
		{ProductName: "B", Quantity: 2},
	}, batch.Shipment)
	assert.Equal(t, 8, batch.ShipmentTotal)
}

func TestComputeBatch_ErrorNamesMachine(t *testing.T) {
	f := newFixture()
	bad := request(t, "Store-2", 10)
	bad.WarehouseAware = true

	_, err := f.svc.ComputeBatch(context.Background(), []domain.AllocationRequest{request(t, "Store-1", 10), bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoWarehouseSelected)
	assert.Contains(t, err.Error(), "Store-2")
}

func TestBuildShipment_IgnoresRemovals(t *testing.T) {
	lines, total := BuildShipment([]domain.MachineSuggestion{
		{Result: domain.AllocationResult{LineItems: []domain.AllocationLineItem{
			{ProductName: "Mochi", CurrentQty: 5, SuggestedQty: 2},
			{ProductName: "Cola", CurrentQty: 0, SuggestedQty: 3},
		}}},
		{Result: domain.AllocationResult{LineItems: []domain.AllocationLineItem{
			{ProductName: "Cola", CurrentQty: 1, SuggestedQty: 2},
		}}},
	})

	assert.Equal(t, []domain.ShipmentLine{{ProductName: "Cola", Quantity: 4}}, lines)
	assert.Equal(t, 4, total)
}

func TestListWarehouses_NeverNil(t *testing.T) {
	f := newFixture()
	warehouses, err := f.svc.ListWarehouses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, warehouses)
	assert.Empty(t, warehouses)
}

func TestInvalidateWarehouseCache(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.InvalidateWarehouseCache(context.Background()))
	assert.True(t, f.cache.invalidated)
}
