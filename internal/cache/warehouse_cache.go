package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	warehouseStockKeyPrefix = "warehouse_stock"
	warehouseScanBatchSize  = 100

	defaultWarehouseTTL = 5 * time.Minute
)

// WarehouseStockCache stores aggregated product -> quantity per warehouse selection
type WarehouseStockCache interface {
	GetStock(ctx context.Context, warehouseIDs []string) (map[string]int, bool, error)
	SetStock(ctx context.Context, warehouseIDs []string, stock map[string]int) error
	InvalidateAll(ctx context.Context) error
}

type redisWarehouseStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopWarehouseStockCache struct{}

func NewWarehouseStockCache(cfg config.CacheConfig) (WarehouseStockCache, error) {
	if !cfg.Enabled {
		return &noopWarehouseStockCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisWarehouseStockCache(client, warehouseTTL(cfg)), nil
}

// warehouseTTL reads the configured lifetime of cached warehouse stock
func warehouseTTL(cfg config.CacheConfig) time.Duration {
	ttl := time.Duration(cfg.WarehouseTTLSeconds) * time.Second
	if ttl <= 0 {
		return defaultWarehouseTTL
	}
	return ttl
}

// NewRedisWarehouseStockCache wraps an existing client
func NewRedisWarehouseStockCache(client *redis.Client, ttl time.Duration) WarehouseStockCache {
	if ttl <= 0 {
		ttl = defaultWarehouseTTL
	}
	return &redisWarehouseStockCache{client: client, ttl: ttl}
}

func NewNoopWarehouseStockCache() WarehouseStockCache {
	return &noopWarehouseStockCache{}
}

func (c *redisWarehouseStockCache) GetStock(ctx context.Context, warehouseIDs []string) (map[string]int, bool, error) {
	key := buildWarehouseStockKey(warehouseIDs)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var stock map[string]int
	if err := json.Unmarshal(payload, &stock); err != nil {
		return nil, false, fmt.Errorf("decode warehouse stock cache: %w", err)
	}

	return stock, true, nil
}

func (c *redisWarehouseStockCache) SetStock(ctx context.Context, warehouseIDs []string, stock map[string]int) error {
	key := buildWarehouseStockKey(warehouseIDs)
	payload, err := json.Marshal(stock)
	if err != nil {
		return fmt.Errorf("encode warehouse stock cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisWarehouseStockCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, warehouseStockKeyPrefix, warehouseScanBatchSize)
}

func (n *noopWarehouseStockCache) GetStock(ctx context.Context, warehouseIDs []string) (map[string]int, bool, error) {
	return nil, false, nil
}

func (n *noopWarehouseStockCache) SetStock(ctx context.Context, warehouseIDs []string, stock map[string]int) error {
	return nil
}

func (n *noopWarehouseStockCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildWarehouseStockKey(warehouseIDs []string) string {
	return fmt.Sprintf("%s:%s", warehouseStockKeyPrefix, warehouseSelectionHash(warehouseIDs))
}

// warehouseSelectionHash is order-insensitive and ignores duplicates
func warehouseSelectionHash(warehouseIDs []string) string {
	seen := make(map[string]struct{}, len(warehouseIDs))
	ids := make([]string, 0, len(warehouseIDs))
	for _, id := range warehouseIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return "none"
	}

	sort.Strings(ids)
	sum := sha1.Sum([]byte(strings.Join(ids, "|")))
	return hex.EncodeToString(sum[:])
}
