package scheduler

import (
	"context"
	"fmt"
	"time"
)

const defaultJobTimeout = 30 * time.Second

// CacheInvalidator drops cached aggregates
type CacheInvalidator interface {
	InvalidateWarehouseCache(ctx context.Context) error
}

// CacheInvalidationJob clears the warehouse stock cache so the next
// suggestion reads fresh scraper output.
type CacheInvalidationJob struct {
	target  CacheInvalidator
	timeout time.Duration
}

func NewCacheInvalidationJob(target CacheInvalidator) *CacheInvalidationJob {
	return &CacheInvalidationJob{target: target, timeout: defaultJobTimeout}
}

func (j *CacheInvalidationJob) Name() string { return "warehouse_cache_invalidation" }

func (j *CacheInvalidationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.target.InvalidateWarehouseCache(ctx); err != nil {
		return fmt.Errorf("invalidate warehouse cache: %w", err)
	}
	return nil
}

// StaleRunMarker fails ingest runs that never finished
type StaleRunMarker interface {
	FailStaleRuns(ctx context.Context, olderThan time.Duration) (int, error)
}

// StaleIngestRunJob keeps a crashed import from holding the service in
// "data updating" forever.
type StaleIngestRunJob struct {
	runs    StaleRunMarker
	maxAge  time.Duration
	timeout time.Duration
}

func NewStaleIngestRunJob(runs StaleRunMarker, maxAge time.Duration) *StaleIngestRunJob {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	return &StaleIngestRunJob{runs: runs, maxAge: maxAge, timeout: defaultJobTimeout}
}

func (j *StaleIngestRunJob) Name() string { return "stale_ingest_runs" }

func (j *StaleIngestRunJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.runs.FailStaleRuns(ctx, j.maxAge); err != nil {
		return fmt.Errorf("fail stale ingest runs: %w", err)
	}
	return nil
}
