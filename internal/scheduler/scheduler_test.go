package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) InvalidateWarehouseCache(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakeStaleRuns struct {
	maxAge time.Duration
}

func (f *fakeStaleRuns) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	f.maxAge = olderThan
	return 1, nil
}

func TestScheduler_AddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewCacheInvalidationJob(&fakeInvalidator{})

	assert.NoError(t, s.AddJob("0 10 * * * *", job))
	assert.NoError(t, s.AddJob("@every 1h", job))
	assert.Error(t, s.AddJob("not a schedule", job))
}

func TestScheduler_RunNow(t *testing.T) {
	target := &fakeInvalidator{}
	s := New(zerolog.Nop())

	require.NoError(t, s.RunNow(NewCacheInvalidationJob(target)))
	assert.Equal(t, 1, target.calls)
}

func TestCacheInvalidationJob_WrapsError(t *testing.T) {
	boom := errors.New("redis down")
	job := NewCacheInvalidationJob(&fakeInvalidator{err: boom})

	err := job.Run()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "warehouse_cache_invalidation", job.Name())
}

func TestStaleIngestRunJob_DefaultAge(t *testing.T) {
	runs := &fakeStaleRuns{}
	require.NoError(t, NewStaleIngestRunJob(runs, 0).Run())
	assert.Equal(t, 30*time.Minute, runs.maxAge)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Stop()
}
