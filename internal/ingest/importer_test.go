package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	inventoryCSV = "store,machine_id,product_name,quantity,process_time\nS,1,Mochi,4,2026-03-01 10:00:00\n"
	salesCSV     = "store,machine_id,product_name,sold_at\nS,1,Mochi,2026-03-01 08:00:00\nS,1,Cola,2026-03-01 09:00:00\n"
)

type fakeWriter struct {
	runs      []*domain.IngestRun
	finished  []error
	inventory []domain.InventoryRecord
	sales     []domain.SaleEvent
	warehouse []domain.WarehouseRecord
	salesErr  error
}

func (f *fakeWriter) StartRun(ctx context.Context, source string) (*domain.IngestRun, error) {
	run := &domain.IngestRun{ID: int64(len(f.runs) + 1), Source: source, Status: domain.IngestStatusRunning}
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeWriter) FinishRun(ctx context.Context, run *domain.IngestRun, runErr error) error {
	f.finished = append(f.finished, runErr)
	return nil
}

func (f *fakeWriter) ReplaceInventory(ctx context.Context, records []domain.InventoryRecord) (int, error) {
	f.inventory = records
	return len(records), nil
}

func (f *fakeWriter) InsertSaleEvents(ctx context.Context, events []domain.SaleEvent) (int, error) {
	if f.salesErr != nil {
		return 0, f.salesErr
	}
	f.sales = events
	return len(events), nil
}

func (f *fakeWriter) ReplaceWarehouseStock(ctx context.Context, records []domain.WarehouseRecord) (int, error) {
	f.warehouse = records
	return len(records), nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestImporter_ImportsAvailableFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{InventoryFile: inventoryCSV, SalesFile: salesCSV})
	writer := &fakeWriter{}
	importer := NewImporter(NewLoader(time.UTC), writer, zerolog.Nop())

	hooked := false
	importer.OnComplete = func(ctx context.Context) error {
		hooked = true
		return nil
	}

	run, err := importer.Import(context.Background(), DirSource(dir))
	require.NoError(t, err)

	assert.Equal(t, 3, run.TotalRows)
	assert.Len(t, writer.inventory, 1)
	assert.Len(t, writer.sales, 2)
	assert.Nil(t, writer.warehouse)
	assert.Equal(t, []error{nil}, writer.finished)
	assert.True(t, hooked)
}

func TestImporter_RecordsFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{SalesFile: salesCSV})
	boom := errors.New("disk full")
	writer := &fakeWriter{salesErr: boom}
	importer := NewImporter(NewLoader(time.UTC), writer, zerolog.Nop())
	importer.OnComplete = func(ctx context.Context) error {
		t.Fatal("hook must not run after a failed import")
		return nil
	}

	_, err := importer.Import(context.Background(), DirSource(dir))
	assert.ErrorIs(t, err, boom)
	require.Len(t, writer.finished, 1)
	assert.ErrorIs(t, writer.finished[0], boom)
}

func TestImporter_ParseErrorStartsNoRun(t *testing.T) {
	dir := writeFiles(t, map[string]string{WarehouseFile: "warehouse_id,product_name,quantity\nWH-1,Mochi,lots\n"})
	writer := &fakeWriter{}

	_, err := NewImporter(NewLoader(time.UTC), writer, zerolog.Nop()).Import(context.Background(), DirSource(dir))
	assert.ErrorContains(t, err, WarehouseFile)
	assert.Empty(t, writer.runs)
}

func TestLoadSnapshot_EmptySource(t *testing.T) {
	_, err := NewLoader(nil).LoadSnapshot(context.Background(), DirSource(t.TempDir()))
	assert.ErrorContains(t, err, "no snapshot files")
}

type fakeObjectStorage struct {
	objects map[string]string
}

func (f *fakeObjectStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (f *fakeObjectStorage) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader([]byte(body))), nil
}

func (f *fakeObjectStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return errors.New("not implemented")
}

func (f *fakeObjectStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	f.objects[key] = string(data)
	return nil
}

func TestBucketSource_LoadSnapshot(t *testing.T) {
	store := &fakeObjectStorage{objects: map[string]string{
		"2026-03-01/inventory.csv":     inventoryCSV,
		"2026-03-01/inventory.csv.bak": "garbage",
		"2026-02-28/sales.csv":         salesCSV,
	}}

	snap, err := NewLoader(time.UTC).LoadSnapshot(context.Background(), BucketSource(store, "2026-03-01"))
	require.NoError(t, err)

	assert.Len(t, snap.Inventory, 1)
	assert.Nil(t, snap.Sales)
	assert.Equal(t, 1, snap.Rows())
}
