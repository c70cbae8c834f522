package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/andresuchdata/restock/backend-go/internal/storage"
)

// Snapshot file names inside a directory or bucket prefix
const (
	InventoryFile = "inventory.csv"
	SalesFile     = "sales.csv"
	WarehouseFile = "warehouse.csv"
)

// Source opens snapshot files by name. A missing file reports ok=false.
type Source interface {
	Open(ctx context.Context, name string) (rc io.ReadCloser, ok bool, err error)
	String() string
}

type dirSource struct {
	dir string
}

// DirSource reads snapshot files from a local directory
func DirSource(dir string) Source {
	return dirSource{dir: dir}
}

func (s dirSource) Open(ctx context.Context, name string) (io.ReadCloser, bool, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, true, nil
}

func (s dirSource) String() string { return "dir:" + s.dir }

type bucketSource struct {
	store  storage.ObjectStorage
	prefix string
}

// BucketSource reads snapshot files from an object storage prefix
func BucketSource(store storage.ObjectStorage, prefix string) Source {
	return bucketSource{store: store, prefix: prefix}
}

func (s bucketSource) Open(ctx context.Context, name string) (io.ReadCloser, bool, error) {
	key := path.Join(s.prefix, name)

	objects, err := s.store.ListObjects(ctx, key)
	if err != nil {
		return nil, false, err
	}
	found := false
	for _, obj := range objects {
		if obj.Key == key {
			found = true
			break
		}
	}
	if !found {
		return nil, false, nil
	}

	rc, err := s.store.OpenObject(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return rc, true, nil
}

func (s bucketSource) String() string { return "bucket:" + s.prefix }
