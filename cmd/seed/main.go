package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/ingest"
	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "bucket", Usage: "Read snapshot files from this bucket instead of --dir", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "prefix", Usage: "Object prefix holding the snapshot files"},
		&cli.StringFlag{Name: "storage-endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	cfg := config.Load()
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ingestFlags := append([]cli.Flag{
		newDBURLFlag(),
		&cli.StringFlag{
			Name:    "dir",
			Usage:   "Directory containing inventory.csv, sales.csv and warehouse.csv",
			Value:   "./data/snapshots",
			EnvVars: []string{"SNAPSHOT_DIR"},
		},
		&cli.StringFlag{
			Name:  "timezone",
			Usage: "Location for timestamps without an offset",
			Value: "Asia/Taipei",
		},
	}, storageFlags()...)

	app := &cli.App{
		Name:  "seed",
		Usage: "Load vending machine snapshots into the database",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the replenishment tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:   "ingest",
				Usage:  "Import a snapshot from a directory or a bucket prefix",
				Flags:  ingestFlags,
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					return runIngest(c, cfg)
				},
			},
			{
				Name:  "publish",
				Usage: "Upload the snapshot files of --dir to --bucket under --prefix",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "dir", Value: "./data/snapshots", EnvVars: []string{"SNAPSHOT_DIR"}},
				}, storageFlags()...),
				Action: runPublish,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(c.Context, db); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema is up to date")
	return nil
}

func runIngest(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	src, err := sourceFrom(c)
	if err != nil {
		return err
	}

	importer := ingest.NewImporter(ingest.NewLoader(loc), postgres.NewIngestRepository(postgres.Wrap(sqlx.NewDb(db, "pgx"))), logger.Log)

	warehouseCache, err := cache.NewWarehouseStockCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, cached warehouse stock will expire on its own")
	} else {
		importer.OnComplete = warehouseCache.InvalidateAll
	}

	run, err := importer.Import(c.Context, src)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("ingest run %d completed: %d rows from %s\n", run.ID, run.TotalRows, src)
	return nil
}

func runPublish(c *cli.Context) error {
	client, err := storageFrom(c)
	if err != nil {
		return err
	}

	dir := c.String("dir")
	uploaded := 0
	for _, name := range []string{ingest.InventoryFile, ingest.SalesFile, ingest.WarehouseFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		key := path.Join(c.String("prefix"), name)
		if err := client.UploadObject(c.Context, key, data); err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Int("bytes", len(data)).Msg("uploaded snapshot file")
		uploaded++
	}

	if uploaded == 0 {
		return fmt.Errorf("no snapshot files found in %s", dir)
	}
	return nil
}

func sourceFrom(c *cli.Context) (ingest.Source, error) {
	if c.String("bucket") == "" {
		return ingest.DirSource(c.String("dir")), nil
	}
	client, err := storageFrom(c)
	if err != nil {
		return nil, err
	}
	return ingest.BucketSource(client, c.String("prefix")), nil
}

func storageFrom(c *cli.Context) (*storage.MinioClient, error) {
	return storage.NewMinioClient(config.StorageConfig{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
}
