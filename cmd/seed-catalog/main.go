// Command seed-catalog loads a product catalog JSON file into PostgreSQL.
// It accepts plain or gzip-compressed input and is idempotent: existing
// products are updated in place.
package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/planetfashion/storefront/internal/catalog"
	"github.com/planetfashion/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file, optionally .gz")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	seed, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	// Decoding through the memory repository validates the file (duplicate
	// IDs, malformed fields) before any database work.
	repo, err := catalog.NewMemoryRepository(seed)
	if err != nil {
		return errors.Wrap(err, "parse catalog")
	}
	products, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list parsed catalog")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	store := postgres.NewCatalogRepository(pool)

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := store.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}
		slog.Info("upserted product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

// readCatalog reads the file, transparently decompressing .gz input.
func readCatalog(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".gz") {
		return data, nil
	}

	gz, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open gzip")
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
