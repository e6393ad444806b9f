// Command purchase-import loads purchases from JSON files into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-tracker/internal/catalog"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/repository"
	"github.com/xenking/promo-tracker/internal/stacking"
)

type options struct {
	files       []string
	databaseURL string
	catalogs    []string
	workers     int
	dryRun      bool
}

// Store is the part of the purchase repository the importer writes to.
type Store interface {
	Upsert(ctx context.Context, p *purchase.Purchase) error
}

func main() {
	var opts options
	flag.Func("file", "purchases JSON file, optionally .gz (repeatable)", func(s string) error {
		opts.files = append(opts.files, s)
		return nil
	})
	flag.Func("catalog", "promotion catalog used to compute missing combined breakdowns (repeatable)", func(s string) error {
		opts.catalogs = append(opts.catalogs, s)
		return nil
	})
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&opts.workers, "workers", 4, "concurrent upserts")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "validate without writing")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if len(opts.files) == 0 {
		slog.Error("at least one --file is required")
		os.Exit(2)
	}
	if opts.databaseURL == "" && !opts.dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("purchase import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("purchase import completed")
}

func run(ctx context.Context, opts options) error {
	var lookup Lookup
	if len(opts.catalogs) > 0 {
		cat, err := catalog.LoadFiles(ctx, opts.catalogs...)
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		lookup = cat.Get
		slog.Info("catalog loaded", slog.Int("promotions", cat.Len()))
	}

	purchases, err := load(ctx, opts.files, lookup)
	if err != nil {
		return err
	}
	slog.Info("purchases validated", slog.Int("count", len(purchases)))
	if opts.dryRun {
		return nil
	}

	pool, err := repository.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	n, err := write(ctx, repository.NewPurchaseRepository(pool), purchases, opts.workers)
	slog.Info("purchases written", slog.Int64("count", n))
	return err
}

// load reads and validates every file in order. Ids repeated across records
// keep their last occurrence so concurrent upserts never race on one row.
func load(ctx context.Context, files []string, lookup Lookup) ([]*purchase.Purchase, error) {
	engine := stacking.DefaultEngine()

	var out []*purchase.Purchase
	for _, path := range files {
		records, err := readRecords(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		for i, rec := range records {
			p, err := toPurchase(ctx, rec, lookup, engine)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: record %d", path, i)
			}
			out = append(out, p)
		}
		slog.Info("file read", slog.String("path", path), slog.Int("records", len(records)))
	}

	out, dropped := latestByID(out)
	if dropped > 0 {
		slog.Warn("duplicate purchase ids collapsed, last record wins", slog.Int("dropped", dropped))
	}
	return out, nil
}

// write upserts purchases with up to workers concurrent writes and returns the
// number written.
func write(ctx context.Context, store Store, purchases []*purchase.Purchase, workers int) (int64, error) {
	var written atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, p := range purchases {
		g.Go(func() error {
			if err := store.Upsert(ctx, p); err != nil {
				return errors.Wrapf(err, "upsert %s", p.ID)
			}
			written.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return written.Load(), err
}
