package catalog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-tracker/internal/domain/promotion"
)

var hundred = decimal.NewFromInt(100)

// Decode reads a JSON array of definitions from r and validates each one.
func Decode(r io.Reader) ([]promotion.Definition, error) {
	var defs []promotion.Definition
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return nil, errors.Wrap(err, "decode definitions")
	}
	for _, def := range defs {
		if err := Validate(def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadFile reads the definitions stored in path. Files ending in .gz are
// decompressed.
func LoadFile(ctx context.Context, path string) ([]promotion.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	defs, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return defs, nil
}

// LoadFiles reads every path concurrently and builds a catalog holding the
// definitions in path order.
func LoadFiles(ctx context.Context, paths ...string) (*Catalog, error) {
	loaded := make([][]promotion.Definition, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			defs, err := LoadFile(ctx, path)
			if err != nil {
				return err
			}
			loaded[i] = defs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []promotion.Definition
	for _, defs := range loaded {
		all = append(all, defs...)
	}
	return New(all...), nil
}
