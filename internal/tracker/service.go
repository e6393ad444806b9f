// Package tracker serves promotion views, discount calculations and purchase
// bookkeeping on top of the catalog and the purchase store.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/catalog"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/pipeline"
	"github.com/xenking/promo-tracker/internal/promoview"
	"github.com/xenking/promo-tracker/internal/stacking"
)

const instrumentationName = "github.com/xenking/promo-tracker/internal/tracker"

// DefaultCacheSize bounds the pipeline cache when no cache is configured.
const DefaultCacheSize = 1024

// ErrNoPromotions is returned when an operation needs at least one promotion
// id and got none.
var ErrNoPromotions = errors.New("at least one promotion is required")

// UnknownPromotionError indicates a referenced promotion is not in the
// catalog.
type UnknownPromotionError struct {
	ID string
}

func (e *UnknownPromotionError) Error() string {
	return fmt.Sprintf("promotion %s not found", e.ID)
}

// Unwrap lets errors.Is match catalog.ErrNotFound.
func (e *UnknownPromotionError) Unwrap() error { return catalog.ErrNotFound }

// Catalog provides promotion definitions.
type Catalog interface {
	List(ctx context.Context) ([]promotion.Definition, error)
	Get(ctx context.Context, id string) (promotion.Definition, error)
}

// Service combines the catalog, the purchase store, a reference clock, the
// memoized pipeline and the stacking engine.
type Service struct {
	catalog   Catalog
	purchases purchase.Repository
	now       func() time.Time
	cache     *pipeline.Cache
	engine    *stacking.Engine

	tracer trace.Tracer
	runs   metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of the reference date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache sets the pipeline cache.
func WithCache(c *pipeline.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEngine sets the discount engine.
func WithEngine(e *stacking.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider used for pipeline run counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.runs = newRunCounter(mp) }
}

// NewService creates a Service.
func NewService(c Catalog, purchases purchase.Repository, opts ...Option) *Service {
	s := &Service{
		catalog:   c,
		purchases: purchases,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = pipeline.NewCache(pipeline.Default(), DefaultCacheSize)
	}
	if s.engine == nil {
		s.engine = stacking.DefaultEngine()
	}
	if s.runs == nil {
		s.runs = newRunCounter(metricnoop.NewMeterProvider())
	}
	return s
}

func newRunCounter(mp metric.MeterProvider) metric.Int64Counter {
	counter, err := mp.Meter(instrumentationName).Int64Counter(
		"promo.pipeline.runs",
		metric.WithDescription("Promotion pipeline evaluations by cache outcome."),
	)
	if err != nil {
		counter, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Int64Counter("promo.pipeline.runs")
	}
	return counter
}

// Today returns the current reference date.
func (s *Service) Today() calendar.Date {
	return calendar.FromTime(s.now())
}

// Promotions returns the view of every catalog promotion matching filter, in
// catalog order.
func (s *Service) Promotions(ctx context.Context, filter Filter) ([]promoview.Model, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Promotions",
		trace.WithAttributes(attribute.String("filter", string(filter))))
	defer span.End()

	defs, err := s.catalog.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list promotions")
	}

	today := s.Today()
	out := make([]promoview.Model, 0, len(defs))
	for _, def := range defs {
		m, err := s.model(ctx, def, today)
		if err != nil {
			return nil, err
		}
		if filter.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Promotion returns the view of a single promotion.
func (s *Service) Promotion(ctx context.Context, id string) (promoview.Model, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Promotion",
		trace.WithAttributes(attribute.String("promo.id", id)))
	defer span.End()

	def, err := s.definition(ctx, id)
	if err != nil {
		return promoview.Model{}, err
	}
	return s.model(ctx, def, s.Today())
}

// ListPurchases returns the purchases counting toward a promotion, most
// recent first.
func (s *Service) ListPurchases(ctx context.Context, promoID string) ([]purchase.Purchase, error) {
	if _, err := s.definition(ctx, promoID); err != nil {
		return nil, err
	}
	ps, err := s.purchases.ListByPromotion(ctx, promoID)
	if err != nil {
		return nil, errors.Wrapf(err, "list purchases of %s", promoID)
	}
	return ps, nil
}

// Calculate computes the discount of applying the given promotions to amount.
// The promotions must form a valid combination.
func (s *Service) Calculate(ctx context.Context, amount decimal.Decimal, ids []string) (promotion.DiscountResult, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Calculate",
		trace.WithAttributes(attribute.StringSlice("promo.ids", ids)))
	defer span.End()

	if err := purchase.ValidateAmount(amount); err != nil {
		return promotion.DiscountResult{}, err
	}
	defs, err := s.combination(ctx, ids)
	if err != nil {
		return promotion.DiscountResult{}, err
	}
	return s.engine.Calculate(amount, defs), nil
}

// Select applies a click on the promotion clicked to the current selection.
// The result holds the next selection and whether the previous one was
// discarded because clicked could not join it.
func (s *Service) Select(ctx context.Context, current []string, clicked string) (Selection, error) {
	defs, err := s.resolve(ctx, current)
	if err != nil {
		return Selection{}, err
	}
	target, err := s.definition(ctx, clicked)
	if err != nil {
		return Selection{}, err
	}

	sel := stacking.NewSelection(defs...)
	replaced := sel.Toggle(target)
	if replaced {
		zctx.From(ctx).Info("Selection replaced",
			zap.Strings("previous", current),
			zap.String("clicked", clicked),
		)
	}
	return Selection{IDs: sel.IDs(), Replaced: replaced}, nil
}

// Selection is the outcome of Select.
type Selection struct {
	IDs      []string
	Replaced bool
}

func (s *Service) model(ctx context.Context, def promotion.Definition, today calendar.Date) (promoview.Model, error) {
	ps, err := s.purchases.ListByPromotion(ctx, def.ID)
	if err != nil {
		return promoview.Model{}, errors.Wrapf(err, "list purchases of %s", def.ID)
	}

	state, hit := s.cache.Run(pipeline.Input{Definition: def, Today: today, Purchases: ps})
	s.runs.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache.hit", hit)))
	zctx.From(ctx).Debug("Pipeline evaluated",
		zap.String("promo_id", def.ID),
		zap.Stringer("today", today),
		zap.Bool("cache_hit", hit),
	)
	return promoview.New(state), nil
}

func (s *Service) definition(ctx context.Context, id string) (promotion.Definition, error) {
	def, err := s.catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return promotion.Definition{}, &UnknownPromotionError{ID: id}
		}
		return promotion.Definition{}, errors.Wrapf(err, "get promotion %s", id)
	}
	return def, nil
}

// resolve looks up ids in order, dropping duplicates.
func (s *Service) resolve(ctx context.Context, ids []string) ([]promotion.Definition, error) {
	defs := make([]promotion.Definition, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		def, err := s.definition(ctx, id)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// combination resolves ids and checks they may be applied together.
func (s *Service) combination(ctx context.Context, ids []string) ([]promotion.Definition, error) {
	if len(ids) == 0 {
		return nil, ErrNoPromotions
	}
	defs, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	if !stacking.ValidCombination(defs) {
		zctx.From(ctx).Warn("Rejected promotion combination", zap.Strings("promo_ids", ids))
		return nil, errors.Wrapf(stacking.ErrInvalidCombination, "promotions %v", ids)
	}
	return defs, nil
}

func promoIDs(defs []promotion.Definition) []string {
	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}
	return ids
}
