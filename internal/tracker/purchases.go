package tracker

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// RecordRequest holds the input for recording a purchase. A zero Date means
// today. Two or more distinct PromoIDs record a combined purchase.
type RecordRequest struct {
	Amount        decimal.Decimal
	Date          calendar.Date
	StoreName     string
	PaymentMethod string
	PromoIDs      []string
}

// EditRequest replaces the mutable fields of a purchase. A zero Date keeps
// the stored date.
type EditRequest struct {
	Amount    decimal.Decimal
	Date      calendar.Date
	StoreName string
}

// RecordPurchase validates and stores a new purchase. Combined purchases carry
// the breakdown and final amount computed by the engine.
func (s *Service) RecordPurchase(ctx context.Context, req RecordRequest) (*purchase.Purchase, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.RecordPurchase",
		trace.WithAttributes(attribute.StringSlice("promo.ids", req.PromoIDs)))
	defer span.End()

	if err := purchase.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	defs, err := s.combination(ctx, req.PromoIDs)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.Today()
	}
	p := &purchase.Purchase{
		ID:            uuid.NewString(),
		Amount:        req.Amount,
		Date:          date,
		StoreName:     req.StoreName,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     s.now().UTC(),
	}
	if len(defs) == 1 {
		p.PromoID = defs[0].ID
		p.FinalAmount = req.Amount
	} else {
		res := s.engine.Calculate(req.Amount, defs)
		p.PromoIDs = promoIDs(defs)
		p.Breakdown = res.Breakdown
		p.FinalAmount = res.FinalAmount
	}

	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create purchase")
	}

	zctx.From(ctx).Info("Purchase recorded",
		zap.String("purchase_id", p.ID),
		zap.Strings("promo_ids", p.Promotions()),
		zap.Stringer("amount", p.Amount),
	)
	return p, nil
}

// EditPurchase updates a stored purchase. The breakdown of a combined
// purchase is recomputed against the current catalog.
func (s *Service) EditPurchase(ctx context.Context, id string, req EditRequest) (*purchase.Purchase, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.EditPurchase",
		trace.WithAttributes(attribute.String("purchase.id", id)))
	defer span.End()

	if err := purchase.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	current, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get purchase %s", id)
	}

	edit := purchase.Edit{
		Amount:    req.Amount,
		Date:      req.Date,
		StoreName: req.StoreName,
	}
	if edit.Date.IsZero() {
		edit.Date = current.Date
	}
	if current.IsCombined() {
		defs, err := s.resolve(ctx, current.PromoIDs)
		if err != nil {
			return nil, err
		}
		res := s.engine.Calculate(req.Amount, defs)
		edit.Breakdown = res.Breakdown
		edit.FinalAmount = &res.FinalAmount
	}

	updated, err := s.purchases.Update(ctx, id, edit)
	if err != nil {
		return nil, errors.Wrapf(err, "update purchase %s", id)
	}
	return updated, nil
}

// DeletePurchase removes a stored purchase.
func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	if err := s.purchases.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete purchase %s", id)
	}
	zctx.From(ctx).Info("Purchase deleted", zap.String("purchase_id", id))
	return nil
}
