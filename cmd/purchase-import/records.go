package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// record is the file representation of a purchase.
type record struct {
	ID            string                    `json:"id"`
	Amount        decimal.Decimal           `json:"amount"`
	Date          calendar.Date             `json:"date"`
	StoreName     string                    `json:"storeName"`
	PaymentMethod string                    `json:"paymentMethod"`
	PromoID       string                    `json:"promoId"`
	PromoIDs      []string                  `json:"promoIds"`
	Breakdown     []promotion.DiscountEntry `json:"breakdown"`
	FinalAmount   *decimal.Decimal          `json:"finalAmount"`
	CreatedAt     *time.Time                `json:"createdAt"`
}

// Engine computes combined purchase breakdowns.
type Engine interface {
	Calculate(amount decimal.Decimal, promos []promotion.Definition) promotion.DiscountResult
}

// Lookup resolves promotion ids.
type Lookup func(ctx context.Context, id string) (promotion.Definition, error)

// readRecords decodes a JSON array of purchases from path, decompressing
// .gz files.
func readRecords(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return records, nil
}

// toPurchase validates rec and converts it. Combined purchases without a
// breakdown are computed with engine when lookup is set.
func toPurchase(ctx context.Context, rec record, lookup Lookup, engine Engine) (*purchase.Purchase, error) {
	if rec.ID == "" {
		return nil, errors.New("id is required")
	}
	if err := purchase.ValidateAmount(rec.Amount); err != nil {
		return nil, err
	}
	if rec.Date.IsZero() {
		return nil, errors.New("date is required")
	}

	p := &purchase.Purchase{
		ID:            rec.ID,
		Amount:        rec.Amount,
		Date:          rec.Date,
		StoreName:     rec.StoreName,
		PaymentMethod: rec.PaymentMethod,
		PromoID:       rec.PromoID,
		Breakdown:     rec.Breakdown,
	}
	if rec.CreatedAt != nil {
		p.CreatedAt = rec.CreatedAt.UTC()
	}

	ids := dedupe(rec.PromoIDs)
	switch {
	case len(ids) > 1:
		p.PromoIDs = ids
		p.PromoID = ""
	case len(ids) == 1 && p.PromoID == "":
		p.PromoID = ids[0]
	}
	if len(p.Promotions()) == 0 {
		return nil, errors.New("promotion id is required")
	}

	if !p.IsCombined() {
		p.Breakdown = nil
		p.FinalAmount = p.Amount
		return p, nil
	}
	if rec.FinalAmount != nil && len(rec.Breakdown) > 0 {
		p.FinalAmount = *rec.FinalAmount
		return p, nil
	}
	if lookup == nil {
		return nil, errors.New("combined purchase without breakdown needs --catalog")
	}

	defs := make([]promotion.Definition, 0, len(p.PromoIDs))
	for _, id := range p.PromoIDs {
		def, err := lookup(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "promotion %s", id)
		}
		defs = append(defs, def)
	}
	res := engine.Calculate(p.Amount, defs)
	p.Breakdown = res.Breakdown
	p.FinalAmount = res.FinalAmount
	return p, nil
}

func dedupe(ids []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
