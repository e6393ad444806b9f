package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

const (
	purchaseColumns = `id, amount, date, store_name, payment_method, promo_id, promo_ids,
		breakdown, final_amount, created_at`

	listPurchasesByPromoSQL = `SELECT ` + purchaseColumns + `
		FROM purchases WHERE promo_id = $1 OR $1 = ANY(promo_ids)
		ORDER BY date DESC, created_at DESC`

	getPurchaseSQL = `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`

	getPurchaseForUpdateSQL = getPurchaseSQL + ` FOR UPDATE`

	insertPurchaseSQL = `INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	upsertPurchaseSQL = insertPurchaseSQL + `
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			store_name = EXCLUDED.store_name,
			payment_method = EXCLUDED.payment_method,
			promo_id = EXCLUDED.promo_id,
			promo_ids = EXCLUDED.promo_ids,
			breakdown = EXCLUDED.breakdown,
			final_amount = EXCLUDED.final_amount`

	updatePurchaseSQL = `UPDATE purchases
		SET amount = $2, date = $3, store_name = $4, breakdown = $5, final_amount = $6
		WHERE id = $1`

	deletePurchaseSQL = `DELETE FROM purchases WHERE id = $1`
)

var _ purchase.Repository = (*PurchaseRepository)(nil)

// PurchaseRepository implements purchase.Repository backed by PostgreSQL.
type PurchaseRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPurchaseRepository returns a PurchaseRepository that uses the given pool.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool, now: time.Now}
}

// ListByPromotion returns the purchases counting toward promoID, most recent
// first.
func (r *PurchaseRepository) ListByPromotion(ctx context.Context, promoID string) ([]purchase.Purchase, error) {
	rows, err := r.pool.Query(ctx, listPurchasesByPromoSQL, promoID)
	if err != nil {
		return nil, errors.Wrapf(err, "list purchases of %q", promoID)
	}
	ps, err := pgx.CollectRows(rows, scanPurchase)
	if err != nil {
		return nil, errors.Wrapf(err, "list purchases of %q", promoID)
	}
	return ps, nil
}

// Get returns the purchase with the given id.
func (r *PurchaseRepository) Get(ctx context.Context, id string) (*purchase.Purchase, error) {
	return getPurchase(ctx, r.pool, getPurchaseSQL, id)
}

// Create stores a new purchase, assigning an id and creation time when
// missing.
func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	prepare(p, r.now)
	if err := r.exec(ctx, insertPurchaseSQL, p); err != nil {
		return errors.Wrapf(err, "create purchase %q", p.ID)
	}
	return nil
}

// Upsert stores p, replacing any purchase with the same id.
func (r *PurchaseRepository) Upsert(ctx context.Context, p *purchase.Purchase) error {
	prepare(p, r.now)
	if err := r.exec(ctx, upsertPurchaseSQL, p); err != nil {
		return errors.Wrapf(err, "upsert purchase %q", p.ID)
	}
	return nil
}

// Update applies edit to the stored purchase inside a transaction.
func (r *PurchaseRepository) Update(ctx context.Context, id string, edit purchase.Edit) (*purchase.Purchase, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := getPurchase(ctx, tx, getPurchaseForUpdateSQL, id)
	if err != nil {
		return nil, err
	}

	updated := edit.Apply(*current)
	breakdown, err := encodeBreakdown(updated.Breakdown)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, updatePurchaseSQL,
		id, updated.Amount, updated.Date.Time(), updated.StoreName, breakdown, updated.FinalAmount,
	); err != nil {
		return nil, errors.Wrapf(err, "update purchase %q", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit transaction")
	}
	return &updated, nil
}

// Delete removes the purchase with the given id.
func (r *PurchaseRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePurchaseSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete purchase %q", id)
	}
	if tag.RowsAffected() == 0 {
		return purchase.ErrNotFound
	}
	return nil
}

func (r *PurchaseRepository) exec(ctx context.Context, sql string, p *purchase.Purchase) error {
	breakdown, err := encodeBreakdown(p.Breakdown)
	if err != nil {
		return err
	}
	promoIDs := p.PromoIDs
	if promoIDs == nil {
		promoIDs = []string{}
	}
	_, err = r.pool.Exec(ctx, sql,
		p.ID, p.Amount, p.Date.Time(), p.StoreName, p.PaymentMethod, p.PromoID, promoIDs,
		breakdown, p.FinalAmount, p.CreatedAt,
	)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getPurchase(ctx context.Context, q querier, sql, id string) (*purchase.Purchase, error) {
	rows, err := q.Query(ctx, sql, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get purchase %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPurchase)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, purchase.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get purchase %q", id)
	}
	return &p, nil
}

func scanPurchase(row pgx.CollectableRow) (purchase.Purchase, error) {
	var (
		p         purchase.Purchase
		amount    decimal.Decimal
		final     decimal.Decimal
		date      time.Time
		breakdown []byte
	)
	if err := row.Scan(
		&p.ID, &amount, &date, &p.StoreName, &p.PaymentMethod, &p.PromoID, &p.PromoIDs,
		&breakdown, &final, &p.CreatedAt,
	); err != nil {
		return p, err
	}
	p.Amount = amount
	p.FinalAmount = final
	p.Date = calendar.FromTime(date)
	if len(p.PromoIDs) == 0 {
		p.PromoIDs = nil
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &p.Breakdown); err != nil {
			return p, errors.Wrap(err, "decode breakdown")
		}
		if len(p.Breakdown) == 0 {
			p.Breakdown = nil
		}
	}
	return p, nil
}

func encodeBreakdown(entries []promotion.DiscountEntry) ([]byte, error) {
	if entries == nil {
		entries = []promotion.DiscountEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, errors.Wrap(err, "encode breakdown")
	}
	return b, nil
}

// prepare fills the fields a stored purchase must carry.
func prepare(p *purchase.Purchase, now func() time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now().UTC()
	}
	if !p.IsCombined() && p.FinalAmount.IsZero() {
		p.FinalAmount = p.Amount
	}
}
