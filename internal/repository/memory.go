package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

var _ purchase.Repository = (*MemoryPurchaseRepository)(nil)

// MemoryPurchaseRepository is a purchase.Repository kept in process memory.
// It is safe for concurrent use.
type MemoryPurchaseRepository struct {
	now func() time.Time

	mu        sync.RWMutex
	purchases map[string]purchase.Purchase
}

// NewMemoryPurchaseRepository returns an empty in-memory store.
func NewMemoryPurchaseRepository() *MemoryPurchaseRepository {
	return &MemoryPurchaseRepository{
		now:       time.Now,
		purchases: make(map[string]purchase.Purchase),
	}
}

// ListByPromotion returns the purchases counting toward promoID, most recent
// first.
func (r *MemoryPurchaseRepository) ListByPromotion(_ context.Context, promoID string) ([]purchase.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []purchase.Purchase{}
	for _, p := range r.purchases {
		if p.AppliesTo(promoID) {
			out = append(out, clonePurchase(p))
		}
	}
	purchase.SortRecentFirst(out)
	return out, nil
}

// Get returns the purchase with the given id.
func (r *MemoryPurchaseRepository) Get(_ context.Context, id string) (*purchase.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, purchase.ErrNotFound
	}
	p = clonePurchase(p)
	return &p, nil
}

// Create stores a new purchase, assigning an id and creation time when
// missing.
func (r *MemoryPurchaseRepository) Create(_ context.Context, p *purchase.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prepare(p, r.now)
	if _, ok := r.purchases[p.ID]; ok {
		return errors.Errorf("purchase %q already exists", p.ID)
	}
	r.purchases[p.ID] = clonePurchase(*p)
	return nil
}

// Update applies edit to the stored purchase.
func (r *MemoryPurchaseRepository) Update(_ context.Context, id string, edit purchase.Edit) (*purchase.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.purchases[id]
	if !ok {
		return nil, purchase.ErrNotFound
	}
	updated := edit.Apply(clonePurchase(current))
	r.purchases[id] = updated
	out := clonePurchase(updated)
	return &out, nil
}

// Delete removes the purchase with the given id.
func (r *MemoryPurchaseRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.purchases[id]; !ok {
		return purchase.ErrNotFound
	}
	delete(r.purchases, id)
	return nil
}

func clonePurchase(p purchase.Purchase) purchase.Purchase {
	p.PromoIDs = slices.Clone(p.PromoIDs)
	p.Breakdown = slices.Clone(p.Breakdown)
	return p
}
