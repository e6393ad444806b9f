package pipeline

import (
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// Key identifies a memoized run.
type Key struct {
	DefinitionID  string
	Today         calendar.Date
	PurchasesHash uint64
}

// KeyFor derives the cache key of in.
func KeyFor(in Input) Key {
	return Key{
		DefinitionID:  in.Definition.ID,
		Today:         in.Today,
		PurchasesHash: HashPurchases(in.Purchases),
	}
}

// HashPurchases fingerprints every field of ps, since a cached State hands
// the purchases back to callers. The result depends on order.
func HashPurchases(ps []purchase.Purchase) uint64 {
	h := fnv.New64a()
	for _, p := range ps {
		writeField(h, p.ID)
		writeField(h, p.Amount.String())
		writeField(h, p.Date.String())
		writeField(h, p.StoreName)
		writeField(h, p.PaymentMethod)
		writeField(h, p.PromoID)
		for _, id := range p.PromoIDs {
			writeField(h, id)
		}
		_, _ = h.Write([]byte{0xfe})
		for _, e := range p.Breakdown {
			writeField(h, e.PromoID)
			writeField(h, e.Percent.String())
			writeField(h, e.BaseApplied.String())
			writeField(h, e.DiscountValue.String())
			writeField(h, e.LimitAmount.String())
		}
		_, _ = h.Write([]byte{0xfe})
		writeField(h, p.FinalAmount.String())
		writeField(h, p.CreatedAt.UTC().Format(time.RFC3339Nano))
		_, _ = h.Write([]byte{0xff})
	}
	return h.Sum64()
}

func writeField(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
	_, _ = w.Write([]byte{0})
}

// Cache memoizes pipeline runs. It is safe for concurrent use. When the
// number of entries reaches the bound the cache is emptied.
type Cache struct {
	pipeline *Pipeline
	limit    int

	mu      sync.Mutex
	entries map[Key]State
}

// NewCache wraps p with a memo holding at most limit entries. A non-positive
// limit disables the bound.
func NewCache(p *Pipeline, limit int) *Cache {
	return &Cache{
		pipeline: p,
		limit:    limit,
		entries:  make(map[Key]State),
	}
}

// Run returns the memoized state for in, computing it on a miss. The second
// result reports whether the state came from the cache.
func (c *Cache) Run(in Input) (State, bool) {
	key := KeyFor(in)

	c.mu.Lock()
	s, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return s, true
	}

	s = c.pipeline.Run(in)

	c.mu.Lock()
	if c.limit > 0 && len(c.entries) >= c.limit {
		clear(c.entries)
	}
	c.entries[key] = s
	c.mu.Unlock()

	return s, false
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}
