package main

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

const bloomFPR = 0.001

// latestByID keeps only the last record of every purchase id, preserving the
// order of the kept records, and returns the number of records dropped.
//
// Pass 1 feeds every id through a bloom filter and collects the ids it may
// have seen before. Pass 2 counts only those candidates exactly, so false
// positives cost a map entry and are never dropped.
func latestByID(ps []*purchase.Purchase) ([]*purchase.Purchase, int) {
	if len(ps) < 2 {
		return ps, 0
	}

	filter := bloom.NewWithEstimates(uint(len(ps)), bloomFPR)
	candidates := make(map[string]int)
	for _, p := range ps {
		if filter.TestAndAddString(p.ID) {
			candidates[p.ID] = 0
		}
	}
	if len(candidates) == 0 {
		return ps, 0
	}

	for _, p := range ps {
		if _, ok := candidates[p.ID]; ok {
			candidates[p.ID]++
		}
	}

	out := make([]*purchase.Purchase, 0, len(ps))
	var dropped int
	for _, p := range ps {
		// Remaining occurrences, including this one.
		if n, ok := candidates[p.ID]; ok && n > 1 {
			candidates[p.ID] = n - 1
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}
