package book

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

// Ladder is one side of the book: price levels kept in side order
// (descending for bids, ascending for asks) so the best price is always
// index 0. Backed by a sorted slice with binary search; levels with zero
// quantity are removed, never stored.
type Ladder struct {
	descending bool
	levels     []domain.PriceLevel
}

// NewBidLadder creates a bid-side ladder (best = highest price first).
func NewBidLadder() *Ladder {
	return &Ladder{descending: true}
}

// NewAskLadder creates an ask-side ladder (best = lowest price first).
func NewAskLadder() *Ladder {
	return &Ladder{descending: false}
}

// search finds the slot for price in side order.
// Returns the insertion index and whether an exact level exists there.
func (l *Ladder) search(price decimal.Decimal) (int, bool) {
	idx := sort.Search(len(l.levels), func(i int) bool {
		cmp := l.levels[i].Price.Cmp(price)
		if l.descending {
			return cmp <= 0
		}
		return cmp >= 0
	})
	if idx < len(l.levels) && l.levels[idx].Price.Equal(price) {
		return idx, true
	}
	return idx, false
}

// Upsert sets the resting quantity at price. Zero removes the level,
// positive inserts or replaces it. Negative quantity is a caller contract
// violation and is rejected without touching the ladder.
func (l *Ladder) Upsert(price, quantity decimal.Decimal) error {
	if quantity.IsNegative() || price.IsNegative() || price.IsZero() {
		return domain.ErrMalformedLevel
	}

	idx, found := l.search(price)

	if quantity.IsZero() {
		if found {
			l.levels = append(l.levels[:idx], l.levels[idx+1:]...)
		}
		// Removing an absent level is a no-op, not an error
		return nil
	}

	if found {
		l.levels[idx].Quantity = quantity
		return nil
	}

	l.levels = append(l.levels, domain.PriceLevel{})
	copy(l.levels[idx+1:], l.levels[idx:])
	l.levels[idx] = domain.PriceLevel{Price: price, Quantity: quantity}
	return nil
}

// Best returns the top-of-book level, if any.
func (l *Ladder) Best() (domain.PriceLevel, bool) {
	if len(l.levels) == 0 {
		return domain.PriceLevel{}, false
	}
	return l.levels[0], true
}

// Len returns the number of populated levels.
func (l *Ladder) Len() int {
	return len(l.levels)
}

// DepthWithin returns up to maxLevels levels from the top of the book,
// in side order. The returned slice is a fresh copy of the current state,
// not a live cursor; each call re-snapshots.
func (l *Ladder) DepthWithin(maxLevels int) []domain.PriceLevel {
	if maxLevels <= 0 || len(l.levels) == 0 {
		return nil
	}
	n := maxLevels
	if n > len(l.levels) {
		n = len(l.levels)
	}
	out := make([]domain.PriceLevel, n)
	copy(out, l.levels[:n])
	return out
}

// LevelsInRange returns all levels with lo <= price <= hi, in side order,
// as a fresh copy.
func (l *Ladder) LevelsInRange(lo, hi decimal.Decimal) []domain.PriceLevel {
	if len(l.levels) == 0 || lo.GreaterThan(hi) {
		return nil
	}
	var out []domain.PriceLevel
	for _, lv := range l.levels {
		if lv.Price.GreaterThanOrEqual(lo) && lv.Price.LessThanOrEqual(hi) {
			out = append(out, lv)
		}
	}
	return out
}

// TotalQuantity sums resting quantity over the top maxLevels levels.
func (l *Ladder) TotalQuantity(maxLevels int) decimal.Decimal {
	total := decimal.Zero
	for _, lv := range l.DepthWithin(maxLevels) {
		total = total.Add(lv.Quantity)
	}
	return total
}

// Replace discards the ladder contents and loads the given levels.
// Input may be unsorted; duplicates or invalid quantities are rejected
// wholesale so a bad snapshot never half-applies.
func (l *Ladder) Replace(levels []domain.PriceLevel) error {
	fresh := make([]domain.PriceLevel, 0, len(levels))
	for _, lv := range levels {
		if lv.Quantity.IsNegative() || lv.Price.IsNegative() || lv.Price.IsZero() {
			return domain.ErrMalformedLevel
		}
		if lv.Quantity.IsZero() {
			continue
		}
		fresh = append(fresh, lv)
	}

	sort.Slice(fresh, func(i, j int) bool {
		if l.descending {
			return fresh[i].Price.GreaterThan(fresh[j].Price)
		}
		return fresh[i].Price.LessThan(fresh[j].Price)
	})

	// Duplicate prices in a snapshot are malformed input
	for i := 1; i < len(fresh); i++ {
		if fresh[i].Price.Equal(fresh[i-1].Price) {
			return domain.ErrMalformedLevel
		}
	}

	l.levels = fresh
	return nil
}

// Clone returns an independent deep copy of the ladder.
func (l *Ladder) Clone() *Ladder {
	cp := &Ladder{descending: l.descending}
	if len(l.levels) > 0 {
		cp.levels = make([]domain.PriceLevel, len(l.levels))
		copy(cp.levels, l.levels)
	}
	return cp
}
