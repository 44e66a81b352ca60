// Package fees provides the exchange fee-tier table consumed by the
// simulation coordinator. Lookup is a pure function with no error path:
// an unknown tier falls back to the default (worst) tier.
package fees

import "tradesim_go/internal/domain"

// Rates holds the maker/taker fee rates for one VIP tier.
type Rates struct {
	Maker float64
	Taker float64
}

// DefaultTier is used when the requested tier is unknown or empty.
const DefaultTier = "VIP 0 (0.10%)"

// Table maps OKX VIP tiers to their maker/taker rates.
type Table struct {
	tiers map[string]Rates
}

// NewTable returns the OKX perpetual-swap fee schedule.
func NewTable() *Table {
	return &Table{
		tiers: map[string]Rates{
			"VIP 0 (0.10%)": {Maker: 0.0008, Taker: 0.0010},
			"VIP 1 (0.08%)": {Maker: 0.0006, Taker: 0.0008},
			"VIP 2 (0.07%)": {Maker: 0.0005, Taker: 0.0007},
			"VIP 3 (0.06%)": {Maker: 0.0004, Taker: 0.0006},
			"VIP 4 (0.05%)": {Maker: 0.0003, Taker: 0.0005},
			"VIP 5 (0.04%)": {Maker: 0.0002, Taker: 0.0004},
		},
	}
}

// Rates returns the maker/taker rates for a tier, defaulting to VIP 0.
func (t *Table) Rates(tier string) Rates {
	if r, ok := t.tiers[tier]; ok {
		return r
	}
	return t.tiers[DefaultTier]
}

// Tiers returns a copy of the full schedule.
func (t *Table) Tiers() map[string]Rates {
	out := make(map[string]Rates, len(t.tiers))
	for k, v := range t.tiers {
		out[k] = v
	}
	return out
}

// ExpectedRate blends the maker and taker rates by the probability that
// the order fills as a maker.
func (t *Table) ExpectedRate(tier string, makerProbability float64) float64 {
	r := t.Rates(tier)
	return r.Maker*makerProbability + r.Taker*(1-makerProbability)
}

// RateFunc adapts the table to the pure fee_rate(side, tier, orderType)
// shape: limit orders are quoted the maker rate, market orders the taker
// rate. Side does not change the rate on OKX but stays in the signature
// for exchanges where it does.
func (t *Table) RateFunc() func(side, tier, orderType string) float64 {
	return func(side, tier, orderType string) float64 {
		r := t.Rates(tier)
		if orderType == domain.OrderTypeLimit {
			return r.Maker
		}
		return r.Taker
	}
}
