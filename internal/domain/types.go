package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeLimit  = "LIMIT"
	OrderTypeMarket = "MARKET"
)

// PriceLevel is a single rung of a book side: resting quantity at a price.
// A level with zero quantity is never stored; it simply does not exist.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// SimulationRequest describes the hypothetical trade to cost out.
// Volatility and FeeTier are optional: a nil Volatility and an empty
// FeeTier fall back to the coordinator's configured defaults. An
// explicit zero volatility is honored and yields zero impact.
type SimulationRequest struct {
	Side       string          `json:"side"`       // "BUY", "SELL"
	OrderType  string          `json:"order_type"` // "LIMIT", "MARKET"
	Quantity   decimal.Decimal `json:"quantity"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"` // Only for LIMIT orders
	Volatility *float64        `json:"volatility,omitempty"`
	FeeTier    string          `json:"fee_tier,omitempty"`
}

// Validate checks the request against caller-contract rules.
func (r *SimulationRequest) Validate() error {
	if r.Side != SideBuy && r.Side != SideSell {
		return ErrInvalidRequest
	}
	if r.OrderType != OrderTypeLimit && r.OrderType != OrderTypeMarket {
		return ErrInvalidRequest
	}
	if !r.Quantity.IsPositive() {
		return ErrInvalidRequest
	}
	if r.OrderType == OrderTypeLimit && !r.LimitPrice.IsPositive() {
		return ErrInvalidRequest
	}
	if r.Volatility != nil && *r.Volatility < 0 {
		return ErrInvalidRequest
	}
	return nil
}

// SimulationResult is the full cost breakdown for one request.
// Monetary fields are in quote currency. TotalExpectedCost is strictly
// temporary + permanent + expected fee; slippage is reported alongside
// but not summed in.
type SimulationResult struct {
	ID               string          `json:"id" gorm:"primaryKey"`
	Side             string          `json:"side"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:text"`
	ReferencePrice   float64         `json:"reference_price"`
	Spread           float64         `json:"spread"`
	MarketDepth      float64         `json:"market_depth"`

	TemporaryImpact   float64 `json:"temporary_impact"`
	PermanentImpact   float64 `json:"permanent_impact"`
	ImpactBps         float64 `json:"impact_bps"`
	ExpectedSlippage  float64 `json:"expected_slippage"`
	FeeRate           float64 `json:"fee_rate"`
	ExpectedFee       float64 `json:"expected_fee"`
	MakerProbability  float64 `json:"maker_probability"`
	TakerProbability  float64 `json:"taker_probability"`
	TotalExpectedCost float64 `json:"total_expected_cost"`

	BookSequenceUsed uint64    `json:"book_sequence_used"`
	CreatedAt        time.Time `json:"created_at"`
}

// PredictedType classifies the likely execution role of the order.
func (r *SimulationResult) PredictedType() string {
	if r.MakerProbability > 0.5 {
		return "Maker"
	}
	return "Taker"
}
