package model

import (
	"fmt"
	"math"
)

// SlippageMode selects how slippage is derived from the trade.
type SlippageMode string

const (
	SlippageFixed      SlippageMode = "fixed"
	SlippagePercentage SlippageMode = "percentage"
	SlippageVolume     SlippageMode = "volume"
)

// SlippageParams configure the slippage estimate.
// Max of 0 means unbounded.
type SlippageParams struct {
	Mode               SlippageMode
	Fixed              float64
	Percentage         float64
	VolumeImpactFactor float64
	Min                float64
	Max                float64
}

// DefaultSlippageParams returns a 0.1% percentage model.
func DefaultSlippageParams() SlippageParams {
	return SlippageParams{
		Mode:       SlippagePercentage,
		Percentage: 0.001,
	}
}

// SlippageModel estimates the per-unit price concession a trade pays on
// top of the reference price.
type SlippageModel struct {
	params SlippageParams
}

// NewSlippageModel validates the mode at construction.
func NewSlippageModel(params SlippageParams) (*SlippageModel, error) {
	switch params.Mode {
	case SlippageFixed, SlippagePercentage, SlippageVolume:
	default:
		return nil, fmt.Errorf("slippage model: unknown mode %q", params.Mode)
	}
	return &SlippageModel{params: params}, nil
}

// Amount returns the slippage per unit in quote currency, bounded by the
// configured min/max. marketVolume is only used in volume mode; pass 0
// when unknown and the model falls back to linear scaling.
func (m *SlippageModel) Amount(price, volume, marketVolume float64) float64 {
	var slip float64

	switch m.params.Mode {
	case SlippageFixed:
		slip = m.params.Fixed
	case SlippagePercentage:
		slip = price * m.params.Percentage
	case SlippageVolume:
		if marketVolume > 0 {
			slip = price * m.params.VolumeImpactFactor * math.Sqrt(volume/marketVolume)
		} else {
			// Linear fallback when market volume is unknown
			slip = price * m.params.VolumeImpactFactor * (volume / 1000)
		}
	}

	if m.params.Max > 0 && slip > m.params.Max {
		slip = m.params.Max
	}
	if slip < m.params.Min {
		slip = m.params.Min
	}
	return slip
}

// Apply returns the effective fill price after slippage: worse (higher)
// for buys, worse (lower) for sells.
func (m *SlippageModel) Apply(price, volume float64, isBuy bool, marketVolume float64) float64 {
	slip := m.Amount(price, volume, marketVolume)
	if isBuy {
		return price + slip
	}
	return price - slip
}
