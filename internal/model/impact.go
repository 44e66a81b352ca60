package model

import (
	"fmt"
	"math"
)

// ImpactParams calibrate the Almgren-Chriss style impact model.
// ReferenceVolatility is the volatility the eta/theta coefficients were
// calibrated at; live volatility scales the outputs relative to it.
type ImpactParams struct {
	Eta                 float64 // Temporary impact coefficient
	Theta               float64 // Permanent impact coefficient
	ReferenceVolatility float64
	DepthAdjusted       bool // Scale by sqrt(qty/depth) when depth is known
}

// DefaultImpactParams returns the calibration used for BTC-USDT-SWAP.
func DefaultImpactParams() ImpactParams {
	return ImpactParams{
		Eta:                 2.5e-6,
		Theta:               2.5e-6,
		ReferenceVolatility: 0.3,
	}
}

// Impact is the cost decomposition for one estimate, in quote currency.
type Impact struct {
	Temporary float64
	Permanent float64
}

// Total returns temporary + permanent impact.
func (i Impact) Total() float64 {
	return i.Temporary + i.Permanent
}

// Bps expresses total impact in basis points of the given order value.
// Zero order value yields zero, not a division error.
func (i Impact) Bps(orderValue float64) float64 {
	if orderValue == 0 {
		return 0
	}
	return i.Total() / orderValue * 10000
}

// ImpactModel computes temporary and permanent market impact:
//
//	temporary = eta   * sqrt(q) * p * (vol / refVol)
//	permanent = theta * q       * p * (vol / refVol)
//
// Both outputs are non-decreasing in quantity for fixed other inputs.
// Zero volatility is a valid input and zeroes the impact; that is the
// model's definition, not an error path.
type ImpactModel struct {
	params ImpactParams
}

// NewImpactModel validates parameters at construction. A non-positive
// reference volatility is a configuration error; estimates never divide
// by it unchecked.
func NewImpactModel(params ImpactParams) (*ImpactModel, error) {
	if params.ReferenceVolatility <= 0 {
		return nil, fmt.Errorf("impact model: reference volatility must be positive, got %v",
			params.ReferenceVolatility)
	}
	return &ImpactModel{params: params}, nil
}

// Params returns the model calibration.
func (m *ImpactModel) Params() ImpactParams {
	return m.params
}

// Estimate computes impact for a trade of quantity at referencePrice
// under the given volatility. marketDepth only participates when the
// model was built with DepthAdjusted; it is informational otherwise.
func (m *ImpactModel) Estimate(quantity, referencePrice, volatility, marketDepth float64) Impact {
	if quantity == 0 {
		return Impact{}
	}

	volScale := volatility / m.params.ReferenceVolatility

	imp := Impact{
		Temporary: m.params.Eta * math.Sqrt(quantity) * referencePrice * volScale,
		Permanent: m.params.Theta * quantity * referencePrice * volScale,
	}

	if m.params.DepthAdjusted && marketDepth > 0 {
		adj := math.Sqrt(quantity / marketDepth)
		imp.Temporary *= adj
		imp.Permanent *= adj
	}

	return imp
}
