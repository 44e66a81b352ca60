package model

import (
	"math"
)

// Features is the fixed-shape input record for maker/taker scoring.
// All values are already normalized by the predictor.
type Features struct {
	NormSpread float64 // spread / reference price
	NormDepth  float64 // log1p(market depth)
	Volatility float64
	NormSize   float64 // order size / market depth
}

// Scorer maps a feature record to a maker-fill probability estimate.
// Implementations may return out-of-range values; the predictor clamps.
type Scorer interface {
	Score(f Features) float64
}

// LogisticWeights parameterize the linear-logistic scorer. They are
// loaded from config or an externally trained parameter set.
type LogisticWeights struct {
	Spread     float64
	Depth      float64
	Volatility float64
	Size       float64
}

// DefaultLogisticWeights returns the hand-calibrated default weights:
// wider spreads and deeper books favor maker fills, volatility and
// relative order size work against them.
func DefaultLogisticWeights() LogisticWeights {
	return LogisticWeights{
		Spread:     0.4,
		Depth:      0.3,
		Volatility: -0.2,
		Size:       -0.3,
	}
}

// LogisticScorer scores via a linear combination squashed by a sigmoid.
type LogisticScorer struct {
	w LogisticWeights
}

// NewLogisticScorer builds a scorer from the given weights.
func NewLogisticScorer(w LogisticWeights) *LogisticScorer {
	return &LogisticScorer{w: w}
}

func (s *LogisticScorer) Score(f Features) float64 {
	z := s.w.Spread*f.NormSpread +
		s.w.Depth*f.NormDepth +
		s.w.Volatility*f.Volatility +
		s.w.Size*f.NormSize
	return 1 / (1 + math.Exp(-z))
}

// ConstantScorer always returns the same probability. Useful as an
// explicit stand-in when no trained model is available.
type ConstantScorer struct {
	P float64
}

func (s ConstantScorer) Score(Features) float64 {
	return s.P
}

// DefaultFallbackProbability is returned when no scorer is configured.
// Maker/taker is an auxiliary estimate, so a missing scorer degrades to
// a neutral guess instead of failing the simulation.
const DefaultFallbackProbability = 0.5

// Predictor computes the maker-fill probability for an order from raw
// book quantities. It is agnostic to the scoring implementation.
type Predictor struct {
	scorer   Scorer
	fallback float64
}

// NewPredictor creates a predictor around the given scorer. A nil scorer
// is allowed; prediction then returns the fallback constant.
func NewPredictor(scorer Scorer) *Predictor {
	return &Predictor{scorer: scorer, fallback: DefaultFallbackProbability}
}

// NewPredictorWithFallback overrides the fallback probability.
func NewPredictorWithFallback(scorer Scorer, fallback float64) *Predictor {
	return &Predictor{scorer: scorer, fallback: clamp01(fallback)}
}

// Predict returns the probability in [0,1] that the order fills as a
// maker. An empty opposing side (marketDepth == 0) means the order can
// never rest and fill passively: probability 0 by definition.
func (p *Predictor) Predict(spread, marketDepth, volatility, orderSize, referencePrice float64) float64 {
	if marketDepth <= 0 {
		return 0
	}
	if referencePrice <= 0 {
		// Degenerate book; nothing meaningful to normalize against.
		return 0
	}

	if p.scorer == nil {
		return p.fallback
	}

	f := Features{
		NormSpread: spread / referencePrice,
		NormDepth:  math.Log1p(marketDepth),
		Volatility: volatility,
		NormSize:   orderSize / marketDepth,
	}

	return clamp01(p.scorer.Score(f))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	case math.IsNaN(v):
		return 0
	default:
		return v
	}
}
