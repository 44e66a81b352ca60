// Package sim hosts the simulation coordinator, the sole entry point
// surrounding components call into: it ties one request to a consistent
// book view and blends the model outputs into a total expected cost.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradesim_go/internal/book"
	"tradesim_go/internal/domain"
	"tradesim_go/internal/fees"
	"tradesim_go/internal/infra"
	"tradesim_go/internal/model"
)

// BookSource supplies consistent read-only book views. Satisfied by
// *engine.Engine.
type BookSource interface {
	SnapshotView() (*book.OrderBook, error)
}

// ResultStore persists finished simulation results for auditing.
// Persistence is best-effort and never blocks or fails a simulation.
type ResultStore interface {
	SaveSimulation(ctx context.Context, res domain.SimulationResult) error
}

// Config fixes the open parameters of the coordinator: how many levels
// aggregate into market depth, and the defaults applied when a request
// leaves volatility or fee tier unset.
type Config struct {
	DepthLevels       int
	DefaultVolatility float64
	DefaultFeeTier    string
}

// Coordinator orchestrates a single simulation request. All model
// dependencies are constructor-injected; the coordinator owns none of
// their lifecycles.
type Coordinator struct {
	books     BookSource
	impact    *model.ImpactModel
	predictor *model.Predictor
	slippage  *model.SlippageModel // Optional; nil disables the slippage field
	feeTable  *fees.Table
	store     ResultStore // Optional
	metrics   *infra.Metrics
	logger    *slog.Logger
	cfg       Config
}

// NewCoordinator wires a coordinator. slippage, store and metrics may be
// nil; impact, predictor and feeTable must not be.
func NewCoordinator(
	books BookSource,
	impact *model.ImpactModel,
	predictor *model.Predictor,
	slippage *model.SlippageModel,
	feeTable *fees.Table,
	store ResultStore,
	metrics *infra.Metrics,
	cfg Config,
) *Coordinator {
	if cfg.DepthLevels <= 0 {
		cfg.DepthLevels = 10
	}
	if cfg.DefaultFeeTier == "" {
		cfg.DefaultFeeTier = fees.DefaultTier
	}
	return &Coordinator{
		books:     books,
		impact:    impact,
		predictor: predictor,
		slippage:  slippage,
		feeTable:  feeTable,
		store:     store,
		metrics:   metrics,
		logger:    slog.Default().With("module", "sim"),
		cfg:       cfg,
	}
}

// Simulate produces the cost estimate for one hypothetical trade against
// the current book. It has no partial side effects; abandoning the call
// on ctx cancellation is always safe.
func (c *Coordinator) Simulate(ctx context.Context, req domain.SimulationRequest) (domain.SimulationResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.SimulationResult{}, err
	}

	// 1. Consistent view; fails while Uninitialized.
	view, err := c.books.SnapshotView()
	if err != nil {
		return domain.SimulationResult{}, err
	}

	// 2. Reference price: best level on the opposing side.
	opposing := view.Opposing(req.Side)
	best, ok := opposing.Best()
	if !ok {
		return domain.SimulationResult{}, fmt.Errorf("%s side: %w", req.Side, domain.ErrEmptyBook)
	}
	referencePrice := best.Price.InexactFloat64()

	// 3. Market depth: aggregate quantity over the configured window.
	marketDepth := opposing.TotalQuantity(c.cfg.DepthLevels).InexactFloat64()

	// 4. Spread. A negative spread inside a synced view means the engine
	// invariant broke; surface it as a bug signal, not a routine error.
	var spread float64
	if spr, ok := view.Spread(); ok {
		spread = spr.InexactFloat64()
		if spread < 0 {
			c.logger.Error("CRITICAL: crossed book observed in snapshot view",
				slog.Uint64("seq", view.Sequence), slog.Float64("spread", spread))
			if c.metrics != nil {
				c.metrics.RecordError()
			}
			return domain.SimulationResult{}, domain.ErrCrossedBook
		}
	}

	volatility := c.cfg.DefaultVolatility
	if req.Volatility != nil {
		volatility = *req.Volatility
	}
	feeTier := req.FeeTier
	if feeTier == "" {
		feeTier = c.cfg.DefaultFeeTier
	}
	quantity := req.Quantity.InexactFloat64()

	// 5. Models.
	imp := c.impact.Estimate(quantity, referencePrice, volatility, marketDepth)
	makerProb := c.predictor.Predict(spread, marketDepth, volatility, quantity, referencePrice)

	// 6. Fees, blended by maker probability.
	feeRate := c.feeTable.ExpectedRate(feeTier, makerProb)
	orderValue := quantity * referencePrice
	expectedFee := orderValue * feeRate

	// 7. Total cost. Slippage is reported but deliberately not summed;
	// it overlaps with temporary impact and would double count.
	var expectedSlippage float64
	if c.slippage != nil {
		expectedSlippage = c.slippage.Amount(referencePrice, quantity, marketDepth) * quantity
	}

	res := domain.SimulationResult{
		ID:                uuid.NewString(),
		Side:              req.Side,
		Quantity:          req.Quantity,
		ReferencePrice:    referencePrice,
		Spread:            spread,
		MarketDepth:       marketDepth,
		TemporaryImpact:   imp.Temporary,
		PermanentImpact:   imp.Permanent,
		ImpactBps:         imp.Bps(orderValue),
		ExpectedSlippage:  expectedSlippage,
		FeeRate:           feeRate,
		ExpectedFee:       expectedFee,
		MakerProbability:  makerProb,
		TakerProbability:  1 - makerProb,
		TotalExpectedCost: imp.Total() + expectedFee,
		BookSequenceUsed:  view.Sequence,
		CreatedAt:         time.Now(),
	}

	if c.metrics != nil {
		c.metrics.RecordSimulation(time.Since(start).Nanoseconds())
	}

	// 8. Best-effort audit trail, detached from the caller's lifetime.
	if c.store != nil {
		go c.persist(res)
	}

	return res, nil
}

func (c *Coordinator) persist(res domain.SimulationResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.store.SaveSimulation(ctx, res); err != nil {
		c.logger.Warn("Failed to persist simulation result",
			slog.String("id", res.ID), slog.Any("error", err))
	}
}
