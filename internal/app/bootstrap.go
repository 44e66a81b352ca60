package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"tradesim_go/internal/engine"
	"tradesim_go/internal/event"
	"tradesim_go/internal/fees"
	"tradesim_go/internal/infra"
	"tradesim_go/internal/infra/okx"
	"tradesim_go/internal/infra/storage"
	"tradesim_go/internal/model"
	"tradesim_go/internal/sim"
)

// Bootstrap orchestrates the application startup sequence: config →
// logger → storage → models → engine → coordinator → feed worker.
// It owns the lifecycle of everything it assembles.
type Bootstrap struct {
	Config      *infra.Config
	Storage     *storage.Storage
	Engine      *engine.Engine
	Coordinator *sim.Coordinator
	Worker      *okx.Worker
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping trade cost simulator...")

	// 1. Load Config
	configPath := os.Getenv("TRADESIM_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Storage (optional audit log)
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("✅ Audit storage initialized", slog.String("path", cfg.Storage.Path))
	}

	// 4. Pre-warm the delta event pool
	event.Warmup()

	// 5. Engine
	b.Engine = engine.NewEngine(cfg.Feed.InboxSize, infra.GlobalMetrics)

	// 6. Models
	impact, err := model.NewImpactModel(model.ImpactParams{
		Eta:                 cfg.Simulation.Impact.Eta,
		Theta:               cfg.Simulation.Impact.Theta,
		ReferenceVolatility: cfg.Simulation.Impact.ReferenceVolatility,
		DepthAdjusted:       cfg.Simulation.Impact.DepthAdjusted,
	})
	if err != nil {
		return err
	}

	predictor := b.buildPredictor()
	slippage := b.buildSlippage()

	// 7. Coordinator
	var store sim.ResultStore
	if b.Storage != nil {
		store = b.Storage
	}
	b.Coordinator = sim.NewCoordinator(
		b.Engine, impact, predictor, slippage, fees.NewTable(),
		store, infra.GlobalMetrics,
		sim.Config{
			DepthLevels:       cfg.Simulation.DepthLevels,
			DefaultVolatility: cfg.Simulation.DefaultVolatility,
			DefaultFeeTier:    cfg.Simulation.DefaultFeeTier,
		},
	)

	// 8. Feed worker, wired to the engine's inbox and resync signal
	b.Worker = okx.NewWorker(cfg, b.Engine.Inbox(), b.Engine.ResyncSignals(), infra.GlobalMetrics)

	slog.Info("✅ Components assembled",
		slog.String("inst", cfg.Feed.InstID), slog.Int("depth_levels", cfg.Simulation.DepthLevels))
	return nil
}

// buildPredictor wires the maker/taker scorer from config weights.
// All-zero weights mean "not configured" and fall back to the defaults.
func (b *Bootstrap) buildPredictor() *model.Predictor {
	s := b.Config.Simulation.Scorer
	weights := model.LogisticWeights{
		Spread:     s.SpreadWeight,
		Depth:      s.DepthWeight,
		Volatility: s.VolatilityWeight,
		Size:       s.SizeWeight,
	}
	if weights == (model.LogisticWeights{}) {
		weights = model.DefaultLogisticWeights()
	}

	scorer := model.NewLogisticScorer(weights)
	if p := b.Config.Simulation.FallbackMakerProbability; p > 0 {
		return model.NewPredictorWithFallback(scorer, p)
	}
	return model.NewPredictor(scorer)
}

// buildSlippage returns nil when no slippage mode is configured.
func (b *Bootstrap) buildSlippage() *model.SlippageModel {
	s := b.Config.Simulation.Slippage
	if s.Mode == "" {
		return nil
	}
	m, err := model.NewSlippageModel(model.SlippageParams{
		Mode:               model.SlippageMode(s.Mode),
		Fixed:              s.Fixed,
		Percentage:         s.Percentage,
		VolumeImpactFactor: s.VolumeImpactFactor,
		Min:                s.Min,
		Max:                s.Max,
	})
	if err != nil {
		// Validate() already rejected unknown modes; this is unreachable
		// unless config validation and the model disagree.
		slog.Error("Slippage model construction failed", slog.Any("error", err))
		return nil
	}
	return m
}

// Run starts the engine hotpath and the feed worker, then reports
// metrics periodically until ctx is done.
func (b *Bootstrap) Run(ctx context.Context) error {
	go b.Engine.Run(ctx)
	slog.InfoContext(ctx, "✅ Engine (hotpath) started")

	if err := b.Worker.Connect(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "✅ Feed worker started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := infra.GlobalMetrics.Snapshot()
			slog.Info("Metrics",
				slog.Uint64("events", snap.EventsApplied),
				slog.Uint64("gaps", snap.GapsDetected),
				slog.Uint64("resyncs", snap.ResyncsCompleted),
				slog.Uint64("simulations", snap.SimulationsServed),
				slog.Int64("avg_apply_ns", snap.AvgApplyNs),
				slog.Bool("feed_connected", snap.FeedConnected))
		}
	}
}

// Shutdown releases held resources.
func (b *Bootstrap) Shutdown() {
	if b.Worker != nil {
		b.Worker.Disconnect()
	}
	if b.Storage != nil {
		_ = b.Storage.Close()
	}
}
