package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/app"
	"tradesim_go/internal/domain"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Periodic sample estimate: cost of buying 1 unit at market.
	// Keeps the pipeline observable without an API layer in front.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := bootstrap.Coordinator.Simulate(ctx, domain.SimulationRequest{
					Side:      domain.SideBuy,
					OrderType: domain.OrderTypeMarket,
					Quantity:  decimal.NewFromInt(1),
				})
				if err != nil {
					slog.Warn("Sample simulation unavailable", slog.Any("error", err))
					continue
				}
				slog.Info("Sample estimate",
					slog.Float64("ref_price", res.ReferencePrice),
					slog.Float64("total_cost", res.TotalExpectedCost),
					slog.Float64("maker_prob", res.MakerProbability),
					slog.String("type", res.PredictedType()),
					slog.Uint64("book_seq", res.BookSequenceUsed))
			}
		}
	}()

	// 5. Run the engine and feed until shutdown
	slog.InfoContext(ctx, "✨ Trade cost simulator fully operational. Press Ctrl+C to exit.")
	if err := bootstrap.Run(ctx); err != nil {
		slog.Error("Runtime failure", slog.Any("error", err))
		os.Exit(1)
	}

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
