// Package main is the entry point for the flash-loan arbitrage engine.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/flasharb/flasharb-bot/business/arbitrage"
	"github.com/flasharb/flasharb-bot/business/blockchain"
	"github.com/flasharb/flasharb-bot/business/discovery"
	discoveryChain "github.com/flasharb/flasharb-bot/business/discovery/infra/chain"
	"github.com/flasharb/flasharb-bot/business/engine"
	engineDI "github.com/flasharb/flasharb-bot/business/engine/di"
	"github.com/flasharb/flasharb-bot/business/execution"
	"github.com/flasharb/flasharb-bot/business/mempool"
	"github.com/flasharb/flasharb-bot/business/quotes"
	"github.com/flasharb/flasharb-bot/business/risk"
	"github.com/flasharb/flasharb-bot/internal/apm"
	"github.com/flasharb/flasharb-bot/internal/config"
	"github.com/flasharb/flasharb-bot/internal/health"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/metrics"
	"github.com/flasharb/flasharb-bot/internal/monolith"
	"github.com/flasharb/flasharb-bot/internal/token"
)

var version = "dev"

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closeLogs, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLogs()

	log.Info(ctx, "starting flash-loan arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Chain.ChainID,
	)

	// Observability.
	var traceProvider *apm.Provider
	var metricProvider *metrics.Provider
	if cfg.Telemetry.Enabled {
		traceProvider, err = apm.New(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    apm.ExporterOTLPGRPC,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			log.Warn(ctx, "tracing disabled", "error", err)
		}

		metricProvider, err = metrics.New(ctx, metrics.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Prometheus:  true,
		})
		if err != nil {
			log.Warn(ctx, "metrics disabled", "error", err)
		} else {
			go func() {
				if err := metrics.ServePrometheus(cfg.Telemetry.PrometheusPort); err != nil {
					log.Warn(ctx, "prometheus server stopped", "error", err)
				}
			}()
			log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)
		}
	}
	defer func() {
		if traceProvider != nil {
			_ = traceProvider.Shutdown(context.Background())
		}
		if metricProvider != nil {
			_ = metricProvider.Shutdown(context.Background())
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}
	defer healthServer.Stop(context.Background())

	// Shared infrastructure.
	tokens := token.NewRegistry(nil)
	mono, err := monolith.New(cfg, log, tokens)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	tokens.SetReader(discoveryChain.NewERC20Reader(mono.EthClient()))

	// Modules in dependency order: chain plumbing first, the
	// orchestrator last.
	modules := []monolith.Module{
		&blockchain.Module{},
		&discovery.Module{},
		&quotes.Module{},
		&arbitrage.Module{},
		&risk.Module{},
		&mempool.Module{},
		&execution.Module{},
		&engine.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	eng := engineDI.GetEngine(mono.Services())
	healthServer.RegisterCheck("engine", func(context.Context) (bool, string) {
		snap := eng.Stats().Snapshot()
		return true, fmt.Sprintf("cycles=%d executed=%d", snap.Cycles, snap.Executed)
	})

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	eng.Stop()
	return nil
}

// buildLogger wires the three line streams: general and error output on
// stderr, trade records appended under the data directory.
func buildLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return nil, nil, err
	}

	tradePath := filepath.Join(cfg.App.DataDir, "trades.log")
	tradeFile, err := os.OpenFile(tradePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var tradeW io.Writer = tradeFile
	log := logger.New(os.Stderr, os.Stderr, tradeW, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name)
	return log, func() { _ = tradeFile.Close() }, nil
}
