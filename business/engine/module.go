// Package engine implements the cycle orchestrator bounded context.
package engine

import (
	"context"

	arbitrageDI "github.com/flasharb/flasharb-bot/business/arbitrage/di"
	discoveryDI "github.com/flasharb/flasharb-bot/business/discovery/di"
	"github.com/flasharb/flasharb-bot/business/engine/app"
	engineDI "github.com/flasharb/flasharb-bot/business/engine/di"
	executionDI "github.com/flasharb/flasharb-bot/business/execution/di"
	mempoolDI "github.com/flasharb/flasharb-bot/business/mempool/di"
	riskDI "github.com/flasharb/flasharb-bot/business/risk/di"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// Module wires the orchestrator. It must start last.
type Module struct{}

// RegisterServices registers the stats counters.
func (m *Module) RegisterServices(c di.Container) error {
	c.Register(engineDI.Stats, app.NewStats())
	return nil
}

// Startup assembles the engine from every other context's services.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	services := mono.Services()

	eng := app.NewEngine(
		discoveryDI.GetService(services),
		arbitrageDI.GetSearcher(services),
		riskDI.GetController(services),
		executionDI.GetPipeline(services),
		mempoolDI.GetObserver(services),
		engineDI.GetStats(services),
		mono.Config().Chain.PollInterval(),
		mono.Logger(),
	)

	mono.Container().Register(engineDI.Engine, eng)
	return nil
}
