// Package risk implements the risk controller bounded context.
package risk

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/risk/app"
	riskDI "github.com/flasharb/flasharb-bot/business/risk/di"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// Module wires the risk context.
type Module struct{}

// RegisterServices has nothing to pre-register; the controller needs
// configuration from the monolith.
func (m *Module) RegisterServices(di.Container) error {
	return nil
}

// Startup builds the controller and starts its hourly tick.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()

	ctrl := app.NewController(app.ControllerConfig{
		Enabled:          cfg.Risk.EnableCircuitBreaker,
		MaxTradesPerHour: cfg.Risk.MaxTradesPerHour,
		MaxDrawdownWei:   cfg.Risk.MaxDrawdownWei().BigInt(),
		MinLiquidityUSD:  cfg.Discovery.MinLiquidityUSDDecimal(),
	}, mono.Logger())

	ctrl.StartHourlyTicker(ctx)
	mono.Container().Register(riskDI.Controller, ctrl)
	return nil
}
