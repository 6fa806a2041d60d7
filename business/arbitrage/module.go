// Package arbitrage implements the strategy search bounded context.
package arbitrage

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/arbitrage/app"
	arbitrageDI "github.com/flasharb/flasharb-bot/business/arbitrage/di"
	blockchainApp "github.com/flasharb/flasharb-bot/business/blockchain/app"
	blockchainDI "github.com/flasharb/flasharb-bot/business/blockchain/di"
	quotesDI "github.com/flasharb/flasharb-bot/business/quotes/di"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// oracleGasPricer adapts the gas oracle to the calculator's port.
type oracleGasPricer struct {
	oracle *blockchainApp.GasOracle
}

func (p *oracleGasPricer) MaxFeeGwei() float64 {
	return p.oracle.CurrentGas().MaxFeeGwei()
}

// Module wires the arbitrage context.
type Module struct{}

// RegisterServices has nothing to pre-register; the searcher depends on
// services created by earlier modules.
func (m *Module) RegisterServices(di.Container) error {
	return nil
}

// Startup builds the calculator and searcher.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()

	calc := app.NewCalculator(app.CalculatorConfig{
		FlashPremiumBps: cfg.Trading.FlashPremiumBps,
		SlippageBps:     cfg.Trading.SlippageBps,
		MinProfitUSD:    cfg.Trading.MinProfitUSDDecimal(),
	}, mono.TokenRegistry(), &oracleGasPricer{
		oracle: blockchainDI.GetGasOracle(mono.Services()),
	})

	searcher, err := app.NewSearcher(
		quotesDI.GetEngine(mono.Services()),
		mono.TokenRegistry(),
		calc,
		app.SearcherConfig{TopK: cfg.Trading.TopK},
		mono.Logger(),
	)
	if err != nil {
		return err
	}

	mono.Container().Register(arbitrageDI.Calculator, calc)
	mono.Container().Register(arbitrageDI.Searcher, searcher)
	return nil
}
