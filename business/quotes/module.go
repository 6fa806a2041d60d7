// Package quotes implements the multi-venue quote engine bounded context.
package quotes

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	discoveryDI "github.com/flasharb/flasharb-bot/business/discovery/di"
	discoveryChain "github.com/flasharb/flasharb-bot/business/discovery/infra/chain"
	"github.com/flasharb/flasharb-bot/business/quotes/app"
	quotesDI "github.com/flasharb/flasharb-bot/business/quotes/di"
	"github.com/flasharb/flasharb-bot/business/quotes/infra/aggregator"
	"github.com/flasharb/flasharb-bot/business/quotes/infra/stablecl"
	"github.com/flasharb/flasharb-bot/business/quotes/infra/univ2"
	"github.com/flasharb/flasharb-bot/business/quotes/infra/univ3"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// Quoter contract addresses on Base.
var (
	uniswapV3Quoter  = common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a")
	sushiV3Quoter    = common.HexToAddress("0xb1E835Dc2785b52265711e17fCCb0fd018226a6e")
	slipstreamQuoter = common.HexToAddress("0x254cF9E1E6e233aa1AC962CB9B05b2cfeAaE15b0")
)

// Module wires the quotes context.
type Module struct{}

// RegisterServices has nothing to pre-register; the engine needs the
// catalog, which exists only after the discovery module starts.
func (m *Module) RegisterServices(di.Container) error {
	return nil
}

// Startup builds the venue adapters and the quote engine.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	client := mono.EthClient()

	catalog := discoveryDI.GetCatalog(mono.Services())
	liquidity := discoveryChain.NewLiquidityAdapter(discoveryChain.NewStateReader(client))

	uniQuoter, err := univ3.NewQuoter(client, univ3.Config{
		VenueID:   "uniswap-v3",
		VenueName: "Uniswap V3",
		Quoter:    uniswapV3Quoter,
		FeeTiers:  univ3.DefaultFeeTiers,
	}, log)
	if err != nil {
		return err
	}

	sushiQuoter, err := univ3.NewQuoter(client, univ3.Config{
		VenueID:   "sushiswap-v3",
		VenueName: "SushiSwap V3",
		Quoter:    sushiV3Quoter,
		FeeTiers:  univ3.DefaultFeeTiers,
	}, log)
	if err != nil {
		return err
	}

	slipQuoter, err := stablecl.NewQuoter(client, stablecl.Config{
		VenueID:      "aerodrome-slipstream",
		VenueName:    "Aerodrome Slipstream",
		Quoter:       slipstreamQuoter,
		TickSpacings: []int64{1, 50, 100, 200, 2000},
	}, log)
	if err != nil {
		return err
	}

	adapters := []app.Adapter{
		uniQuoter,
		sushiQuoter,
		slipQuoter,
		univ2.NewAdapter("baseswap", "BaseSwap", 30, catalog, liquidity, log),
		// Classic Aerodrome pools are Solidly forks: getReserves() plus a
		// stable flag. Volatile (30 bp) pools price by constant product;
		// stable-curve pools are out of the adapter's reach and skipped.
		univ2.NewAdapter("aerodrome", "Aerodrome", 30, catalog, liquidity, log),
	}

	if cfg.Trading.AggregatorKey != "" {
		adapters = append(adapters, aggregator.NewClient(aggregator.Config{
			BaseURL: cfg.Trading.AggregatorURL,
			APIKey:  cfg.Trading.AggregatorKey,
			ChainID: cfg.Chain.ChainID,
		}, log))
	}

	engine, err := app.NewEngine(adapters, cfg.Trading.QuotePoolSize, log)
	if err != nil {
		return err
	}

	mono.Container().Register(quotesDI.Engine, engine)
	return nil
}
