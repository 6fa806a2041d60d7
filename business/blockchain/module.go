// Package blockchain implements the blockchain bounded context: head
// subscription, the EIP-1559 gas oracle and the USD anchor price feed.
package blockchain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/blockchain/app"
	blockchainDI "github.com/flasharb/flasharb-bot/business/blockchain/di"
	"github.com/flasharb/flasharb-bot/business/blockchain/infra/ethereum"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
	"github.com/flasharb/flasharb-bot/internal/wsconn"
)

// priceRefreshInterval paces USD anchor refreshes.
const priceRefreshInterval = 30 * time.Second

// Module wires the blockchain context.
type Module struct{}

// RegisterServices registers the gas oracle.
func (m *Module) RegisterServices(c di.Container) error {
	c.Register(blockchainDI.GasOracle, app.NewGasOracle())
	return nil
}

// Startup connects the head subscription, feeds the oracle and starts
// the price refresh loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	// Head polling falls back to the backup endpoint when one is
	// configured, keeping the primary free for quoting traffic.
	pollClient := mono.BackupClient()
	if pollClient == nil {
		pollClient = mono.EthClient()
	}

	heads, err := ethereum.NewHeadSubscriber(
		ethereum.DefaultHeadSubscriberConfig(
			wsconn.NormalizeURL(cfg.Chain.PushURL),
			cfg.Chain.HTTPURL,
		),
		pollClient,
		log,
	)
	if err != nil {
		return err
	}
	mono.Container().Register(blockchainDI.HeadSource, heads)

	fees, err := heads.Subscribe(ctx)
	if err != nil {
		return err
	}

	oracle := blockchainDI.GetGasOracle(mono.Services())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-fees:
				oracle.Observe(f)
			}
		}
	}()

	feed, err := ethereum.NewPriceFeed(mono.EthClient(), log)
	if err != nil {
		return err
	}

	refresh := func() {
		ethUSD, btcUSD, err := feed.Prices(ctx)
		if err != nil {
			log.Warn(ctx, "anchor price refresh failed", "error", err)
			return
		}
		mono.TokenRegistry().UpdatePrices(
			decimal.NewFromFloat(ethUSD),
			decimal.NewFromFloat(btcUSD),
		)
		log.Debug(ctx, "anchor prices updated", "eth_usd", ethUSD, "btc_usd", btcUSD)
	}
	refresh()

	go func() {
		ticker := time.NewTicker(priceRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	return nil
}
