// Package discovery implements the pool discovery bounded context: the
// factory crawler, the liquidity refresher, the persisted catalog and
// the derived trade graph.
package discovery

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/discovery/app"
	discoveryDI "github.com/flasharb/flasharb-bot/business/discovery/di"
	"github.com/flasharb/flasharb-bot/business/discovery/infra/chain"
	"github.com/flasharb/flasharb-bot/business/discovery/infra/snapshot"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// Module wires the discovery context.
type Module struct{}

// RegisterServices registers the catalog so other modules can read it.
func (m *Module) RegisterServices(c di.Container) error {
	c.Register(discoveryDI.Catalog, app.NewCatalog())
	return nil
}

// Startup builds the infra adapters and starts the discovery service.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	crawler, err := chain.NewCrawler(mono.EthClient(), cfg.Discovery.ScanChunkSize, log)
	if err != nil {
		return err
	}

	catalog := discoveryDI.GetCatalog(mono.Services())
	store := snapshot.NewStore(cfg.Discovery.SnapshotPath, cfg.Discovery.SnapshotMaxAge, log)

	svc := app.NewService(
		catalog,
		chain.NewFactorySource(crawler),
		chain.NewLiquidityAdapter(chain.NewStateReader(mono.EthClient())),
		store,
		mono.TokenRegistry(),
		cfg.Discovery,
		log,
	)

	mono.Container().Register(discoveryDI.Service, svc)
	return svc.Start(ctx)
}
