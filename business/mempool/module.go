// Package mempool implements the mempool observer bounded context.
package mempool

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/mempool/app"
	mempoolDI "github.com/flasharb/flasharb-bot/business/mempool/di"
	"github.com/flasharb/flasharb-bot/business/mempool/infra/rpcws"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// Module wires the mempool context. The observer is strictly advisory:
// a missing push endpoint disables it without failing startup.
type Module struct{}

// RegisterServices has nothing to pre-register.
func (m *Module) RegisterServices(di.Container) error {
	return nil
}

// Startup connects the observer when a push endpoint is configured.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	if cfg.Chain.PushURL == "" {
		log.Info(ctx, "no push endpoint configured, mempool observer disabled")
		return nil
	}

	sub := rpcws.NewSubscriber(cfg.Chain.PushURL, log)
	observer, err := app.NewObserver(sub, app.NewHeuristics(mono.TokenRegistry()), mono.TokenRegistry(), log)
	if err != nil {
		return err
	}

	if err := observer.Start(ctx); err != nil {
		// Advisory subsystem: log and continue without the signal.
		log.Warn(ctx, "mempool observer failed to start, continuing without it", "error", err)
		return nil
	}

	mono.Container().Register(mempoolDI.Observer, observer)
	return nil
}
