// Package execution implements the execution pipeline bounded context.
package execution

import (
	"context"

	blockchainDI "github.com/flasharb/flasharb-bot/business/blockchain/di"
	"github.com/flasharb/flasharb-bot/business/execution/app"
	executionDI "github.com/flasharb/flasharb-bot/business/execution/di"
	"github.com/flasharb/flasharb-bot/business/execution/infra/contract"
	"github.com/flasharb/flasharb-bot/business/execution/infra/relay"
	mempoolApp "github.com/flasharb/flasharb-bot/business/mempool/app"
	mempoolDI "github.com/flasharb/flasharb-bot/business/mempool/di"
	riskDI "github.com/flasharb/flasharb-bot/business/risk/di"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/monolith"
)

// observerAdvisor adapts the mempool observer to the pipeline's
// advisory port.
type observerAdvisor struct {
	observer        *mempoolApp.Observer
	baseSlippageBps int64
}

func (a *observerAdvisor) RecommendPrivate() bool {
	if a.observer == nil {
		return false
	}
	return a.observer.Recommend(a.baseSlippageBps).UsePrivateRelay
}

// Module wires the execution context.
type Module struct{}

// RegisterServices has nothing to pre-register.
func (m *Module) RegisterServices(di.Container) error {
	return nil
}

// Startup builds the signer, encoder, relay client and pipeline.
// Signer misconfiguration is fatal for the process.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	signer, err := relay.NewSigner(cfg.Signer.Key, cfg.Chain.ChainID)
	if err != nil {
		return err
	}

	encoder, err := contract.NewEncoder()
	if err != nil {
		return err
	}

	var relayClient *relay.Client
	if cfg.Relay.Enabled && cfg.Relay.URL != "" {
		relayClient, err = relay.NewClient(ctx, cfg.Relay.URL, log)
		if err != nil {
			// Relay is an optimization; the public path still works.
			log.Warn(ctx, "private relay unavailable, public submission only", "error", err)
			relayClient = nil
		}
	}

	advisor := &observerAdvisor{
		observer:        mempoolDI.GetObserver(mono.Services()),
		baseSlippageBps: cfg.Trading.SlippageBps,
	}

	pipeline, err := app.NewPipeline(
		mono.EthClient(),
		signer,
		encoder,
		relayClient,
		blockchainDI.GetGasOracle(mono.Services()),
		mono.TokenRegistry(),
		riskDI.GetController(mono.Services()),
		advisor,
		*cfg,
		log,
	)
	if err != nil {
		return err
	}

	mono.Container().Register(executionDI.Pipeline, pipeline)
	log.Info(ctx, "execution pipeline ready",
		"signer", signer.Address().Hex(),
		"contract", cfg.Signer.ContractAddress,
		"private_relay", relayClient != nil,
	)
	return nil
}
