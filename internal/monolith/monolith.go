// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flasharb/flasharb-bot/internal/config"
	"github.com/flasharb/flasharb-bot/internal/di"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/token"
)

// Monolith is the application container providing shared infrastructure
// to every module.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	BackupClient() *ethclient.Client
	TokenRegistry() *token.Registry
	Services() di.ServiceRegistry
	Container() di.Container
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	ethClient *ethclient.Client
	backup    *ethclient.Client
	tokens    *token.Registry
	container di.Container
}

// New creates a Monolith. The primary RPC client must dial; the backup
// endpoint is optional and best-effort.
func New(cfg *config.Config, log logger.LoggerInterface, tokens *token.Registry) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Chain.HTTPURL)
	if err != nil {
		return nil, err
	}

	var backup *ethclient.Client
	if cfg.Chain.BackupURL != "" {
		backup, err = ethclient.Dial(cfg.Chain.BackupURL)
		if err != nil {
			log.Warn(context.Background(), "backup rpc dial failed", "error", err)
			backup = nil
		}
	}

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("tokenRegistry", tokens)

	return &app{
		config:    cfg,
		logger:    log,
		ethClient: ethClient,
		backup:    backup,
		tokens:    tokens,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config          { return a.config }
func (a *app) Logger() logger.LoggerInterface  { return a.logger }
func (a *app) EthClient() *ethclient.Client    { return a.ethClient }
func (a *app) BackupClient() *ethclient.Client { return a.backup }
func (a *app) TokenRegistry() *token.Registry  { return a.tokens }
func (a *app) Services() di.ServiceRegistry    { return a.container }
func (a *app) Container() di.Container         { return a.container }

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all shared resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	if a.backup != nil {
		a.backup.Close()
	}
	return nil
}
