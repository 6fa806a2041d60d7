// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	arbitrageApp "github.com/flasharb/flasharb-bot/business/arbitrage/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the arbitrage module.
const (
	Searcher   = "arbitrage.Searcher"
	Calculator = "arbitrage.Calculator"
)

// GetSearcher resolves the strategy searcher.
func GetSearcher(r di.ServiceRegistry) *arbitrageApp.Searcher {
	return di.MustGet[*arbitrageApp.Searcher](r, Searcher)
}
