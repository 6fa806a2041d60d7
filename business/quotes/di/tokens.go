// Package di contains dependency injection tokens for the quotes context.
package di

import (
	quotesApp "github.com/flasharb/flasharb-bot/business/quotes/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the quotes module.
const (
	Engine = "quotes.Engine"
)

// GetEngine resolves the quote engine.
func GetEngine(r di.ServiceRegistry) *quotesApp.Engine {
	return di.MustGet[*quotesApp.Engine](r, Engine)
}
