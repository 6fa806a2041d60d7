// Package di contains dependency injection tokens for the engine context.
package di

import (
	engineApp "github.com/flasharb/flasharb-bot/business/engine/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the engine module.
const (
	Engine = "engine.Engine"
	Stats  = "engine.Stats"
)

// GetEngine resolves the orchestrator.
func GetEngine(r di.ServiceRegistry) *engineApp.Engine {
	return di.MustGet[*engineApp.Engine](r, Engine)
}

// GetStats resolves the engine counters.
func GetStats(r di.ServiceRegistry) *engineApp.Stats {
	return di.MustGet[*engineApp.Stats](r, Stats)
}
