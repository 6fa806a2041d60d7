// Package di contains dependency injection tokens for the execution context.
package di

import (
	executionApp "github.com/flasharb/flasharb-bot/business/execution/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the execution module.
const (
	Pipeline = "execution.Pipeline"
)

// GetPipeline resolves the execution pipeline.
func GetPipeline(r di.ServiceRegistry) *executionApp.Pipeline {
	return di.MustGet[*executionApp.Pipeline](r, Pipeline)
}
