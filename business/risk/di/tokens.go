// Package di contains dependency injection tokens for the risk context.
package di

import (
	riskApp "github.com/flasharb/flasharb-bot/business/risk/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the risk module.
const (
	Controller = "risk.Controller"
)

// GetController resolves the risk controller.
func GetController(r di.ServiceRegistry) *riskApp.Controller {
	return di.MustGet[*riskApp.Controller](r, Controller)
}
