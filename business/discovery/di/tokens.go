// Package di contains dependency injection tokens for the discovery context.
package di

import (
	discoveryApp "github.com/flasharb/flasharb-bot/business/discovery/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the discovery module.
const (
	Service = "discovery.Service"
	Catalog = "discovery.Catalog"
)

// GetService resolves the discovery service.
func GetService(r di.ServiceRegistry) *discoveryApp.Service {
	return di.MustGet[*discoveryApp.Service](r, Service)
}

// GetCatalog resolves the pool catalog.
func GetCatalog(r di.ServiceRegistry) *discoveryApp.Catalog {
	return di.MustGet[*discoveryApp.Catalog](r, Catalog)
}
