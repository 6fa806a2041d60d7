// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	blockchainApp "github.com/flasharb/flasharb-bot/business/blockchain/app"
	"github.com/flasharb/flasharb-bot/internal/di"
)

// DI tokens for the blockchain module.
const (
	GasOracle  = "blockchain.GasOracle"
	HeadSource = "blockchain.HeadSource"
)

// GetGasOracle resolves the gas oracle.
func GetGasOracle(r di.ServiceRegistry) *blockchainApp.GasOracle {
	return di.MustGet[*blockchainApp.GasOracle](r, GasOracle)
}

// GetHeadSource resolves the head subscription.
func GetHeadSource(r di.ServiceRegistry) blockchainApp.HeadSource {
	return di.MustGet[blockchainApp.HeadSource](r, HeadSource)
}
