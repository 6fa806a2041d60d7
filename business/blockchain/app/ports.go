package app

import (
	"context"

	"github.com/flasharb/flasharb-bot/business/blockchain/domain"
)

// HeadSource streams per-block fee observations.
type HeadSource interface {
	Subscribe(ctx context.Context) (<-chan *domain.BlockFees, error)
	Close() error
}

// PriceSource reads the ETH and BTC USD anchor prices.
type PriceSource interface {
	Prices(ctx context.Context) (ethUSD, btcUSD float64, err error)
}
