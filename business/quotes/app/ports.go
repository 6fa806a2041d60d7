// Package app contains the quote engine and its port definitions.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb/flasharb-bot/business/quotes/domain"
)

// Adapter quotes swaps on one venue. Implementations probe their own
// fee-tier or tick-spacing sets and return every non-zero outcome.
// A venue that cannot serve the pair returns (nil, nil).
type Adapter interface {
	VenueID() string
	Quotes(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*domain.Quote, error)
}

// FirmQuoter is implemented by adapters that can upgrade an indicative
// quote to a firm one carrying execution calldata.
type FirmQuoter interface {
	FirmQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*domain.Quote, error)
}
