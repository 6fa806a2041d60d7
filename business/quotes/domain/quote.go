// Package domain contains the core domain types for the quote engine.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Quote is one venue-stamped exact-input quote.
type Quote struct {
	VenueID          string
	VenueName        string
	TokenIn          common.Address
	TokenOut         common.Address
	AmountIn         *big.Int
	AmountOut        *big.Int
	FeeOrTickSpacing int64
	GasEstimate      uint64
	// ExtraData rides through to the execution encoding: aggregator
	// calldata, or venue-specific routing hints.
	ExtraData []byte
}

// BetterThan reports whether q yields more output than other.
func (q *Quote) BetterThan(other *Quote) bool {
	if other == nil {
		return true
	}
	return q.AmountOut.Cmp(other.AmountOut) > 0
}

// SameVenueAndTier reports whether two quotes share (venue, fee tier).
// Opposing legs on the identical pool cannot both win.
func (q *Quote) SameVenueAndTier(other *Quote) bool {
	return other != nil && q.VenueID == other.VenueID && q.FeeOrTickSpacing == other.FeeOrTickSpacing
}
