// Package domain contains the core domain types for pool discovery.
package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// VenueKind tags the pricing model of a venue's pools.
type VenueKind string

const (
	VenueV2AMM      VenueKind = "v2-amm"
	VenueV3CL       VenueKind = "v3-cl"
	VenueStableCL   VenueKind = "stable-cl"
	VenueWeighted   VenueKind = "weighted"
	VenueAggregator VenueKind = "aggregator"
)

// Pool is one discovered AMM pool. The catalog owns these records; all
// other components observe them by read-only reference.
type Pool struct {
	VenueID          string
	VenueKind        VenueKind
	Address          common.Address
	Token0           common.Address
	Token1           common.Address
	Token0Symbol     string
	Token1Symbol     string
	Token0Decimals   uint8
	Token1Decimals   uint8
	FeeOrTickSpacing int64
	// Concentrated marks pools priced from liquidity + sqrtPriceX96.
	// Stable-CL venues carry both styles: Solidly-fork pools expose
	// getReserves() like a v2 pair, tick-spacing pools expose
	// liquidity()/slot0(). The factory schema decides at discovery.
	Concentrated  bool
	Liquidity     *big.Int // opaque 128-bit scalar for CL pools
	Reserve0      *big.Int // reserve-based pools only
	Reserve1      *big.Int
	LiquidityUSD  decimal.Decimal
	LastUpdatedMs int64
	Active        bool
}

// NewPool constructs a Pool with token0 < token1 enforced. Freshly
// discovered pools start inactive with zero liquidity.
func NewPool(venueID string, kind VenueKind, addr, token0, token1 common.Address, fee int64) *Pool {
	p := &Pool{
		VenueID:          venueID,
		VenueKind:        kind,
		Address:          addr,
		Token0:           token0,
		Token1:           token1,
		FeeOrTickSpacing: fee,
		Concentrated:     kind == VenueV3CL,
		Liquidity:        new(big.Int),
		Reserve0:         new(big.Int),
		Reserve1:         new(big.Int),
	}
	p.normalize()
	return p
}

// normalize orders the token pair lexicographically by address.
func (p *Pool) normalize() {
	if strings.ToLower(p.Token0.Hex()) > strings.ToLower(p.Token1.Hex()) {
		p.Token0, p.Token1 = p.Token1, p.Token0
		p.Token0Symbol, p.Token1Symbol = p.Token1Symbol, p.Token0Symbol
		p.Token0Decimals, p.Token1Decimals = p.Token1Decimals, p.Token0Decimals
	}
}

// Key returns the lowercased pool address used as the catalog key.
func (p *Pool) Key() string {
	return strings.ToLower(p.Address.Hex())
}

// IsReserveBased reports whether this pool prices from raw reserves
// (getReserves) rather than liquidity + sqrt price.
func (p *Pool) IsReserveBased() bool {
	return !p.Concentrated
}

// PairKey returns a canonical key for the unordered token pair.
func (p *Pool) PairKey() string {
	return strings.ToLower(p.Token0.Hex()) + ":" + strings.ToLower(p.Token1.Hex())
}
