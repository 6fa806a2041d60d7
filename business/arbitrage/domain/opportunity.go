// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// StrategyKind names the strategy family that produced an opportunity.
type StrategyKind string

const (
	StrategyDirect     StrategyKind = "DIRECT_ARB"
	StrategyTriangular StrategyKind = "TRIANGULAR_ARB"
	StrategyLST        StrategyKind = "LST_ARB"
	StrategyStable     StrategyKind = "STABLE_ARB"
	StrategyZeroX      StrategyKind = "ZEROX_ARB"
	StrategyDynamic    StrategyKind = "DYNAMIC_ARB"
)

// SwapLeg is one hop of the atomic trade. A nil AmountIn on legs after
// the first means "use the running balance of TokenIn at execution
// time"; the on-chain contract resolves it.
type SwapLeg struct {
	VenueID           string
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	ExpectedAmountOut *big.Int
	AmountOutMin      *big.Int
	FeeOrTickSpacing  int64
	ExtraData         []byte
}

// UsesBalance reports whether this leg consumes the running balance.
func (l *SwapLeg) UsesBalance() bool {
	return l.AmountIn == nil
}

// Opportunity is one fully accounted arbitrage candidate. Opportunities
// are owned by the cycle that produced them and consumed by the
// execution pipeline.
type Opportunity struct {
	Kind           StrategyKind
	Pair           string // e.g. "WETH/USDC", for logs and records
	BorrowAsset    common.Address
	BorrowAmount   *big.Int
	Legs           []*SwapLeg
	ExpectedProfit *big.Int // in borrow asset units, net of flash fee
	ProfitBps      int64
	ProfitUSD      decimal.Decimal
	GasEstimate    uint64
	GasCostUSD     decimal.Decimal
	NetProfitUSD   decimal.Decimal
	CreatedMs      int64
}

// FinalLeg returns the last leg.
func (o *Opportunity) FinalLeg() *SwapLeg {
	if len(o.Legs) == 0 {
		return nil
	}
	return o.Legs[len(o.Legs)-1]
}

// AgeMs returns the opportunity age relative to nowMs.
func (o *Opportunity) AgeMs(nowMs int64) int64 {
	return nowMs - o.CreatedMs
}
