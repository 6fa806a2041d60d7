package domain

import (
	"math/big"

	"github.com/flasharb/flasharb-bot/internal/token"
)

// exp10 returns 10^n.
func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func scaled(units []int64, decimals uint8) []*big.Int {
	out := make([]*big.Int, len(units))
	base := exp10(int64(decimals))
	for i, u := range units {
		out[i] = new(big.Int).Mul(big.NewInt(u), base)
	}
	return out
}

func scaledTenths(tenths []int64, decimals uint8) []*big.Int {
	out := make([]*big.Int, len(tenths))
	base := exp10(int64(decimals) - 1)
	for i, t := range tenths {
		out[i] = new(big.Int).Mul(big.NewInt(t), base)
	}
	return out
}

// Borrow-amount unit schedules, sized per asset class. Amounts scale by
// the borrow token's own decimals.
var (
	ethUnits    = []int64{1, 5, 10, 50, 100}
	stableUnits = []int64{5_000, 25_000, 100_000, 250_000}
	btcTenths   = []int64{1, 5, 10, 50} // 0.1, 0.5, 1, 5 BTC

	// stableArbUnits is the larger sizing used by STABLE_ARB.
	stableArbUnits = []int64{10_000, 50_000, 100_000}
)

// BorrowSchedule returns the borrow amounts for one token. Unpriced
// classes get no schedule and produce no candidates.
func BorrowSchedule(class token.Class, decimals uint8) []*big.Int {
	switch class {
	case token.ClassETH:
		return scaled(ethUnits, decimals)
	case token.ClassBTC:
		return scaledTenths(btcTenths, decimals)
	case token.ClassUSD, token.ClassEUR:
		return scaled(stableUnits, decimals)
	default:
		return nil
	}
}

// StableArbSchedule returns the larger stable-pair sizing.
func StableArbSchedule(decimals uint8) []*big.Int {
	return scaled(stableArbUnits, decimals)
}
