package app

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

// q96 is 2^96, the fixed-point scale of sqrtPriceX96.
var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// ValueUSD converts a raw token amount to USD; zero for unpriced tokens.
type ValueUSD func(addr common.Address, amount *big.Int) decimal.Decimal

// EstimateUSD computes a pool's TVL estimate in USD from one liquidity
// read. Wei-level arithmetic stays integral; floating point appears only
// in the final USD conversion.
func EstimateUSD(pool *domain.Pool, state *PoolLiquidity, value ValueUSD) decimal.Decimal {
	if state == nil {
		return decimal.Zero
	}

	if pool.IsReserveBased() {
		if state.Reserve0 == nil || state.Reserve1 == nil {
			return decimal.Zero
		}
		return clampUSD(value(pool.Token0, state.Reserve0).Add(value(pool.Token1, state.Reserve1)))
	}

	if state.Liquidity == nil || state.SqrtPriceX96 == nil || state.Liquidity.Sign() == 0 || state.SqrtPriceX96.Sign() == 0 {
		return decimal.Zero
	}

	// Reconstruct approximate one-sided token amounts from L and √P:
	// amount0 ≈ L / √P, amount1 ≈ L × √P (raw units).
	liq := new(big.Float).SetInt(state.Liquidity)
	sqrtP := new(big.Float).Quo(new(big.Float).SetInt(state.SqrtPriceX96), q96)

	amount0, _ := new(big.Float).Quo(liq, sqrtP).Int(nil)
	amount1, _ := new(big.Float).Mul(liq, sqrtP).Int(nil)

	// Symmetric-side assumption: double the side we can price.
	if usd := value(pool.Token0, amount0); usd.IsPositive() {
		return clampUSD(usd.Mul(decimal.NewFromInt(2)))
	}
	if usd := value(pool.Token1, amount1); usd.IsPositive() {
		return clampUSD(usd.Mul(decimal.NewFromInt(2)))
	}

	// Neither side is priced. Degenerate estimate so the pool is not
	// silently excluded; crude, and intentionally so.
	degenerate := new(big.Float).Mul(liq, big.NewFloat(1000))
	f, _ := degenerate.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return clampUSD(decimal.NewFromFloat(f))
}

func clampUSD(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
