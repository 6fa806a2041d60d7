// Package univ2 implements the off-chain quote adapter for
// constant-product venues.
package univ2

import "math/big"

const feeDenominator = 10_000

// AmountOut computes the constant-product output for amountIn against
// (reserveIn, reserveOut) with feeBps out of 10000:
//
//	out = (in × (10000−fee) × reserveOut) / (reserveIn × 10000 + in × (10000−fee))
func AmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps int64) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return new(big.Int)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	if feeBps < 0 || feeBps >= feeDenominator {
		return new(big.Int)
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(feeDenominator-feeBps))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(feeDenominator))
	denominator.Add(denominator, inWithFee)

	return numerator.Div(numerator, denominator)
}
