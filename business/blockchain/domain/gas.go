// Package domain contains the core domain types for the blockchain context.
package domain

import "math/big"

var gweiWei = big.NewInt(1_000_000_000)

// GasPrice is one EIP-1559 fee proposal.
type GasPrice struct {
	BaseFee     *big.Int // wei
	PriorityFee *big.Int // wei
	MaxFee      *big.Int // baseFee + priorityFee, wei
}

// NewGasPrice builds a GasPrice from base and priority fees.
func NewGasPrice(baseFee, priorityFee *big.Int) *GasPrice {
	return &GasPrice{
		BaseFee:     new(big.Int).Set(baseFee),
		PriorityFee: new(big.Int).Set(priorityFee),
		MaxFee:      new(big.Int).Add(baseFee, priorityFee),
	}
}

// MaxFeeGwei returns the max fee in gwei for display and ceilings.
func (g *GasPrice) MaxFeeGwei() float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(g.MaxFee),
		new(big.Float).SetInt(gweiWei),
	).Float64()
	return f
}

// GasParams is the full transaction fee proposal.
type GasParams struct {
	MaxFee      *big.Int
	PriorityFee *big.Int
	GasLimit    uint64
}

// BlockFees is the per-block observation the oracle tracks.
type BlockFees struct {
	Number   uint64
	BaseFee  *big.Int
	GasUsed  uint64
	GasLimit uint64
}

// Gwei converts a gwei count to wei.
func Gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), gweiWei)
}
