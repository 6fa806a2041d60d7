// Package domain contains the event types published by the mempool observer.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapMethod names the decoded router entry point.
type SwapMethod string

const (
	MethodV2SwapExactTokens    SwapMethod = "swapExactTokensForTokens"
	MethodV2SwapExactTokensFee SwapMethod = "swapExactTokensForTokensSupportingFeeOnTransferTokens"
	MethodV3ExactInputSingle   SwapMethod = "exactInputSingle"
	MethodV3ExactInput         SwapMethod = "exactInput"
)

// PendingSwap is one decoded pending router transaction.
type PendingSwap struct {
	TxHash   common.Hash
	From     common.Address
	Router   common.Address
	Method   SwapMethod
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int
	// CalldataPrefix is the first bytes of input data, kept for
	// sandwich pattern matching.
	CalldataPrefix []byte
	SeenMs         int64
}

// PoolUpdate is one pool-level Swap/Sync event notification.
type PoolUpdate struct {
	Pool        common.Address
	Topic       common.Hash
	BlockNumber uint64
	SeenMs      int64
}

// Recommendation is the advisory bidding signal consumed by execution.
type Recommendation struct {
	UsePrivateRelay        bool
	RaiseSlippage          bool
	RecommendedSlippageBps int64
	UseFlashbots           bool
}
