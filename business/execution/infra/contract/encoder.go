// Package contract encodes calls to the on-chain atomic executor.
package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	arbitrageDomain "github.com/flasharb/flasharb-bot/business/arbitrage/domain"
)

// executorABI is the engine-facing surface of the atomic executor.
const executorABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "params", "type": "bytes"}
		],
		"name": "executeArbitrage",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "paused",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// legTuple is the contract-side leg layout.
type legTuple struct {
	VenueID      string         `abi:"venueId"`
	TokenIn      common.Address `abi:"tokenIn"`
	TokenOut     common.Address `abi:"tokenOut"`
	AmountIn     *big.Int       `abi:"amountIn"`
	AmountOutMin *big.Int       `abi:"amountOutMin"`
	ExtraData    []byte         `abi:"extraData"`
}

// policyTuple is the contract-side policy block.
type policyTuple struct {
	MinProfitAmount *big.Int `abi:"minProfitAmount"`
	UseBalanceDiff  bool     `abi:"useBalanceDiff"`
}

// Encoder packs the engine's leg plan into the executor's calldata.
type Encoder struct {
	executor abi.ABI
	legsArgs abi.Arguments
}

// NewEncoder creates an Encoder.
func NewEncoder() (*Encoder, error) {
	parsed, err := abi.JSON(strings.NewReader(executorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse executor ABI: %w", err)
	}

	legType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "venueId", Type: "string"},
		{Name: "tokenIn", Type: "address"},
		{Name: "tokenOut", Type: "address"},
		{Name: "amountIn", Type: "uint256"},
		{Name: "amountOutMin", Type: "uint256"},
		{Name: "extraData", Type: "bytes"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build leg type: %w", err)
	}
	policyType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "minProfitAmount", Type: "uint256"},
		{Name: "useBalanceDiff", Type: "bool"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build policy type: %w", err)
	}

	return &Encoder{
		executor: parsed,
		legsArgs: abi.Arguments{{Type: legType}, {Type: policyType}},
	}, nil
}

// EncodeParams serializes the legs and policy as the single opaque
// bytes argument the executor decodes on-chain. The engine guarantees
// at least one leg, leg 0 entering in the borrow asset and the final
// leg exiting back into it.
func (e *Encoder) EncodeParams(opp *arbitrageDomain.Opportunity, minProfit *big.Int) ([]byte, error) {
	if len(opp.Legs) == 0 {
		return nil, fmt.Errorf("no legs")
	}
	if opp.Legs[0].TokenIn != opp.BorrowAsset {
		return nil, fmt.Errorf("leg 0 must enter in the borrow asset")
	}
	if opp.FinalLeg().TokenOut != opp.BorrowAsset {
		return nil, fmt.Errorf("final leg must exit into the borrow asset")
	}

	legs := make([]legTuple, len(opp.Legs))
	for i, l := range opp.Legs {
		amountIn := l.AmountIn
		if amountIn == nil {
			// Balance-consuming marker: the contract substitutes the
			// running balance of tokenIn.
			amountIn = new(big.Int)
		}
		legs[i] = legTuple{
			VenueID:      l.VenueID,
			TokenIn:      l.TokenIn,
			TokenOut:     l.TokenOut,
			AmountIn:     amountIn,
			AmountOutMin: l.AmountOutMin,
			ExtraData:    l.ExtraData,
		}
	}

	return e.legsArgs.Pack(legs, policyTuple{
		MinProfitAmount: minProfit,
		UseBalanceDiff:  true,
	})
}

// EncodeExecute packs the outer executeArbitrage call.
func (e *Encoder) EncodeExecute(opp *arbitrageDomain.Opportunity, minProfit *big.Int) ([]byte, error) {
	params, err := e.EncodeParams(opp, minProfit)
	if err != nil {
		return nil, err
	}
	return e.executor.Pack("executeArbitrage", opp.BorrowAsset, opp.BorrowAmount, params)
}

// EncodePaused packs the paused() probe.
func (e *Encoder) EncodePaused() ([]byte, error) {
	return e.executor.Pack("paused")
}

// DecodePaused decodes the paused() response.
func (e *Encoder) DecodePaused(data []byte) (bool, error) {
	vals, err := e.executor.Unpack("paused", data)
	if err != nil || len(vals) < 1 {
		return false, fmt.Errorf("paused decode: %w", err)
	}
	paused, ok := vals[0].(bool)
	if !ok {
		return false, fmt.Errorf("paused type %T", vals[0])
	}
	return paused, nil
}
