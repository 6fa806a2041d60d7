// Package app contains the mempool observer, the router calldata
// decoder and the MEV heuristics.
package app

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/flasharb/flasharb-bot/business/mempool/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
)

// Known swap routers on Base.
var KnownRouters = map[common.Address]string{
	common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481"): "uniswap-v3-router",
	common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"): "uniswap-v2-router",
	common.HexToAddress("0xcF77a3Ba9A5CA399B7c97c74d54e5b1Beb874E43"): "aerodrome-router",
	common.HexToAddress("0x6BDED42c6DA8FBf0d2bA55B2fa120C5e0c8D7891"): "sushiswap-router",
}

const routerABIJSON = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokensSupportingFeeOnTransferTokens",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct ISwapRouter.ExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactInputSingle",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{
				"components": [
					{"internalType": "bytes", "name": "path", "type": "bytes"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"}
				],
				"internalType": "struct ISwapRouter.ExactInputParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactInput",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	}
]`

var routerABI abi.ABI

func init() {
	var err error
	routerABI, err = abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic(err)
	}
}

// calldataPrefixLen bounds the bytes kept for sandwich matching.
const calldataPrefixLen = 68

// DecodeSwap decodes router calldata into a PendingSwap. Unknown
// selectors and malformed payloads return an error; the caller drops
// the transaction.
func DecodeSwap(from, router common.Address, txHash common.Hash, input []byte, seenMs int64) (*domain.PendingSwap, error) {
	if len(input) < 4 {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("short calldata"))
	}

	method, err := routerABI.MethodById(input[:4])
	if err != nil {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithCause(err))
	}

	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithCause(err))
	}

	swap := &domain.PendingSwap{
		TxHash:         txHash,
		From:           from,
		Router:         router,
		CalldataPrefix: prefix(input),
		SeenMs:         seenMs,
	}

	switch method.Name {
	case "swapExactTokensForTokens", "swapExactTokensForTokensSupportingFeeOnTransferTokens":
		if len(args) < 3 {
			return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("short v2 args"))
		}
		amountIn, _ := args[0].(*big.Int)
		path, _ := args[2].([]common.Address)
		if len(path) < 2 {
			return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("short v2 path"))
		}
		swap.Method = domain.MethodV2SwapExactTokens
		if method.Name != "swapExactTokensForTokens" {
			swap.Method = domain.MethodV2SwapExactTokensFee
		}
		swap.TokenIn = path[0]
		swap.TokenOut = path[len(path)-1]
		swap.AmountIn = amountIn

	case "exactInputSingle":
		params, err := singleParams(args)
		if err != nil {
			return nil, err
		}
		swap.Method = domain.MethodV3ExactInputSingle
		swap.TokenIn = params.tokenIn
		swap.TokenOut = params.tokenOut
		swap.AmountIn = params.amountIn

	case "exactInput":
		tokenIn, tokenOut, amountIn, err := pathParams(args)
		if err != nil {
			return nil, err
		}
		swap.Method = domain.MethodV3ExactInput
		swap.TokenIn = tokenIn
		swap.TokenOut = tokenOut
		swap.AmountIn = amountIn

	default:
		return nil, apperror.New(apperror.CodeDecodeFailed,
			apperror.WithContext(fmt.Sprintf("unhandled method %s", method.Name)))
	}

	return swap, nil
}

type exactSingle struct {
	tokenIn  common.Address
	tokenOut common.Address
	amountIn *big.Int
}

func singleParams(args []any) (*exactSingle, error) {
	if len(args) < 1 {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("missing tuple"))
	}
	tuple, ok := args[0].(struct {
		TokenIn           common.Address `json:"tokenIn"`
		TokenOut          common.Address `json:"tokenOut"`
		Fee               *big.Int       `json:"fee"`
		Recipient         common.Address `json:"recipient"`
		AmountIn          *big.Int       `json:"amountIn"`
		AmountOutMinimum  *big.Int       `json:"amountOutMinimum"`
		SqrtPriceLimitX96 *big.Int       `json:"sqrtPriceLimitX96"`
	})
	if !ok {
		return nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("unexpected tuple shape"))
	}
	return &exactSingle{tokenIn: tuple.TokenIn, tokenOut: tuple.TokenOut, amountIn: tuple.AmountIn}, nil
}

func pathParams(args []any) (common.Address, common.Address, *big.Int, error) {
	var zero common.Address
	if len(args) < 1 {
		return zero, zero, nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("missing tuple"))
	}
	tuple, ok := args[0].(struct {
		Path             []byte         `json:"path"`
		Recipient        common.Address `json:"recipient"`
		AmountIn         *big.Int       `json:"amountIn"`
		AmountOutMinimum *big.Int       `json:"amountOutMinimum"`
	})
	if !ok {
		return zero, zero, nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("unexpected tuple shape"))
	}

	// v3 packed path: token(20) ++ fee(3) ++ token(20) [++ fee ++ token...]
	const tokenLen, feeLen = 20, 3
	if len(tuple.Path) < tokenLen*2+feeLen {
		return zero, zero, nil, apperror.New(apperror.CodeDecodeFailed, apperror.WithContext("short v3 path"))
	}
	tokenIn := common.BytesToAddress(tuple.Path[:tokenLen])
	tokenOut := common.BytesToAddress(tuple.Path[len(tuple.Path)-tokenLen:])
	return tokenIn, tokenOut, tuple.AmountIn, nil
}

func prefix(input []byte) []byte {
	n := calldataPrefixLen
	if len(input) < n {
		n = len(input)
	}
	out := make([]byte, n)
	copy(out, input[:n])
	return out
}

// ParseHexBig parses a 0x-prefixed quantity, tolerating empty strings.
func ParseHexBig(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return new(big.Int)
	}
	return v
}
