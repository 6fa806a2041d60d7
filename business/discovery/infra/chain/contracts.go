// Package chain implements the on-chain adapters for pool discovery.
package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Minimal ABIs for the pool state reads used by the liquidity refresher.
const poolStateABI = `[
	{
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "liquidity",
		"outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "slot0",
		"outputs": [
			{"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
			{"internalType": "int24", "name": "tick", "type": "int24"},
			{"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
			{"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
			{"internalType": "bool", "name": "unlocked", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

const erc20ABI = `[
	{
		"inputs": [],
		"name": "symbol",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Factory event signatures. The four supported creation schemas differ
// in which fields are indexed and what rides in the data segment.
var (
	// PoolCreated(address indexed, address indexed, uint24 indexed, int24, address)
	topicV3PoolCreated = crypto.Keccak256Hash([]byte("PoolCreated(address,address,uint24,int24,address)"))

	// PairCreated(address indexed, address indexed, address, uint256)
	topicV2PairCreated = crypto.Keccak256Hash([]byte("PairCreated(address,address,address,uint256)"))

	// PoolCreated(address indexed, address indexed, bool indexed, address, uint256)
	topicStablePoolCreated = crypto.Keccak256Hash([]byte("PoolCreated(address,address,bool,address,uint256)"))

	// PoolCreated(address indexed, address indexed, int24 indexed, address)
	topicTickPoolCreated = crypto.Keccak256Hash([]byte("PoolCreated(address,address,int24,address)"))
)

var (
	poolABI     abi.ABI
	tokenABI    abi.ABI
	addrUintAbi abi.Arguments // (address, uint256) data segments
	intAddrAbi  abi.Arguments // (int24, address) data segments
	addrOnlyAbi abi.Arguments // (address) data segments
)

func init() {
	var err error
	poolABI, err = abi.JSON(strings.NewReader(poolStateABI))
	if err != nil {
		panic(err)
	}
	tokenABI, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(err)
	}

	addressTy, _ := abi.NewType("address", "", nil)
	uint256Ty, _ := abi.NewType("uint256", "", nil)
	int24Ty, _ := abi.NewType("int24", "", nil)

	addrUintAbi = abi.Arguments{{Type: addressTy}, {Type: uint256Ty}}
	intAddrAbi = abi.Arguments{{Type: int24Ty}, {Type: addressTy}}
	addrOnlyAbi = abi.Arguments{{Type: addressTy}}
}

// topicAddress extracts an address from an indexed topic.
func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes()[12:])
}
