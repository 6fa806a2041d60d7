package app

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb/flasharb-bot/internal/token"
)

// curatedPair is one hand-picked pair; borrow is always the first token.
type curatedPair struct {
	borrow common.Address
	other  common.Address
}

// Curated direct-arb pairs, highest-volume first.
var curatedDirect = []curatedPair{
	{token.WETH, token.USDC},
	{token.WETH, token.DAI},
	{token.WETH, token.AERO},
	{token.USDC, token.CbBTC},
}

// LST pairs: WETH against each ETH LST, cbETH back against WETH, and
// USDC against tBTC. Only cbETH/WETH is traded in both directions; there
// is no BTC-base/BTC-LST pair.
var lstPairs = []curatedPair{
	{token.WETH, token.CbETH},
	{token.WETH, token.WstETH},
	{token.WETH, token.REth},
	{token.CbETH, token.WETH},
	{token.USDC, token.TBTC},
}

// Stablecoin pairs traded with the larger STABLE_ARB sizing.
var stablePairs = []curatedPair{
	{token.USDC, token.USDbC},
	{token.USDC, token.DAI},
	{token.USDC, token.EURC},
}

// Curated triangles; the first vertex is the borrow asset.
var curatedTriangles = [][3]common.Address{
	{token.WETH, token.USDC, token.CbETH},
	{token.WETH, token.USDC, token.AERO},
	{token.WETH, token.USDC, token.CbBTC},
	{token.USDC, token.WETH, token.DAI},
}

// maxDynamicPairs bounds how many graph-surfaced pairs each cycle tries.
const maxDynamicPairs = 10
