// Package token maintains the registry of known and resolved ERC20 tokens.
package token

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Class buckets tokens whose USD price derives from a shared anchor.
type Class string

const (
	ClassETH  Class = "eth" // WETH and ETH-equivalent LSTs
	ClassBTC  Class = "btc" // wrapped-BTC equivalents
	ClassUSD  Class = "usd" // USD stablecoins
	ClassEUR  Class = "eur" // EUR stablecoins, fixed 1.08x
	ClassNone Class = ""    // unpriced
)

// Info describes one token. Created on first sight, mutated only by the
// registry, never destroyed.
type Info struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	Class    Class
	PriceUSD decimal.Decimal
}

// Key returns the lowercased hex address used as a map key.
func Key(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// eurUSDFixed is the fixed EUR/USD rate applied to EUR-pegged stables.
var eurUSDFixed = decimal.RequireFromString("1.08")
