package token

import "github.com/ethereum/go-ethereum/common"

// Base mainnet token addresses seeded at startup.
var (
	WETH   = common.HexToAddress("0x4200000000000000000000000000000000000006")
	USDC   = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	USDbC  = common.HexToAddress("0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA")
	DAI    = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
	CbETH  = common.HexToAddress("0x2Ae3F1Ec7F1F5012CFEab0185bfc7aa3cf0DEc22")
	WstETH = common.HexToAddress("0xc1CBa3fCea344f92D9239c08C0568f6F2F0ee452")
	REth   = common.HexToAddress("0xB6fe221Fe9EeF5aBa221c348bA20A1Bf5e73624c")
	WeETH  = common.HexToAddress("0x04C0599Ae5A44757c0af6F9eC3b93da8976c150A")
	CbBTC  = common.HexToAddress("0xcbB7C0000aB88B473b1f5aFd9ef808440eed33Bf")
	TBTC   = common.HexToAddress("0x236aa50979D5f3De3Bd1Eeb40E81137F22ab794b")
	EURC   = common.HexToAddress("0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42")
	AERO   = common.HexToAddress("0x940181a94A35A4569E4529A3CDfB74e38FD98631")
)

type seed struct {
	addr     common.Address
	symbol   string
	decimals uint8
	class    Class
}

// seeds is the startup-known token set. Tokens outside this set resolve
// lazily on-chain and carry a zero USD price.
var seeds = []seed{
	{WETH, "WETH", 18, ClassETH},
	{CbETH, "cbETH", 18, ClassETH},
	{WstETH, "wstETH", 18, ClassETH},
	{REth, "rETH", 18, ClassETH},
	{WeETH, "weETH", 18, ClassETH},
	{CbBTC, "cbBTC", 8, ClassBTC},
	{TBTC, "tBTC", 18, ClassBTC},
	{USDC, "USDC", 6, ClassUSD},
	{USDbC, "USDbC", 6, ClassUSD},
	{DAI, "DAI", 18, ClassUSD},
	{EURC, "EURC", 6, ClassEUR},
	{AERO, "AERO", 18, ClassNone},
}

// borrowable is the set of flash-loan-borrowable assets on this chain.
var borrowable = map[common.Address]bool{
	WETH:  true,
	USDC:  true,
	USDbC: true,
	CbETH: true,
	DAI:   true,
}
