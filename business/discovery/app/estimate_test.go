package app

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

var (
	tokWETH = common.HexToAddress("0x4200000000000000000000000000000000000006")
	tokUSDC = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	tokXXX  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokYYY  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// priceTable values a couple of tokens and leaves the rest at zero.
func priceTable(t *testing.T) ValueUSD {
	t.Helper()
	prices := map[common.Address]struct {
		usd      decimal.Decimal
		decimals int32
	}{
		tokWETH: {decimal.NewFromInt(2500), 18},
		tokUSDC: {decimal.NewFromInt(1), 6},
	}
	return func(addr common.Address, amount *big.Int) decimal.Decimal {
		p, ok := prices[addr]
		if !ok || amount == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(amount, -p.decimals).Mul(p.usd)
	}
}

func TestEstimateUSD_ReserveBased(t *testing.T) {
	pool := domain.NewPool("baseswap", domain.VenueV2AMM, common.HexToAddress("0x01"), tokWETH, tokUSDC, 30)

	// 10 WETH + 25_000 USDC → $25_000 + $25_000.
	state := &PoolLiquidity{
		Reserve0: new(big.Int).Mul(big.NewInt(10), exp10(18)),
		Reserve1: new(big.Int).Mul(big.NewInt(25_000), exp10(6)),
	}

	got := EstimateUSD(pool, state, priceTable(t))
	want := decimal.NewFromInt(50_000)
	if !got.Equal(want) {
		t.Errorf("EstimateUSD = %s, want %s", got, want)
	}
}

func TestEstimateUSD_CLDoublesPricedSide(t *testing.T) {
	pool := domain.NewPool("uniswap-v3", domain.VenueV3CL, common.HexToAddress("0x02"), tokWETH, tokUSDC, 500)

	// √P = 2^96 means price 1.0 in raw units; amount0 = L, amount1 = L.
	liq := new(big.Int).Mul(big.NewInt(4), exp10(18)) // L = 4e18
	state := &PoolLiquidity{
		Liquidity:    liq,
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
	}

	// amount0 = 4e18 raw WETH = 4 WETH = $10_000; doubled = $20_000.
	got := EstimateUSD(pool, state, priceTable(t))
	want := decimal.NewFromInt(20_000)
	if !got.Equal(want) {
		t.Errorf("EstimateUSD = %s, want %s", got, want)
	}
}

func TestEstimateUSD_DegenerateFallback(t *testing.T) {
	// Neither token priced: estimate = liquidity × 1000, crude but
	// keeps the pool visible.
	pool := domain.NewPool("uniswap-v3", domain.VenueV3CL, common.HexToAddress("0x03"), tokXXX, tokYYY, 500)
	state := &PoolLiquidity{
		Liquidity:    big.NewInt(5_000),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
	}

	got := EstimateUSD(pool, state, priceTable(t))
	want := decimal.NewFromInt(5_000_000)
	if !got.Equal(want) {
		t.Errorf("EstimateUSD = %s, want %s", got, want)
	}
}

func TestEstimateUSD_ZeroStates(t *testing.T) {
	pool := domain.NewPool("uniswap-v3", domain.VenueV3CL, common.HexToAddress("0x04"), tokWETH, tokUSDC, 500)

	cases := []struct {
		name  string
		state *PoolLiquidity
	}{
		{"nil state", nil},
		{"zero liquidity", &PoolLiquidity{Liquidity: big.NewInt(0), SqrtPriceX96: big.NewInt(1)}},
		{"zero sqrt price", &PoolLiquidity{Liquidity: big.NewInt(1), SqrtPriceX96: big.NewInt(0)}},
		{"missing fields", &PoolLiquidity{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateUSD(pool, tc.state, priceTable(t)); !got.IsZero() {
				t.Errorf("EstimateUSD = %s, want 0", got)
			}
		})
	}
}

func exp10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
