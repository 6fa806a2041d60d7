package univ2

import (
	"math/big"
	"testing"
)

func TestAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   string
		reserveIn  string
		reserveOut string
		feeBps     int64
		want       string
	}{
		{
			// 1 WETH into a 100 WETH / 250_000 USDC pool at 30 bp:
			// out = (1e18·9970·250000e6) / (100e18·10000 + 1e18·9970)
			name:       "weth_to_usdc_30bp",
			amountIn:   "1000000000000000000",
			reserveIn:  "100000000000000000000",
			reserveOut: "250000000000",
			feeBps:     30,
			want:       "2467895085",
		},
		{
			name:       "zero_fee",
			amountIn:   "1000000",
			reserveIn:  "1000000000",
			reserveOut: "1000000000",
			feeBps:     0,
			want:       "999000", // pure constant product
		},
		{
			name:       "tiny_pool_rounds_down",
			amountIn:   "1000",
			reserveIn:  "1000",
			reserveOut: "1000",
			feeBps:     30,
			want:       "499",
		},
		{
			name:       "zero_amount_in",
			amountIn:   "0",
			reserveIn:  "1000",
			reserveOut: "1000",
			feeBps:     30,
			want:       "0",
		},
		{
			name:       "zero_reserves",
			amountIn:   "1000",
			reserveIn:  "0",
			reserveOut: "1000",
			feeBps:     30,
			want:       "0",
		},
		{
			name:       "fee_out_of_range",
			amountIn:   "1000",
			reserveIn:  "1000",
			reserveOut: "1000",
			feeBps:     10_000,
			want:       "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amountIn, _ := new(big.Int).SetString(tt.amountIn, 10)
			reserveIn, _ := new(big.Int).SetString(tt.reserveIn, 10)
			reserveOut, _ := new(big.Int).SetString(tt.reserveOut, 10)
			want, _ := new(big.Int).SetString(tt.want, 10)

			got := AmountOut(amountIn, reserveIn, reserveOut, tt.feeBps)
			if got.Cmp(want) != 0 {
				t.Errorf("AmountOut = %s, want %s", got, want)
			}
		})
	}
}

func TestAmountOut_NilInputs(t *testing.T) {
	if got := AmountOut(nil, big.NewInt(1), big.NewInt(1), 30); got.Sign() != 0 {
		t.Errorf("nil amountIn: got %s, want 0", got)
	}
}

func TestAmountOut_OutputAlwaysBelowReserve(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(1_000_000)

	for _, in := range []int64{1, 1000, 1_000_000, 100_000_000} {
		got := AmountOut(big.NewInt(in), reserveIn, reserveOut, 30)
		if got.Cmp(reserveOut) >= 0 {
			t.Errorf("amountIn=%d drained the pool: out=%s", in, got)
		}
	}
}
