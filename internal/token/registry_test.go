package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type fakeReader struct {
	symbols  map[common.Address]string
	decimals map[common.Address]uint8
}

func (f *fakeReader) Symbol(_ context.Context, addr common.Address) (string, error) {
	if s, ok := f.symbols[addr]; ok {
		return s, nil
	}
	return "", errors.New("no symbol")
}

func (f *fakeReader) Decimals(_ context.Context, addr common.Address) (uint8, error) {
	if d, ok := f.decimals[addr]; ok {
		return d, nil
	}
	return 0, errors.New("no decimals")
}

func TestUpdatePrices_ClassAnchors(t *testing.T) {
	r := NewRegistry(nil)
	r.UpdatePrices(decimal.NewFromInt(2500), decimal.NewFromInt(60000))

	tests := []struct {
		addr common.Address
		want string
	}{
		{WETH, "2500"},
		{CbETH, "2500"},
		{CbBTC, "60000"},
		{USDC, "1"},
		{DAI, "1"},
		{EURC, "1.08"},
		{AERO, "0"}, // unpriced class
	}
	for _, tt := range tests {
		info, ok := r.Get(tt.addr)
		if !ok {
			t.Fatalf("%s not seeded", tt.addr.Hex())
		}
		if !info.PriceUSD.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s price = %s, want %s", info.Symbol, info.PriceUSD, tt.want)
		}
	}
}

func TestValueUSD(t *testing.T) {
	r := NewRegistry(nil)
	r.UpdatePrices(decimal.NewFromInt(2500), decimal.NewFromInt(60000))

	// 2 WETH = $5000.
	got := r.ValueUSD(WETH, new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
	if !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("ValueUSD(2 WETH) = %s, want 5000", got)
	}

	// 1500 USDC (6 decimals) = $1500.
	got = r.ValueUSD(USDC, big.NewInt(1_500_000_000))
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("ValueUSD(1500 USDC) = %s, want 1500", got)
	}

	// Unpriced token contributes zero to TVL.
	if got := r.ValueUSD(AERO, big.NewInt(1e18)); !got.IsZero() {
		t.Errorf("ValueUSD(AERO) = %s, want 0", got)
	}
}

func TestResolve_OnChainDefaults(t *testing.T) {
	unknown := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	symbolOnly := common.HexToAddress("0x00000000000000000000000000000000000000c2")
	dead := common.HexToAddress("0x00000000000000000000000000000000000000c3")

	r := NewRegistry(&fakeReader{
		symbols:  map[common.Address]string{unknown: "NEW", symbolOnly: "HALF"},
		decimals: map[common.Address]uint8{unknown: 8},
	})

	// Full resolution.
	info, ok := r.Resolve(context.Background(), unknown)
	if !ok || info.Symbol != "NEW" || info.Decimals != 8 {
		t.Fatalf("Resolve = %+v ok=%v", info, ok)
	}

	// decimals() failure defaults to 18.
	info, ok = r.Resolve(context.Background(), symbolOnly)
	if !ok || info.Decimals != 18 {
		t.Fatalf("decimals default: %+v ok=%v", info, ok)
	}

	// Both calls failing drops the token: discovery drops the pool.
	if _, ok := r.Resolve(context.Background(), dead); ok {
		t.Error("fully unresolvable token must return not-ok")
	}

	// Resolution is sticky.
	again, ok := r.Resolve(context.Background(), unknown)
	if !ok || again.Symbol != "NEW" || again.Decimals != 8 {
		t.Error("second Resolve must return the cached record")
	}
}

func TestIsBorrowable(t *testing.T) {
	r := NewRegistry(nil)

	if !r.IsBorrowable(WETH) || !r.IsBorrowable(USDC) {
		t.Error("WETH and USDC are flash-loan-borrowable")
	}
	if r.IsBorrowable(AERO) {
		t.Error("AERO is not borrowable")
	}
	if !r.BorrowableBySymbol("WETH") || r.BorrowableBySymbol("AERO") {
		t.Error("symbol-level borrowable lookup wrong")
	}
}

func TestIsSeededAndAddressOf(t *testing.T) {
	r := NewRegistry(nil)

	if !r.IsSeeded(WETH) {
		t.Error("WETH should be seeded")
	}
	if r.IsSeeded(common.HexToAddress("0x01")) {
		t.Error("random address should not be seeded")
	}

	addr, ok := r.AddressOf("USDC")
	if !ok || addr != USDC {
		t.Errorf("AddressOf(USDC) = %s ok=%v", addr.Hex(), ok)
	}
}
