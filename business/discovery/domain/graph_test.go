package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	addrWETH = common.HexToAddress("0x4200000000000000000000000000000000000006")
	addrUSDC = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	addrDAI  = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb")
	addrAERO = common.HexToAddress("0x940181a94A35A4569E4529A3CDfB74e38FD98631")
)

func makePool(venue string, a, b common.Address, symA, symB string, liqUSD int64, active bool) *Pool {
	p := NewPool(venue, VenueV3CL, common.BigToAddress(big.NewInt(int64(len(venue))*1000+liqUSD)), a, b, 500)
	// NewPool normalizes token order; map the symbols accordingly.
	if p.Token0 == a {
		p.Token0Symbol, p.Token1Symbol = symA, symB
	} else {
		p.Token0Symbol, p.Token1Symbol = symB, symA
	}
	p.LiquidityUSD = decimal.NewFromInt(liqUSD)
	p.Active = active
	return p
}

func TestNewPool_NormalizesTokenOrder(t *testing.T) {
	p := NewPool("uniswap-v3", VenueV3CL, common.HexToAddress("0x01"), addrUSDC, addrWETH, 500)
	if p.Token0 != addrWETH || p.Token1 != addrUSDC {
		t.Errorf("tokens not normalized: %s / %s", p.Token0.Hex(), p.Token1.Hex())
	}

	q := NewPool("uniswap-v3", VenueV3CL, common.HexToAddress("0x02"), addrWETH, addrUSDC, 500)
	if q.Token0 != p.Token0 || q.Token1 != p.Token1 {
		t.Error("ordering must be independent of input order")
	}
}

func TestBuildGraph_SkipsInactivePools(t *testing.T) {
	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("baseswap", addrWETH, addrDAI, "WETH", "DAI", 50_000, false),
	})

	if len(g.Pairs()) != 1 {
		t.Fatalf("pairs = %d, want 1 (inactive pool excluded)", len(g.Pairs()))
	}
	if g.Pairs()[0].Name() != "WETH/USDC" {
		t.Errorf("pair = %s, want WETH/USDC", g.Pairs()[0].Name())
	}
}

func TestArbitrageablePairs_RequireTwoVenues(t *testing.T) {
	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("aerodrome", addrWETH, addrUSDC, "WETH", "USDC", 80_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 900_000, true),
	})

	arb := g.ArbitrageablePairs()
	if len(arb) != 1 {
		t.Fatalf("arbitrageable pairs = %d, want 1", len(arb))
	}
	if arb[0].Name() != "WETH/USDC" {
		t.Errorf("pair = %s, want WETH/USDC", arb[0].Name())
	}
	if arb[0].VenueCount() != 2 {
		t.Errorf("venue count = %d, want 2", arb[0].VenueCount())
	}
}

func TestArbitrageablePairs_SortedByLiquidityDesc(t *testing.T) {
	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("aerodrome", addrWETH, addrUSDC, "WETH", "USDC", 80_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 900_000, true),
		makePool("aerodrome", addrWETH, addrDAI, "WETH", "DAI", 10_000, true),
	})

	arb := g.ArbitrageablePairs()
	if len(arb) != 2 {
		t.Fatalf("arbitrageable pairs = %d, want 2", len(arb))
	}
	if arb[0].Name() != "WETH/DAI" || arb[1].Name() != "WETH/USDC" {
		t.Errorf("order = %s, %s; want WETH/DAI first (900k best liquidity)", arb[0].Name(), arb[1].Name())
	}
}

func TestBuildGraph_Deterministic(t *testing.T) {
	pools := []*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("aerodrome", addrWETH, addrUSDC, "WETH", "USDC", 80_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 900_000, true),
		makePool("baseswap", addrUSDC, addrDAI, "USDC", "DAI", 70_000, true),
	}

	a := BuildGraph(pools)
	b := BuildGraph(pools)

	pa, pb := a.ArbitrageablePairs(), b.ArbitrageablePairs()
	if len(pa) != len(pb) {
		t.Fatalf("non-deterministic pair count: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i].Name() != pb[i].Name() {
			t.Errorf("pair %d differs: %s vs %s", i, pa[i].Name(), pb[i].Name())
		}
	}
}

func TestTriangularPaths(t *testing.T) {
	borrowable := func(sym string) bool { return sym == "WETH" || sym == "USDC" }

	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 90_000, true),
		makePool("uniswap-v3", addrUSDC, addrDAI, "USDC", "DAI", 80_000, true),
	})

	tris := g.TriangularPaths(borrowable)
	if len(tris) != 1 {
		t.Fatalf("triangles = %d, want 1", len(tris))
	}
	if !borrowable(tris[0][0]) {
		t.Errorf("triangle %v must start with a borrowable symbol", tris[0])
	}
}

func TestTriangularPaths_RotationPreservesCycle(t *testing.T) {
	// Only WETH is borrowable; the ordered triple is (DAI, USDC, WETH)
	// so rotation must move WETH to the front without permuting the
	// cycle.
	borrowable := func(sym string) bool { return sym == "WETH" }

	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 90_000, true),
		makePool("uniswap-v3", addrUSDC, addrDAI, "USDC", "DAI", 80_000, true),
	})

	tris := g.TriangularPaths(borrowable)
	if len(tris) != 1 {
		t.Fatalf("triangles = %d, want 1", len(tris))
	}
	tri := tris[0]
	if tri[0] != "WETH" {
		t.Fatalf("triangle = %v, want WETH first", tri)
	}
	// (DAI USDC WETH) rotated to front-WETH is (WETH DAI USDC).
	if tri[1] != "DAI" || tri[2] != "USDC" {
		t.Errorf("triangle = %v, rotation must not permute the cycle", tri)
	}
}

func TestTriangularPaths_DropsWithoutBorrowableVertex(t *testing.T) {
	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("uniswap-v3", addrWETH, addrDAI, "WETH", "DAI", 90_000, true),
		makePool("uniswap-v3", addrUSDC, addrDAI, "USDC", "DAI", 80_000, true),
	})

	tris := g.TriangularPaths(func(string) bool { return false })
	if len(tris) != 0 {
		t.Errorf("triangles = %d, want 0 when nothing is borrowable", len(tris))
	}
}

func TestTriangularPaths_NoTriangleWithoutAllEdges(t *testing.T) {
	g := BuildGraph([]*Pool{
		makePool("uniswap-v3", addrWETH, addrUSDC, "WETH", "USDC", 100_000, true),
		makePool("uniswap-v3", addrWETH, addrAERO, "WETH", "AERO", 90_000, true),
	})

	tris := g.TriangularPaths(func(string) bool { return true })
	if len(tris) != 0 {
		t.Errorf("triangles = %d, want 0 with a missing edge", len(tris))
	}
}

func TestPoolPricingClassification(t *testing.T) {
	v3 := NewPool("uniswap-v3", VenueV3CL, common.HexToAddress("0x10"), addrWETH, addrUSDC, 500)
	if v3.IsReserveBased() {
		t.Error("v3-cl pools are concentrated")
	}

	v2 := NewPool("baseswap", VenueV2AMM, common.HexToAddress("0x11"), addrWETH, addrUSDC, 30)
	if !v2.IsReserveBased() {
		t.Error("v2-amm pools price from reserves")
	}

	// Stable-CL venues default to the Solidly reserve shape; only the
	// tick-spacing creation schema marks a pool concentrated.
	classic := NewPool("aerodrome", VenueStableCL, common.HexToAddress("0x12"), addrWETH, addrUSDC, 30)
	if !classic.IsReserveBased() {
		t.Error("classic stable pools price from reserves")
	}

	slip := NewPool("aerodrome-slipstream", VenueStableCL, common.HexToAddress("0x13"), addrWETH, addrUSDC, 200)
	slip.Concentrated = true
	if slip.IsReserveBased() {
		t.Error("tick-spacing stable pools are concentrated")
	}
}
