package app

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

func catalogPool(addr string, liqUSD int64) *domain.Pool {
	p := domain.NewPool("uniswap-v3", domain.VenueV3CL,
		common.HexToAddress(addr), tokWETH, tokUSDC, 500)
	p.Token0Symbol, p.Token1Symbol = "WETH", "USDC"
	p.LiquidityUSD = decimal.NewFromInt(liqUSD)
	return p
}

func TestCatalog_InsertIdempotent(t *testing.T) {
	c := NewCatalog()

	p := catalogPool("0xAbC0000000000000000000000000000000000001", 50_000)
	if !c.Insert(p) {
		t.Fatal("first insert should report new")
	}
	if c.Insert(catalogPool("0xabc0000000000000000000000000000000000001", 99)) {
		t.Fatal("re-insert under different case must be a no-op")
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}

	got, ok := c.Get(common.HexToAddress("0xABC0000000000000000000000000000000000001"))
	if !ok || !got.LiquidityUSD.Equal(decimal.NewFromInt(50_000)) {
		t.Error("lookup must return the first-inserted record")
	}
}

func TestCatalog_ActivityInvariant(t *testing.T) {
	c := NewCatalog()
	floor := decimal.NewFromInt(10_000)
	known := func(addr common.Address) bool { return addr == tokWETH || addr == tokUSDC }

	rich := catalogPool("0x01", 50_000)
	poor := catalogPool("0x02", 500)
	unknownTokens := domain.NewPool("uniswap-v3", domain.VenueV3CL,
		common.HexToAddress("0x03"), tokXXX, tokYYY, 500)
	unknownTokens.LiquidityUSD = decimal.NewFromInt(1_000_000)

	c.Insert(rich)
	c.Insert(poor)
	c.Insert(unknownTokens)

	c.MarkActivity(floor, known)

	if !rich.Active {
		t.Error("pool above floor with known tokens must be active")
	}
	if poor.Active {
		t.Error("pool below floor must be inactive")
	}
	if unknownTokens.Active {
		t.Error("pool with no known token must be inactive regardless of TVL")
	}

	// isActive ⇒ liquidityUsd ≥ floor, for every active pool.
	for _, p := range c.Active() {
		if p.LiquidityUSD.LessThan(floor) {
			t.Errorf("active pool %s below floor", p.Address.Hex())
		}
	}
}

func TestCatalog_LastScanBlockMonotonic(t *testing.T) {
	c := NewCatalog()

	c.SetLastScanBlock(100)
	c.SetLastScanBlock(50) // regressions ignored
	if got := c.LastScanBlock(); got != 100 {
		t.Errorf("lastScanBlock = %d, want 100", got)
	}
}

func TestCatalog_GraphSnapshotStable(t *testing.T) {
	c := NewCatalog()

	p := catalogPool("0x01", 50_000)
	p.Active = true
	c.Insert(p)

	before := c.Graph()
	c.RebuildGraph()
	after := c.Graph()

	if len(before.Pairs()) != 0 {
		t.Error("initial graph should be empty")
	}
	if len(after.Pairs()) != 1 {
		t.Errorf("rebuilt graph pairs = %d, want 1", len(after.Pairs()))
	}
	// The old snapshot is untouched by the rebuild.
	if len(before.Pairs()) != 0 {
		t.Error("rebuild must not mutate prior snapshots")
	}
}
