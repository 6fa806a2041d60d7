package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	discoveryDomain "github.com/flasharb/flasharb-bot/business/discovery/domain"
	quotesApp "github.com/flasharb/flasharb-bot/business/quotes/app"
	quotesDomain "github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/token"
)

// rateAdapter quotes only WETH↔USDC with fixed per-direction prices in
// USDC per WETH.
type rateAdapter struct {
	id       string
	sellWETH int64 // USDC received per WETH on WETH→USDC
	buyWETH  int64 // USDC paid per WETH on USDC→WETH
}

var oneE12 = big.NewInt(1_000_000_000_000)

func (a *rateAdapter) VenueID() string { return a.id }

func (a *rateAdapter) Quotes(_ context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*quotesDomain.Quote, error) {
	var amountOut *big.Int
	switch {
	case tokenIn == token.WETH && tokenOut == token.USDC:
		amountOut = new(big.Int).Mul(amountIn, big.NewInt(a.sellWETH))
		amountOut.Div(amountOut, oneE12)
	case tokenIn == token.USDC && tokenOut == token.WETH:
		amountOut = new(big.Int).Mul(amountIn, oneE12)
		amountOut.Div(amountOut, big.NewInt(a.buyWETH))
	default:
		return nil, nil
	}

	return []*quotesDomain.Quote{{
		VenueID:          a.id,
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeOrTickSpacing: 500,
		GasEstimate:      80_000,
	}}, nil
}

func searchHarness(t *testing.T, adapters []quotesApp.Adapter, topK int) *Searcher {
	t.Helper()
	log := logger.New(io.Discard, io.Discard, io.Discard, logger.LevelError, "test")

	engine, err := quotesApp.NewEngine(adapters, 4, log)
	if err != nil {
		t.Fatal(err)
	}

	reg := token.NewRegistry(nil)
	reg.UpdatePrices(decimal.NewFromInt(2500), decimal.NewFromInt(60000))

	calc := NewCalculator(CalculatorConfig{
		FlashPremiumBps: 5,
		SlippageBps:     30,
		MinProfitUSD:    decimal.RequireFromString("0.5"),
	}, reg, &fakeGas{gwei: 0.01})

	s, err := NewSearcher(engine, reg, calc, SearcherConfig{TopK: topK}, log)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSearch_FindsCrossVenueDirectArb(t *testing.T) {
	s := searchHarness(t, []quotesApp.Adapter{
		&rateAdapter{id: "venue-a", sellWETH: 2510, buyWETH: 2520},
		&rateAdapter{id: "venue-b", sellWETH: 2490, buyWETH: 2500},
	}, 1)

	found := s.Search(context.Background(), discoveryDomain.BuildGraph(nil))
	if len(found) != 1 {
		t.Fatalf("opportunities = %d, want top-1", len(found))
	}

	opp := found[0]
	if opp.Kind != domain.StrategyDirect {
		t.Errorf("kind = %s, want DIRECT_ARB", opp.Kind)
	}
	if len(opp.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(opp.Legs))
	}
	// The winning loop must cross venues: sell high on A, buy back on B.
	if opp.Legs[0].VenueID == opp.Legs[1].VenueID {
		t.Errorf("loop uses one venue twice: %s", opp.Legs[0].VenueID)
	}
	if !opp.NetProfitUSD.GreaterThan(decimal.Zero) {
		t.Errorf("net profit = %s, want positive", opp.NetProfitUSD)
	}
	if opp.BorrowAsset != token.WETH {
		t.Errorf("borrow asset = %s, want WETH", opp.BorrowAsset.Hex())
	}
}

func TestSearch_RejectsSameVenueSameTierLoop(t *testing.T) {
	// One venue alone cannot arbitrage itself on the identical fee tier,
	// even if its own quotes would round-trip profitably.
	s := searchHarness(t, []quotesApp.Adapter{
		&rateAdapter{id: "venue-a", sellWETH: 2510, buyWETH: 2490},
	}, 5)

	found := s.Search(context.Background(), discoveryDomain.BuildGraph(nil))
	if len(found) != 0 {
		t.Fatalf("opportunities = %d, want 0 for single-venue loops", len(found))
	}
}

func TestSearch_TopKBound(t *testing.T) {
	s := searchHarness(t, []quotesApp.Adapter{
		&rateAdapter{id: "venue-a", sellWETH: 2510, buyWETH: 2520},
		&rateAdapter{id: "venue-b", sellWETH: 2490, buyWETH: 2500},
	}, 3)

	found := s.Search(context.Background(), discoveryDomain.BuildGraph(nil))
	if len(found) == 0 || len(found) > 3 {
		t.Fatalf("opportunities = %d, want 1..3", len(found))
	}
	for i := 1; i < len(found); i++ {
		if found[i-1].NetProfitUSD.LessThan(found[i].NetProfitUSD) {
			t.Error("opportunities not sorted by descending net profit")
		}
	}
}
