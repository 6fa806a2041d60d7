package app

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/mempool/domain"
	"github.com/flasharb/flasharb-bot/internal/token"
)

func pricedRegistry() *token.Registry {
	reg := token.NewRegistry(nil)
	reg.UpdatePrices(decimal.NewFromInt(2500), decimal.NewFromInt(60000))
	return reg
}

func pendingSwap(from common.Address, router common.Address, wethIn float64, prefix byte) *domain.PendingSwap {
	return &domain.PendingSwap{
		From:           from,
		Router:         router,
		TokenIn:        token.WETH,
		TokenOut:       token.USDC,
		AmountIn:       decimal.NewFromFloat(wethIn).Shift(18).BigInt(),
		CalldataPrefix: []byte{prefix, 0x01, 0x02, 0x03},
	}
}

func TestRecommend_QuietMempool(t *testing.T) {
	h := NewHeuristics(pricedRegistry())

	rec := h.Recommend(30)
	if rec.UsePrivateRelay || rec.RaiseSlippage || rec.UseFlashbots {
		t.Errorf("quiet mempool should not raise flags: %+v", rec)
	}
	if rec.RecommendedSlippageBps != 30 {
		t.Errorf("slippage = %d, want base 30", rec.RecommendedSlippageBps)
	}
}

func TestRecommend_LargeSwapPrefersPrivateRelay(t *testing.T) {
	h := NewHeuristics(pricedRegistry())
	router := common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")

	// 30 WETH at $2500 = $75k, over the large-swap threshold.
	h.Observe(pendingSwap(common.HexToAddress("0xaa"), router, 30, 0x10))

	rec := h.Recommend(30)
	if !rec.UsePrivateRelay {
		t.Error("large pending swap should recommend the private relay")
	}
	if rec.UseFlashbots {
		t.Error("a single large swap is not yet a sandwich")
	}
}

func TestRecommend_SandwichPattern(t *testing.T) {
	h := NewHeuristics(pricedRegistry())
	router := common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	attacker := common.HexToAddress("0xbb")
	victim := common.HexToAddress("0xcc")

	// The attacker posts, a large victim swap follows (marking the
	// attacker as a bracketer), then the attacker repeats with
	// near-equal calldata.
	h.Observe(pendingSwap(attacker, router, 0.1, 0x55))
	h.Observe(pendingSwap(victim, router, 40, 0x99))
	h.Observe(pendingSwap(attacker, router, 0.1, 0x55))

	rec := h.Recommend(30)
	if !rec.UseFlashbots || !rec.RaiseSlippage || !rec.UsePrivateRelay {
		t.Errorf("sandwich pattern should raise all flags: %+v", rec)
	}
	if rec.RecommendedSlippageBps <= 30 {
		t.Errorf("slippage = %d, want raised above base", rec.RecommendedSlippageBps)
	}
}

func TestIsRepeatCaller(t *testing.T) {
	h := NewHeuristics(pricedRegistry())
	router := common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	bot := common.HexToAddress("0xdd")

	for i := byte(0); i < 3; i++ {
		h.Observe(pendingSwap(bot, router, 0.01, i))
	}
	if !h.IsRepeatCaller(bot) {
		t.Error("3 sightings should mark a repeat caller")
	}
	if h.IsRepeatCaller(common.HexToAddress("0xee")) {
		t.Error("unknown address flagged as repeat caller")
	}
}

func TestObserve_UnpricedTokenNotLarge(t *testing.T) {
	h := NewHeuristics(token.NewRegistry(nil)) // no anchor prices set
	router := common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")

	h.Observe(pendingSwap(common.HexToAddress("0xaa"), router, 1_000_000, 0x01))

	if rec := h.Recommend(30); rec.UsePrivateRelay {
		t.Error("unpriced flow must not trigger the large-swap flag")
	}
}
