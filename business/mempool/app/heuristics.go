package app

import (
	"bytes"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/mempool/domain"
	"github.com/flasharb/flasharb-bot/internal/token"
)

const (
	// largeSwapUSD flags pending swaps worth watching.
	largeSwapUSD = 50_000

	// repeatCallerCount marks an address as a likely arbitrage bot.
	repeatCallerCount = 3

	// heuristicWindow is how long observations stay relevant.
	heuristicWindow = 2 * time.Minute

	// raisedSlippageBps is recommended while a sandwich risk is live.
	raisedSlippageBps = 50
)

type swapSighting struct {
	swap   *domain.PendingSwap
	seenAt time.Time
}

// Heuristics tracks pending-swap patterns and produces the advisory
// bidding recommendation consumed by the execution pipeline.
type Heuristics struct {
	tokens *token.Registry

	mu          sync.Mutex
	recent      []swapSighting
	callerCount map[common.Address]int
	// bracketers are addresses previously seen surrounding a large swap.
	bracketers map[common.Address]time.Time

	largeSwapSeen    time.Time
	sandwichDetected time.Time
}

// NewHeuristics creates a Heuristics tracker.
func NewHeuristics(tokens *token.Registry) *Heuristics {
	return &Heuristics{
		tokens:      tokens,
		callerCount: make(map[common.Address]int),
		bracketers:  make(map[common.Address]time.Time),
	}
}

// Observe feeds one decoded pending swap through the detectors.
func (h *Heuristics) Observe(swap *domain.PendingSwap) {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.prune(now)

	// Large-value pending swap.
	if h.valueUSD(swap).GreaterThanOrEqual(decimal.NewFromInt(largeSwapUSD)) {
		h.largeSwapSeen = now
		h.markBracketers(swap, now)
	}

	// Repeated arbitrage caller.
	h.callerCount[swap.From]++

	// Sandwich shape: a second pending swap to the same router with
	// near-equal calldata from an address already seen bracketing a
	// large swap.
	for _, prior := range h.recent {
		if prior.swap.Router != swap.Router || prior.swap.From != swap.From {
			continue
		}
		if _, known := h.bracketers[swap.From]; !known {
			continue
		}
		if bytes.Equal(prior.swap.CalldataPrefix, swap.CalldataPrefix) {
			h.sandwichDetected = now
			break
		}
	}

	h.recent = append(h.recent, swapSighting{swap: swap, seenAt: now})
}

// markBracketers flags every recent same-router caller around a large
// swap as a potential sandwicher.
func (h *Heuristics) markBracketers(large *domain.PendingSwap, now time.Time) {
	for _, prior := range h.recent {
		if prior.swap.Router == large.Router && prior.swap.From != large.From {
			h.bracketers[prior.swap.From] = now
		}
	}
}

func (h *Heuristics) valueUSD(swap *domain.PendingSwap) decimal.Decimal {
	if swap.AmountIn == nil {
		return decimal.Zero
	}
	return h.tokens.ValueUSD(swap.TokenIn, swap.AmountIn)
}

func (h *Heuristics) prune(now time.Time) {
	cutoff := now.Add(-heuristicWindow)

	kept := h.recent[:0]
	for _, s := range h.recent {
		if s.seenAt.After(cutoff) {
			kept = append(kept, s)
		}
	}
	h.recent = kept

	for addr, seen := range h.bracketers {
		if seen.Before(cutoff) {
			delete(h.bracketers, addr)
		}
	}
}

// IsRepeatCaller reports whether addr looks like a competing bot.
func (h *Heuristics) IsRepeatCaller(addr common.Address) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callerCount[addr] >= repeatCallerCount
}

// Recommend returns the current bidding recommendation.
func (h *Heuristics) Recommend(baseSlippageBps int64) domain.Recommendation {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	sandwich := now.Sub(h.sandwichDetected) < heuristicWindow && !h.sandwichDetected.IsZero()
	largeSwap := now.Sub(h.largeSwapSeen) < heuristicWindow && !h.largeSwapSeen.IsZero()

	rec := domain.Recommendation{
		UsePrivateRelay:        sandwich || largeSwap,
		RaiseSlippage:          sandwich,
		RecommendedSlippageBps: baseSlippageBps,
		UseFlashbots:           sandwich,
	}
	if sandwich && raisedSlippageBps > baseSlippageBps {
		rec.RecommendedSlippageBps = raisedSlippageBps
	}
	return rec
}
