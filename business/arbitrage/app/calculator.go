// Package app contains the strategy search and profit accounting for the
// arbitrage context.
package app

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	quotesDomain "github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/token"
)

const bpsDenominator = 10_000

// Per-trade gas overhead on top of the per-leg estimates: flash loan
// dispatch plus contract bookkeeping.
const (
	overheadGasTwoLegs   = 100_000
	overheadGasThreeLegs = 120_000
)

// CalculatorConfig holds the accounting parameters.
type CalculatorConfig struct {
	FlashPremiumBps int64
	SlippageBps     int64
	MinProfitUSD    decimal.Decimal
}

// GasPricer supplies the current max fee in gwei.
type GasPricer interface {
	MaxFeeGwei() float64
}

// Calculator turns a quoted loop into a fully accounted Opportunity.
type Calculator struct {
	cfg    CalculatorConfig
	tokens *token.Registry
	gas    GasPricer
}

// NewCalculator creates a Calculator.
func NewCalculator(cfg CalculatorConfig, tokens *token.Registry, gas GasPricer) *Calculator {
	return &Calculator{cfg: cfg, tokens: tokens, gas: gas}
}

// Build accounts one closed loop of quotes borrowed in borrowAsset.
// It returns nil when the loop is unprofitable: gross profit must clear
// the flash premium, and net USD profit must clear the floor.
func (c *Calculator) Build(kind domain.StrategyKind, pair string, borrowAsset common.Address, borrow *big.Int, legs []*quotesDomain.Quote) *domain.Opportunity {
	if len(legs) == 0 || borrow == nil || borrow.Sign() <= 0 {
		return nil
	}

	flashFee := new(big.Int).Mul(borrow, big.NewInt(c.cfg.FlashPremiumBps))
	flashFee.Div(flashFee, big.NewInt(bpsDenominator))

	totalReturn := legs[len(legs)-1].AmountOut
	totalCost := new(big.Int).Add(borrow, flashFee)

	profit := new(big.Int).Sub(totalReturn, totalCost)
	if profit.Sign() <= 0 {
		return nil
	}

	profitBps := new(big.Int).Mul(profit, big.NewInt(bpsDenominator))
	profitBps.Div(profitBps, borrow)

	profitUSD := c.tokens.ValueUSD(borrowAsset, profit)

	gasEstimate := overheadGasTwoLegs
	if len(legs) >= 3 {
		gasEstimate = overheadGasThreeLegs
	}
	for _, q := range legs {
		gasEstimate += int(q.GasEstimate)
	}

	gasCostUSD := decimal.NewFromFloat(c.gas.MaxFeeGwei()).
		Mul(decimal.NewFromInt(int64(gasEstimate))).
		Shift(-9).
		Mul(c.tokens.ETHPriceUSD())

	netProfitUSD := profitUSD.Sub(gasCostUSD)
	if netProfitUSD.LessThan(c.cfg.MinProfitUSD) {
		return nil
	}

	return &domain.Opportunity{
		Kind:           kind,
		Pair:           pair,
		BorrowAsset:    borrowAsset,
		BorrowAmount:   new(big.Int).Set(borrow),
		Legs:           c.buildLegs(legs, totalCost),
		ExpectedProfit: profit,
		ProfitBps:      profitBps.Int64(),
		ProfitUSD:      profitUSD,
		GasEstimate:    uint64(gasEstimate),
		GasCostUSD:     gasCostUSD,
		NetProfitUSD:   netProfitUSD,
		CreatedMs:      time.Now().UnixMilli(),
	}
}

// buildLegs converts quotes into execution legs. Legs after the first
// consume the running balance. The first N−1 legs tolerate the
// configured slippage; the final leg's minimum is break-even plus one
// basis point, enforcing profitability atomically.
func (c *Calculator) buildLegs(quotes []*quotesDomain.Quote, totalCost *big.Int) []*domain.SwapLeg {
	legs := make([]*domain.SwapLeg, len(quotes))
	for i, q := range quotes {
		leg := &domain.SwapLeg{
			VenueID:           q.VenueID,
			TokenIn:           q.TokenIn,
			TokenOut:          q.TokenOut,
			ExpectedAmountOut: q.AmountOut,
			FeeOrTickSpacing:  q.FeeOrTickSpacing,
			ExtraData:         q.ExtraData,
		}
		if i == 0 {
			leg.AmountIn = new(big.Int).Set(q.AmountIn)
		}

		if i == len(quotes)-1 {
			minOut := new(big.Int).Mul(totalCost, big.NewInt(bpsDenominator+1))
			minOut.Div(minOut, big.NewInt(bpsDenominator))
			leg.AmountOutMin = minOut
		} else {
			minOut := new(big.Int).Mul(q.AmountOut, big.NewInt(bpsDenominator-c.cfg.SlippageBps))
			minOut.Div(minOut, big.NewInt(bpsDenominator))
			leg.AmountOutMin = minOut
		}
		legs[i] = leg
	}
	return legs
}
