// Package app contains the risk controller.
package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	arbitrageDomain "github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	"github.com/flasharb/flasharb-bot/business/risk/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const (
	// ringCapacity bounds the retained trade history.
	ringCapacity = 1000

	// breakerWindow is how many recent trades the breaker evaluates.
	breakerWindow = 20

	// consecutiveLossTrip trips the breaker inside the window.
	consecutiveLossTrip = 10

	// lossRatioTrip trips when losses exceed this share of a full window.
	lossRatioTrip = 0.7

	// profitGasMultiple requires expected profit ≥ this × gas cost.
	profitGasMultiple = 2
)

// ControllerConfig holds the risk limits.
type ControllerConfig struct {
	Enabled          bool
	MaxTradesPerHour int
	MaxDrawdownWei   *big.Int
	MinLiquidityUSD  decimal.Decimal
}

// Controller validates candidates and tracks trade outcomes. All state
// transitions happen through Record, Reset and the hourly tick; the
// breaker trip is one-way until an operator resets it.
type Controller struct {
	cfg    ControllerConfig
	logger logger.LoggerInterface

	mu          sync.Mutex
	drawdownWei *big.Int // ≥ 0 at all times
	hourlyCount int
	tripped     bool
	tripReason  string
	history     *domain.Ring
}

// NewController creates a Controller.
func NewController(cfg ControllerConfig, log logger.LoggerInterface) *Controller {
	return &Controller{
		cfg:         cfg,
		logger:      log,
		drawdownWei: new(big.Int),
		history:     domain.NewRing(ringCapacity),
	}
}

// Validate decides whether a candidate may execute.
func (c *Controller) Validate(opp *arbitrageDomain.Opportunity, pairLiquidityUSD decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tripped {
		return apperror.New(apperror.CodeCircuitOpen,
			apperror.WithContext(c.tripReason))
	}
	if c.hourlyCount >= c.cfg.MaxTradesPerHour {
		return apperror.New(apperror.CodeHourlyLimit,
			apperror.WithContext(fmt.Sprintf("%d trades this hour", c.hourlyCount)))
	}
	if pairLiquidityUSD.IsPositive() && pairLiquidityUSD.LessThan(c.cfg.MinLiquidityUSD) {
		return apperror.New(apperror.CodeRiskRejected,
			apperror.WithContext("pool liquidity below floor"))
	}
	if opp.ProfitUSD.LessThan(opp.GasCostUSD.Mul(decimal.NewFromInt(profitGasMultiple))) {
		return apperror.New(apperror.CodeRiskRejected,
			apperror.WithContext("expected profit below 2x gas cost"))
	}
	if c.cfg.MaxDrawdownWei != nil && c.drawdownWei.Cmp(c.cfg.MaxDrawdownWei) >= 0 {
		return apperror.New(apperror.CodeDrawdownExceeded,
			apperror.WithContext(fmt.Sprintf("drawdown %s wei", c.drawdownWei)))
	}
	return nil
}

// Record books one finished trade. Losses grow the drawdown; gains
// shrink it toward zero. Calls are serialized in on-chain confirmation
// order by the execution pipeline.
func (c *Controller) Record(netProfitWei, gasCostWei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := &domain.TradeRecord{
		FinishedMs: time.Now().UnixMilli(),
		NetProfit:  new(big.Int).Set(netProfitWei),
		GasCost:    new(big.Int).Set(gasCostWei),
	}

	if rec.IsLoss() {
		c.drawdownWei.Sub(c.drawdownWei, rec.NetProfit) // NetProfit < 0
	} else {
		c.drawdownWei.Sub(c.drawdownWei, rec.NetProfit)
		if c.drawdownWei.Sign() < 0 {
			c.drawdownWei.SetInt64(0)
		}
	}

	c.history.Push(rec)
	c.hourlyCount++

	if c.cfg.Enabled && !c.tripped {
		c.evaluateBreaker()
	}
}

// evaluateBreaker re-checks the trip conditions; callers hold the lock.
func (c *Controller) evaluateBreaker() {
	recent := c.history.Last(breakerWindow)

	consecutive, run := 0, 0
	losses := 0
	for _, rec := range recent {
		if rec.IsLoss() {
			run++
			losses++
			if run > consecutive {
				consecutive = run
			}
		} else {
			run = 0
		}
	}

	switch {
	case consecutive >= consecutiveLossTrip:
		c.trip(fmt.Sprintf("%d consecutive losses", consecutive))
	case c.cfg.MaxDrawdownWei != nil && c.drawdownWei.Cmp(c.cfg.MaxDrawdownWei) >= 0:
		c.trip(fmt.Sprintf("drawdown %s wei at cap", c.drawdownWei))
	case len(recent) >= breakerWindow && float64(losses) > lossRatioTrip*float64(len(recent)):
		c.trip(fmt.Sprintf("%d of last %d trades lost", losses, len(recent)))
	}
}

func (c *Controller) trip(reason string) {
	c.tripped = true
	c.tripReason = reason
	c.logger.Error(context.Background(), "circuit breaker tripped", "reason", reason)
}

// Reset clears the breaker and the drawdown. Operator action only.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tripped = false
	c.tripReason = ""
	c.drawdownWei.SetInt64(0)
	c.logger.Info(context.Background(), "circuit breaker reset")
}

// Tripped reports the breaker state.
func (c *Controller) Tripped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tripped
}

// DrawdownWei returns the current drawdown.
func (c *Controller) DrawdownWei() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.drawdownWei)
}

// TickHourly zeroes the hourly counter; wired to an hourly ticker
// independent of call order.
func (c *Controller) TickHourly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hourlyCount = 0
}

// StartHourlyTicker runs the hourly reset until ctx is done.
func (c *Controller) StartHourlyTicker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.TickHourly()
			}
		}
	}()
}
