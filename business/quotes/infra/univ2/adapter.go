package univ2

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	discoveryApp "github.com/flasharb/flasharb-bot/business/discovery/app"
	discoveryDomain "github.com/flasharb/flasharb-bot/business/discovery/domain"
	"github.com/flasharb/flasharb-bot/business/quotes/app"
	"github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/cache"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const (
	tracerName = "univ2"

	// reservesTTL is roughly one block on this chain.
	reservesTTL = 2 * time.Second

	// swapGasEstimate is the flat per-hop estimate for v2-style swaps.
	swapGasEstimate = 110_000
)

// Ensure Adapter implements the quote port.
var _ app.Adapter = (*Adapter)(nil)

type reservePair struct {
	reserve0 *big.Int
	reserve1 *big.Int
}

// Adapter quotes constant-product pools off-chain from cached reserves.
type Adapter struct {
	venueID   string
	venueName string
	feeBps    int64
	catalog   *discoveryApp.Catalog
	liquidity discoveryApp.LiquiditySource
	reserves  *cache.Cache[string, reservePair]
	logger    logger.LoggerInterface
	tracer    trace.Tracer
}

// NewAdapter creates a v2 Adapter for one venue. Reserves are read once
// per block and the amount-out math runs locally.
func NewAdapter(venueID, venueName string, feeBps int64, catalog *discoveryApp.Catalog, liquidity discoveryApp.LiquiditySource, log logger.LoggerInterface) *Adapter {
	return &Adapter{
		venueID:   venueID,
		venueName: venueName,
		feeBps:    feeBps,
		catalog:   catalog,
		liquidity: liquidity,
		reserves:  cache.New[string, reservePair](time.Minute),
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

// VenueID returns the venue identifier.
func (a *Adapter) VenueID() string {
	return a.venueID
}

// Quotes finds this venue's pool for the pair and prices the swap from
// reserves. At most one quote is returned.
func (a *Adapter) Quotes(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "univ2.quotes",
		trace.WithAttributes(attribute.String("venue", a.venueID)),
	)
	defer span.End()

	pool := a.findPool(tokenIn, tokenOut)
	if pool == nil {
		return nil, nil
	}

	res, err := a.readReserves(ctx, pool)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut := res.reserve0, res.reserve1
	if tokenIn != pool.Token0 {
		reserveIn, reserveOut = res.reserve1, res.reserve0
	}

	amountOut := AmountOut(amountIn, reserveIn, reserveOut, a.feeBps)
	if amountOut.Sign() == 0 {
		return nil, nil
	}

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	return []*domain.Quote{{
		VenueID:          a.venueID,
		VenueName:        a.venueName,
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		AmountIn:         amountIn,
		AmountOut:        amountOut,
		FeeOrTickSpacing: a.feeBps,
		GasEstimate:      swapGasEstimate,
	}}, nil
}

// findPool picks the deepest reserve-based pool at this adapter's fee.
// Pools on another fee run a different curve (Solidly stable mode) and
// cannot be priced by constant-product math, so they are skipped.
func (a *Adapter) findPool(tokenIn, tokenOut common.Address) *discoveryDomain.Pool {
	var best *discoveryDomain.Pool
	for _, p := range a.catalog.Active() {
		if p.VenueID != a.venueID || !p.IsReserveBased() || p.FeeOrTickSpacing != a.feeBps {
			continue
		}
		if (p.Token0 == tokenIn && p.Token1 == tokenOut) || (p.Token0 == tokenOut && p.Token1 == tokenIn) {
			if best == nil || p.LiquidityUSD.GreaterThan(best.LiquidityUSD) {
				best = p
			}
		}
	}
	return best
}

func (a *Adapter) readReserves(ctx context.Context, pool *discoveryDomain.Pool) (reservePair, error) {
	key := pool.Key()
	if res, ok := a.reserves.Get(ctx, key); ok {
		return res, nil
	}

	state, err := a.liquidity.ReadLiquidity(ctx, pool)
	if err != nil {
		return reservePair{}, err
	}

	res := reservePair{reserve0: state.Reserve0, reserve1: state.Reserve1}
	a.reserves.Set(ctx, key, res, reservesTTL)
	return res, nil
}
