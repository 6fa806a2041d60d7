package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	arbitrageApp "github.com/flasharb/flasharb-bot/business/arbitrage/app"
	arbitrageDomain "github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	discoveryApp "github.com/flasharb/flasharb-bot/business/discovery/app"
	discoveryDomain "github.com/flasharb/flasharb-bot/business/discovery/domain"
	executionApp "github.com/flasharb/flasharb-bot/business/execution/app"
	executionDomain "github.com/flasharb/flasharb-bot/business/execution/domain"
	mempoolApp "github.com/flasharb/flasharb-bot/business/mempool/app"
	riskApp "github.com/flasharb/flasharb-bot/business/risk/app"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const tracerName = "engine"

// watchPoolLimit bounds how many top pools get live event subscriptions.
const watchPoolLimit = 50

// Engine runs the main cycle: snapshot the graph, search, validate the
// best candidate, execute, and feed the books. One opportunity executes
// per cycle; the pipeline's nonce discipline depends on it.
type Engine struct {
	discovery *discoveryApp.Service
	searcher  *arbitrageApp.Searcher
	risk      *riskApp.Controller
	pipeline  *executionApp.Pipeline
	observer  *mempoolApp.Observer // nil when disabled
	stats     *Stats
	interval  time.Duration
	logger    logger.LoggerInterface

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	tracer trace.Tracer
}

// NewEngine creates the orchestrator.
func NewEngine(
	discovery *discoveryApp.Service,
	searcher *arbitrageApp.Searcher,
	risk *riskApp.Controller,
	pipeline *executionApp.Pipeline,
	observer *mempoolApp.Observer,
	stats *Stats,
	interval time.Duration,
	log logger.LoggerInterface,
) *Engine {
	return &Engine{
		discovery: discovery,
		searcher:  searcher,
		risk:      risk,
		pipeline:  pipeline,
		observer:  observer,
		stats:     stats,
		interval:  interval,
		logger:    log,
		stop:      make(chan struct{}),
		tracer:    otel.Tracer(tracerName),
	}
}

// Start launches the cycle loop.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "engine starting", "cycle_interval", e.interval)

	e.watchTopPools(ctx)

	e.wg.Add(1)
	go e.run(ctx)
	return nil
}

// Stop shuts the engine down in dependency order: stop taking cycles,
// let discovery save, close the observer, drain the pipeline.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
	e.wg.Wait()

	e.discovery.Stop()
	if e.observer != nil {
		_ = e.observer.Close()
	}
	e.pipeline.Stop()

	snap := e.stats.Snapshot()
	e.logger.Info(context.Background(), "engine stopped",
		"cycles", snap.Cycles,
		"opportunities", snap.OpportunitiesFound,
		"executed", snap.Executed,
		"succeeded", snap.Succeeded,
		"cumulative_profit_usd", snap.CumulativeProfit.StringFixed(2),
	)
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.cycle(ctx)
		}
	}
}

// cycle runs one search-and-execute pass over a consistent graph
// snapshot. No error escapes: one bad opportunity never terminates the
// engine.
func (e *Engine) cycle(ctx context.Context) {
	ctx, span := e.tracer.Start(ctx, "engine.cycle")
	defer span.End()

	started := time.Now()
	graph := e.discovery.Graph()

	opportunities := e.searcher.Search(ctx, graph)
	e.stats.CycleDone(time.Since(started), len(opportunities))
	span.SetAttributes(attribute.Int("opportunities", len(opportunities)))

	if len(opportunities) == 0 {
		return
	}

	for _, opp := range opportunities {
		if err := e.risk.Validate(opp, e.pairLiquidity(graph, opp)); err != nil {
			e.logger.Info(ctx, "candidate rejected by risk controller",
				"kind", string(opp.Kind), "pair", opp.Pair, "reason", err.Error())
			continue
		}

		e.logger.Info(ctx, "executing opportunity",
			"kind", string(opp.Kind),
			"pair", opp.Pair,
			"net_profit_usd", opp.NetProfitUSD.StringFixed(4),
			"profit_bps", opp.ProfitBps,
		)

		result := e.pipeline.Execute(ctx, opp)
		e.bookResult(opp, result)

		// One submission per cycle keeps the nonce path serial.
		break
	}
}

func (e *Engine) bookResult(opp *arbitrageDomain.Opportunity, res *executionDomain.Result) {
	switch res.State {
	case executionDomain.StateConfirmed:
		e.stats.Executed(true, opp.NetProfitUSD)
	case executionDomain.StateReverted, executionDomain.StateStale:
		e.stats.Executed(false, decimal.Zero)
	}
}

// pairLiquidity looks up the candidate pair's best liquidity in the
// graph snapshot; zero when the pair (or a triangle) has no entry.
func (e *Engine) pairLiquidity(graph *discoveryDomain.Graph, opp *arbitrageDomain.Opportunity) decimal.Decimal {
	symbols := strings.Split(opp.Pair, "/")
	if len(symbols) != 2 {
		return decimal.Zero
	}
	tp, ok := graph.PairLookup()[discoveryDomain.PairSymbolKey(symbols[0], symbols[1])]
	if !ok {
		return decimal.Zero
	}
	return tp.BestLiquidityUSD
}

// watchTopPools subscribes the observer to Swap/Sync events on the most
// liquid active pools; advisory only.
func (e *Engine) watchTopPools(ctx context.Context) {
	if e.observer == nil {
		return
	}

	graph := e.discovery.Graph()
	pools := make([]common.Address, 0, watchPoolLimit)
	for _, tp := range graph.ArbitrageablePairs() {
		for _, p := range tp.Pools {
			pools = append(pools, p.Address)
			if len(pools) >= watchPoolLimit {
				break
			}
		}
		if len(pools) >= watchPoolLimit {
			break
		}
	}
	if len(pools) > 0 {
		e.observer.WatchPools(ctx, pools)
	}
}

// Stats exposes the counters for operators.
func (e *Engine) Stats() *Stats {
	return e.stats
}
