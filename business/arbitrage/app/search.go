package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	discoveryDomain "github.com/flasharb/flasharb-bot/business/discovery/domain"
	quotesApp "github.com/flasharb/flasharb-bot/business/quotes/app"
	quotesDomain "github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/token"
)

const (
	tracerName = "arbitrage"
	meterName  = "arbitrage"
)

type searcherMetrics struct {
	candidatesFound metric.Int64Counter
	searchCycles    metric.Int64Counter
}

// SearcherConfig holds search parameters.
type SearcherConfig struct {
	TopK int
}

// Searcher enumerates the six strategy families each cycle and returns
// the best opportunities net of all costs.
type Searcher struct {
	quotes *quotesApp.Engine
	tokens *token.Registry
	calc   *Calculator
	cfg    SearcherConfig
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *searcherMetrics
}

// NewSearcher creates a Searcher.
func NewSearcher(quotes *quotesApp.Engine, tokens *token.Registry, calc *Calculator, cfg SearcherConfig, log logger.LoggerInterface) (*Searcher, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	s := &Searcher{
		quotes: quotes,
		tokens: tokens,
		calc:   calc,
		cfg:    cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Searcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &searcherMetrics{}

	s.metrics.candidatesFound, err = meter.Int64Counter(
		"arb_candidates_total",
		metric.WithDescription("Accepted candidates per strategy"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return err
	}

	s.metrics.searchCycles, err = meter.Int64Counter(
		"arb_search_cycles_total",
		metric.WithDescription("Strategy search cycles run"),
		metric.WithUnit("{cycle}"),
	)
	return err
}

// Search runs every strategy family against one graph snapshot and
// returns the top-k opportunities by descending net USD profit.
func (s *Searcher) Search(ctx context.Context, graph *discoveryDomain.Graph) []*domain.Opportunity {
	ctx, span := s.tracer.Start(ctx, "arbitrage.search")
	defer span.End()

	s.metrics.searchCycles.Add(ctx, 1)

	var found []*domain.Opportunity
	found = append(found, s.searchDirect(ctx)...)
	found = append(found, s.searchLST(ctx)...)
	found = append(found, s.searchStable(ctx)...)
	found = append(found, s.searchTriangular(ctx, graph)...)
	found = append(found, s.searchZeroX(ctx)...)
	found = append(found, s.searchDynamic(ctx, graph)...)

	sort.Slice(found, func(i, j int) bool {
		return found[i].NetProfitUSD.GreaterThan(found[j].NetProfitUSD)
	})

	if len(found) > s.cfg.TopK {
		found = found[:s.cfg.TopK]
	}

	span.SetAttributes(attribute.Int("opportunities", len(found)))
	return found
}

// directLoop quotes A→B on every venue, then B→A for each buy leg,
// rejecting loops that enter and exit through the identical
// (venue, fee tier).
func (s *Searcher) directLoop(ctx context.Context, kind domain.StrategyKind, borrowAsset, other common.Address, schedule []*big.Int) []*domain.Opportunity {
	pair := s.tokens.SymbolOf(borrowAsset) + "/" + s.tokens.SymbolOf(other)

	var out []*domain.Opportunity
	for _, borrow := range schedule {
		buys := s.quotes.QuotesFor(ctx, borrowAsset, other, borrow)
		for _, buy := range buys {
			sells := s.quotes.QuotesFor(ctx, other, borrowAsset, buy.AmountOut)
			for _, sell := range sells {
				if sell.SameVenueAndTier(buy) {
					continue
				}
				opp := s.calc.Build(kind, pair, borrowAsset, borrow, []*quotesDomain.Quote{buy, sell})
				if opp != nil {
					s.metrics.candidatesFound.Add(ctx, 1,
						metric.WithAttributes(attribute.String("strategy", string(kind))))
					out = append(out, opp)
				}
			}
		}
	}
	return out
}

func (s *Searcher) scheduleFor(addr common.Address) []*big.Int {
	info, ok := s.tokens.Get(addr)
	if !ok {
		return nil
	}
	return domain.BorrowSchedule(info.Class, info.Decimals)
}

func (s *Searcher) searchDirect(ctx context.Context) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, p := range curatedDirect {
		out = append(out, s.directLoop(ctx, domain.StrategyDirect, p.borrow, p.other, s.scheduleFor(p.borrow))...)
	}
	return out
}

func (s *Searcher) searchLST(ctx context.Context) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, p := range lstPairs {
		out = append(out, s.directLoop(ctx, domain.StrategyLST, p.borrow, p.other, s.scheduleFor(p.borrow))...)
	}
	return out
}

func (s *Searcher) searchStable(ctx context.Context) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, p := range stablePairs {
		info, ok := s.tokens.Get(p.borrow)
		if !ok {
			continue
		}
		out = append(out, s.directLoop(ctx, domain.StrategyStable, p.borrow, p.other, domain.StableArbSchedule(info.Decimals))...)
	}
	return out
}

// searchTriangular runs the curated triangles plus the graph-derived
// ones, taking the best quote on each of the three edges.
func (s *Searcher) searchTriangular(ctx context.Context, graph *discoveryDomain.Graph) []*domain.Opportunity {
	triangles := make([][3]common.Address, 0, len(curatedTriangles))
	triangles = append(triangles, curatedTriangles...)

	for _, tri := range graph.TriangularPaths(s.tokens.BorrowableBySymbol) {
		addrs, ok := s.resolveTriangle(tri)
		if !ok {
			continue
		}
		triangles = append(triangles, addrs)
	}

	var out []*domain.Opportunity
	seen := make(map[[3]common.Address]bool, len(triangles))
	for _, tri := range triangles {
		if seen[tri] {
			continue
		}
		seen[tri] = true
		out = append(out, s.triangleLoop(ctx, tri)...)
	}
	return out
}

func (s *Searcher) resolveTriangle(tri discoveryDomain.Triangle) ([3]common.Address, bool) {
	var addrs [3]common.Address
	for i, sym := range tri {
		addr, ok := s.tokens.AddressOf(sym)
		if !ok {
			return addrs, false
		}
		addrs[i] = addr
	}
	return addrs, true
}

func (s *Searcher) triangleLoop(ctx context.Context, tri [3]common.Address) []*domain.Opportunity {
	a, b, c := tri[0], tri[1], tri[2]
	if !s.tokens.IsBorrowable(a) {
		return nil
	}

	pair := fmt.Sprintf("%s/%s/%s", s.tokens.SymbolOf(a), s.tokens.SymbolOf(b), s.tokens.SymbolOf(c))

	var out []*domain.Opportunity
	for _, borrow := range s.scheduleFor(a) {
		q1 := s.quotes.Best(ctx, a, b, borrow)
		if q1 == nil {
			continue
		}
		q2 := s.quotes.Best(ctx, b, c, q1.AmountOut)
		if q2 == nil {
			continue
		}
		q3 := s.quotes.Best(ctx, c, a, q2.AmountOut)
		if q3 == nil {
			continue
		}

		opp := s.calc.Build(domain.StrategyTriangular, pair, a, borrow, []*quotesDomain.Quote{q1, q2, q3})
		if opp != nil {
			s.metrics.candidatesFound.Add(ctx, 1,
				metric.WithAttributes(attribute.String("strategy", string(domain.StrategyTriangular))))
			out = append(out, opp)
		}
	}
	return out
}

// searchZeroX routes the buy leg through the aggregator's firm quote
// and the sell leg through the best direct venue. Without calldata the
// opportunity is not actionable and is skipped.
func (s *Searcher) searchZeroX(ctx context.Context) []*domain.Opportunity {
	var out []*domain.Opportunity
	for _, p := range curatedDirect {
		pair := s.tokens.SymbolOf(p.borrow) + "/" + s.tokens.SymbolOf(p.other)

		for _, borrow := range s.scheduleFor(p.borrow) {
			buy, err := s.quotes.FirmQuote(ctx, p.borrow, p.other, borrow)
			if err != nil || buy == nil || len(buy.ExtraData) == 0 {
				continue
			}

			var sell *quotesDomain.Quote
			for _, q := range s.quotes.QuotesFor(ctx, p.other, p.borrow, buy.AmountOut) {
				if q.VenueID != buy.VenueID {
					sell = q
					break
				}
			}
			if sell == nil {
				continue
			}

			opp := s.calc.Build(domain.StrategyZeroX, pair, p.borrow, borrow, []*quotesDomain.Quote{buy, sell})
			if opp != nil {
				s.metrics.candidatesFound.Add(ctx, 1,
					metric.WithAttributes(attribute.String("strategy", string(domain.StrategyZeroX))))
				out = append(out, opp)
			}
		}
	}
	return out
}

// searchDynamic tries graph-surfaced pairs that are not in the curated
// tables, best-liquidity first.
func (s *Searcher) searchDynamic(ctx context.Context, graph *discoveryDomain.Graph) []*domain.Opportunity {
	curated := make(map[string]bool)
	for _, p := range curatedDirect {
		curated[pairKey(p.borrow, p.other)] = true
	}
	for _, p := range lstPairs {
		curated[pairKey(p.borrow, p.other)] = true
	}
	for _, p := range stablePairs {
		curated[pairKey(p.borrow, p.other)] = true
	}

	var out []*domain.Opportunity
	tried := 0
	for _, tp := range graph.ArbitrageablePairs() {
		if tried >= maxDynamicPairs {
			break
		}
		if curated[pairKey(tp.TokenA, tp.TokenB)] {
			continue
		}

		borrowAsset, other := tp.TokenA, tp.TokenB
		if !s.tokens.IsBorrowable(borrowAsset) {
			borrowAsset, other = tp.TokenB, tp.TokenA
			if !s.tokens.IsBorrowable(borrowAsset) {
				continue
			}
		}

		tried++
		out = append(out, s.directLoop(ctx, domain.StrategyDynamic, borrowAsset, other, s.scheduleFor(borrowAsset))...)
	}
	return out
}

func pairKey(a, b common.Address) string {
	return discoveryDomain.PairSymbolKey(a.Hex(), b.Hex())
}
