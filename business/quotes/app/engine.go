package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const (
	tracerName = "quotes"
	meterName  = "quotes"
)

type engineMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteErrors  metric.Int64Counter
	quoteResults metric.Int64Histogram
}

// Engine fans one quote request out to every venue adapter under a
// bounded pool. Adapter failures are isolated; a venue that errors
// simply contributes nothing to the batch.
type Engine struct {
	adapters []Adapter
	poolSize int
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *engineMetrics
}

// NewEngine creates a quote Engine with the given concurrency bound.
func NewEngine(adapters []Adapter, poolSize int, log logger.LoggerInterface) (*Engine, error) {
	if poolSize <= 0 {
		poolSize = 10
	}
	e := &Engine{
		adapters: adapters,
		poolSize: poolSize,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.quotesTotal, err = meter.Int64Counter(
		"quote_requests_total",
		metric.WithDescription("Quote fan-outs requested"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	e.metrics.quoteErrors, err = meter.Int64Counter(
		"quote_adapter_errors_total",
		metric.WithDescription("Per-adapter quote failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	e.metrics.quoteResults, err = meter.Int64Histogram(
		"quote_results_per_request",
		metric.WithDescription("Quotes returned per fan-out"),
		metric.WithUnit("{quote}"),
	)
	return err
}

// QuotesFor requests tokenIn→tokenOut quotes from every adapter and
// returns the merged results sorted by descending amountOut.
func (e *Engine) QuotesFor(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) []*domain.Quote {
	ctx, span := e.tracer.Start(ctx, "quotes.fan_out",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	e.metrics.quotesTotal.Add(ctx, 1)

	sem := make(chan struct{}, e.poolSize)
	results := make(chan []*domain.Quote, len(e.adapters))

	var wg sync.WaitGroup
	for _, a := range e.adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			quotes, err := a.Quotes(ctx, tokenIn, tokenOut, amountIn)
			if err != nil {
				e.metrics.quoteErrors.Add(ctx, 1,
					metric.WithAttributes(attribute.String("venue", a.VenueID())))
				e.logger.Debug(ctx, "adapter quote failed",
					"venue", a.VenueID(), "error", err)
				return
			}
			if len(quotes) > 0 {
				results <- quotes
			}
		}(a)
	}

	wg.Wait()
	close(results)

	var merged []*domain.Quote
	for batch := range results {
		for _, q := range batch {
			if q != nil && q.AmountOut != nil && q.AmountOut.Sign() > 0 {
				merged = append(merged, q)
			}
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].AmountOut.Cmp(merged[j].AmountOut) > 0
	})

	e.metrics.quoteResults.Record(ctx, int64(len(merged)))
	span.SetAttributes(attribute.Int("results", len(merged)))
	return merged
}

// Best returns the best quote for the pair, or nil when no venue served.
func (e *Engine) Best(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) *domain.Quote {
	quotes := e.QuotesFor(ctx, tokenIn, tokenOut, amountIn)
	if len(quotes) == 0 {
		return nil
	}
	return quotes[0]
}

// FirmQuote asks the first adapter capable of firm quotes (the
// aggregator) for calldata-bearing pricing.
func (e *Engine) FirmQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*domain.Quote, error) {
	for _, a := range e.adapters {
		if fq, ok := a.(FirmQuoter); ok {
			return fq.FirmQuote(ctx, tokenIn, tokenOut, amountIn)
		}
	}
	return nil, nil
}
