// Package aggregator implements the HTTP quote adapter for a 0x-style
// aggregator API.
package aggregator

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/quotes/app"
	"github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/httpclient"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/ratelimit"
)

const (
	tracerName = "aggregator"

	// minRequestInterval spaces API calls to stay inside the free tier.
	minRequestInterval = 350 * time.Millisecond

	requestTimeout = 10 * time.Second

	// aggregatorGasEstimate covers the router hop when the API omits one.
	aggregatorGasEstimate = 250_000
)

// Ensure Client implements both quote ports.
var (
	_ app.Adapter    = (*Client)(nil)
	_ app.FirmQuoter = (*Client)(nil)
)

// Config holds aggregator API settings.
type Config struct {
	BaseURL string
	APIKey  string
	ChainID uint64
}

// priceResponse is the indicative /price payload (no calldata).
type priceResponse struct {
	BuyAmount string `json:"buyAmount"`
	Gas       string `json:"gas"`
}

// quoteResponse is the firm /quote payload (with calldata).
type quoteResponse struct {
	BuyAmount string `json:"buyAmount"`
	Gas       string `json:"gas"`
	To        string `json:"to"`
	Data      string `json:"data"`
}

// Client quotes through the aggregator REST API. Rate-limit and timeout
// failures degrade to no quote; they never abort a batch.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates an aggregator Client.
func NewClient(cfg Config, log logger.LoggerInterface) *Client {
	opts := []httpclient.Option{httpclient.WithTimeout(requestTimeout)}
	if cfg.APIKey != "" {
		opts = append(opts, httpclient.WithHeader("0x-api-key", cfg.APIKey))
	}

	return &Client{
		cfg:     cfg,
		http:    httpclient.New(cfg.BaseURL, opts...),
		limiter: ratelimit.NewInterval(minRequestInterval),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// VenueID returns the aggregator venue identifier.
func (c *Client) VenueID() string {
	return "0x-aggregator"
}

// Quotes returns one indicative quote from the /price endpoint.
func (c *Client) Quotes(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*domain.Quote, error) {
	ctx, span := c.tracer.Start(ctx, "aggregator.price",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp priceResponse
	err := c.http.GetJSON(ctx, "/swap/v1/price", c.params(tokenIn, tokenOut, amountIn), &resp)
	if err != nil {
		return nil, c.degrade(ctx, span, err)
	}

	q := c.toQuote(tokenIn, tokenOut, amountIn, resp.BuyAmount, resp.Gas, nil)
	if q == nil {
		return nil, nil
	}
	return []*domain.Quote{q}, nil
}

// FirmQuote hits the /quote endpoint and returns a calldata-bearing
// quote suitable for execution.
func (c *Client) FirmQuote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*domain.Quote, error) {
	ctx, span := c.tracer.Start(ctx, "aggregator.quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp quoteResponse
	err := c.http.GetJSON(ctx, "/swap/v1/quote", c.params(tokenIn, tokenOut, amountIn), &resp)
	if err != nil {
		return nil, c.degrade(ctx, span, err)
	}

	var calldata []byte
	if resp.Data != "" {
		calldata, err = hexutil.Decode(resp.Data)
		if err != nil {
			return nil, apperror.New(apperror.CodeAggregatorError,
				apperror.WithCause(err),
				apperror.WithContext("malformed calldata"))
		}
	}

	return c.toQuote(tokenIn, tokenOut, amountIn, resp.BuyAmount, resp.Gas, calldata), nil
}

func (c *Client) params(tokenIn, tokenOut common.Address, amountIn *big.Int) url.Values {
	return url.Values{
		"sellToken":  {tokenIn.Hex()},
		"buyToken":   {tokenOut.Hex()},
		"sellAmount": {amountIn.String()},
	}
}

// degrade maps rate limits and timeouts to a silent no-quote; other
// failures surface as aggregator errors.
func (c *Client) degrade(ctx context.Context, span trace.Span, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		span.AddEvent("rate_limited")
		c.logger.Debug(ctx, "aggregator rate limited, degrading")
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		span.AddEvent("timeout")
		c.logger.Debug(ctx, "aggregator request timed out, degrading")
		return nil
	}
	return apperror.New(apperror.CodeAggregatorError, apperror.WithCause(err))
}

func (c *Client) toQuote(tokenIn, tokenOut common.Address, amountIn *big.Int, buyAmount, gas string, calldata []byte) *domain.Quote {
	amountOut, ok := new(big.Int).SetString(buyAmount, 10)
	if !ok || amountOut.Sign() == 0 {
		return nil
	}

	gasEst := uint64(aggregatorGasEstimate)
	if g, ok := new(big.Int).SetString(gas, 10); ok && g.Sign() > 0 {
		gasEst = g.Uint64()
	}

	return &domain.Quote{
		VenueID:     c.VenueID(),
		VenueName:   "0x",
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		GasEstimate: gasEst,
		ExtraData:   calldata,
	}
}
