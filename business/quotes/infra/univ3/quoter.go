package univ3

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/quotes/app"
	"github.com/flasharb/flasharb-bot/business/quotes/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/circuitbreaker"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const tracerName = "univ3"

// Ensure Quoter implements the Adapter port.
var _ app.Adapter = (*Quoter)(nil)

// Config parameterizes a Quoter for one venue.
type Config struct {
	VenueID   string
	VenueName string
	Quoter    common.Address
	FeeTiers  []int64
}

// Quoter quotes exact-input-single swaps via a QuoterV2 contract,
// probing a fixed set of fee tiers and keeping the non-zero outputs.
type Quoter struct {
	client    *ethclient.Client
	cfg       Config
	quoterABI abi.ABI
	logger    logger.LoggerInterface
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	tracer    trace.Tracer
}

// NewQuoter creates a v3 Quoter for one venue.
func NewQuoter(client *ethclient.Client, cfg Config, log logger.LoggerInterface) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}
	if len(cfg.FeeTiers) == 0 {
		cfg.FeeTiers = DefaultFeeTiers
	}

	return &Quoter{
		client:    client,
		cfg:       cfg,
		quoterABI: parsedABI,
		logger:    log,
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(cfg.VenueID + "-quoter")),
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// VenueID returns the venue identifier.
func (q *Quoter) VenueID() string {
	return q.cfg.VenueID
}

// Quotes probes every fee tier, retaining non-zero outputs.
func (q *Quoter) Quotes(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*domain.Quote, error) {
	ctx, span := q.tracer.Start(ctx, "univ3.quotes",
		trace.WithAttributes(
			attribute.String("venue", q.cfg.VenueID),
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()

	var out []*domain.Quote
	for _, tier := range q.cfg.FeeTiers {
		raw, err := q.quoteTier(ctx, tokenIn, tokenOut, amountIn, tier)
		if err != nil {
			span.AddEvent("tier_failed", trace.WithAttributes(
				attribute.Int64("tier", tier),
				attribute.String("error", err.Error()),
			))
			continue
		}
		if raw.AmountOut.Sign() == 0 {
			continue
		}

		out = append(out, &domain.Quote{
			VenueID:          q.cfg.VenueID,
			VenueName:        q.cfg.VenueName,
			TokenIn:          tokenIn,
			TokenOut:         tokenOut,
			AmountIn:         amountIn,
			AmountOut:        raw.AmountOut,
			FeeOrTickSpacing: tier,
			GasEstimate:      raw.GasEstimate.Uint64(),
		})
	}

	span.SetAttributes(attribute.Int("tiers_quoted", len(out)))
	return out, nil
}

func (q *Quoter) quoteTier(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, tier int64) (*RawQuote, error) {
	callData, err := q.quoterABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(tier),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := q.cb.Execute(func() ([]byte, error) {
		return q.client.CallContract(ctx, ethereum.CallMsg{
			To:   &q.cfg.Quoter,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoter call failed for tier %d", tier)))
	}

	outputs, err := q.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if len(outputs) < 4 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	return &RawQuote{
		AmountOut:               outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
	}, nil
}
