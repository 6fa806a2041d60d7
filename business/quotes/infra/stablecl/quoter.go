// Package stablecl implements the quote adapter for stable-CL venues
// whose quoter keys pools by tick spacing instead of fee tier.
package stablecl

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

const tracerName = "stablecl"

// quoterABI is the tick-spacing flavor of quoteExactInputSingle.
const quoterABIJSON = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "int24", "name": "tickSpacing", "type": "int24"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct IQuoter.QuoteExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
			{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	TickSpacing       *big.Int // int24
	SqrtPriceLimitX96 *big.Int // uint160
}

// Ensure Quoter implements the Adapter port.
var _ app.Adapter = (*Quoter)(nil)

// Config parameterizes a Quoter for one stable-CL venue.
type Config struct {
	VenueID      string
	VenueName    string
	Quoter       common.Address
	TickSpacings []int64
}

// Quoter probes a venue-specific set of tick spacings.
type Quoter struct {
	client    *ethclient.Client
	cfg       Config
	quoterABI abi.ABI
	logger    logger.LoggerInterface
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	tracer    trace.Tracer
}

// NewQuoter creates a stable-CL Quoter.
func NewQuoter(client *ethclient.Client, cfg Config, log logger.LoggerInterface) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(quoterABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
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

// Quotes probes every tick spacing, retaining non-zero outputs.
func (q *Quoter) Quotes(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) ([]*domain.Quote, error) {
	ctx, span := q.tracer.Start(ctx, "stablecl.quotes",
		trace.WithAttributes(
			attribute.String("venue", q.cfg.VenueID),
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()

	var out []*domain.Quote
	for _, spacing := range q.cfg.TickSpacings {
		amountOut, gasEst, err := q.quoteSpacing(ctx, tokenIn, tokenOut, amountIn, spacing)
		if err != nil {
			span.AddEvent("spacing_failed", trace.WithAttributes(
				attribute.Int64("tick_spacing", spacing),
				attribute.String("error", err.Error()),
			))
			continue
		}
		if amountOut.Sign() == 0 {
			continue
		}

		out = append(out, &domain.Quote{
			VenueID:          q.cfg.VenueID,
			VenueName:        q.cfg.VenueName,
			TokenIn:          tokenIn,
			TokenOut:         tokenOut,
			AmountIn:         amountIn,
			AmountOut:        amountOut,
			FeeOrTickSpacing: spacing,
			GasEstimate:      gasEst,
		})
	}

	span.SetAttributes(attribute.Int("spacings_quoted", len(out)))
	return out, nil
}

func (q *Quoter) quoteSpacing(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, spacing int64) (*big.Int, uint64, error) {
	callData, err := q.quoterABI.Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		TickSpacing:       big.NewInt(spacing),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := q.cb.Execute(func() ([]byte, error) {
		return q.client.CallContract(ctx, ethereum.CallMsg{
			To:   &q.cfg.Quoter,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoter call failed for spacing %d", spacing)))
	}

	outputs, err := q.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode result: %w", err)
	}
	if len(outputs) < 4 {
		return nil, 0, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	return outputs[0].(*big.Int), outputs[3].(*big.Int).Uint64(), nil
}
