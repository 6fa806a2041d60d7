package ethereum

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/blockchain/app"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

// Ensure PriceFeed implements the PriceSource port.
var _ app.PriceSource = (*PriceFeed)(nil)

const slot0ABI = `[
	{
		"inputs": [],
		"name": "slot0",
		"outputs": [
			{"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
			{"internalType": "int24", "name": "tick", "type": "int24"},
			{"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
			{"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
			{"internalType": "bool", "name": "unlocked", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// anchorPool prices one asset against a USD stable from a deep v3 pool.
type anchorPool struct {
	pool         common.Address
	baseIsToken0 bool // base = the asset being priced; quote = USD
	dec0, dec1   int32
}

var (
	// WETH/USDC 0.05% on Base: token0 WETH (18), token1 USDC (6).
	ethAnchor = anchorPool{
		pool:         common.HexToAddress("0xd0b53D9277642d899DF5C87A3966A349A798F224"),
		baseIsToken0: true,
		dec0:         18,
		dec1:         6,
	}
	// USDC/cbBTC 0.05% on Base: token0 USDC (6), token1 cbBTC (8).
	btcAnchor = anchorPool{
		pool:         common.HexToAddress("0xfBB6Eed8e7aa03B138556eeDaF5D271A5E1e43ef"),
		baseIsToken0: false,
		dec0:         6,
		dec1:         8,
	}
)

var feedQ96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// PriceFeed derives the ETH and BTC USD anchors from canonical deep
// pools' slot0 readings.
type PriceFeed struct {
	client *ethclient.Client
	abi    abi.ABI
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewPriceFeed creates a PriceFeed.
func NewPriceFeed(client *ethclient.Client, log logger.LoggerInterface) (*PriceFeed, error) {
	parsed, err := abi.JSON(strings.NewReader(slot0ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot0 ABI: %w", err)
	}
	return &PriceFeed{
		client: client,
		abi:    parsed,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Prices reads both anchors.
func (f *PriceFeed) Prices(ctx context.Context) (float64, float64, error) {
	ctx, span := f.tracer.Start(ctx, "pricefeed.prices")
	defer span.End()

	ethUSD, err := f.anchorPrice(ctx, ethAnchor)
	if err != nil {
		return 0, 0, err
	}
	btcUSD, err := f.anchorPrice(ctx, btcAnchor)
	if err != nil {
		return 0, 0, err
	}

	span.SetAttributes(
		attribute.Float64("eth_usd", ethUSD),
		attribute.Float64("btc_usd", btcUSD),
	)
	return ethUSD, btcUSD, nil
}

// anchorPrice converts sqrtPriceX96 to a human USD price:
// p(token1 per token0) = (√P / 2^96)² × 10^(dec0−dec1).
func (f *PriceFeed) anchorPrice(ctx context.Context, a anchorPool) (float64, error) {
	data, err := f.abi.Pack("slot0")
	if err != nil {
		return 0, err
	}

	out, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &a.pool, Data: data}, nil)
	if err != nil {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("slot0 %s", a.pool.Hex())))
	}

	vals, err := f.abi.Unpack("slot0", out)
	if err != nil || len(vals) < 1 {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("slot0 decode"))
	}

	sqrtPriceX96 := vals[0].(*big.Int)
	if sqrtPriceX96.Sign() == 0 {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("zero sqrt price"))
	}

	sqrtP := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), feedQ96)
	ratio := new(big.Float).Mul(sqrtP, sqrtP)
	p, _ := ratio.Float64()
	p *= math.Pow10(int(a.dec0 - a.dec1))

	if !a.baseIsToken0 {
		if p == 0 {
			return 0, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithContext("degenerate price"))
		}
		p = 1 / p
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("non-finite price"))
	}
	return p, nil
}
