package relay

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const tracerName = "relay"

// bundleParams is the eth_sendBundle request body.
type bundleParams struct {
	Txs         []hexutil.Bytes `json:"txs"`
	BlockNumber string          `json:"blockNumber"`
}

// Client posts signed transaction bundles to the private relay RPC.
type Client struct {
	rpc    *rpc.Client
	url    string
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient dials the relay endpoint.
func NewClient(ctx context.Context, url string, log logger.LoggerInterface) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("private relay dial"))
	}
	return &Client{rpc: c, url: url, logger: log, tracer: otel.Tracer(tracerName)}, nil
}

// SendBundle submits one signed transaction targeting targetBlock.
func (c *Client) SendBundle(ctx context.Context, tx *types.Transaction, targetBlock uint64) error {
	ctx, span := c.tracer.Start(ctx, "relay.send_bundle",
		trace.WithAttributes(
			attribute.String("tx", tx.Hash().Hex()),
			attribute.Int64("target_block", int64(targetBlock)),
		),
	)
	defer span.End()

	raw, err := tx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal tx: %w", err)
	}

	params := bundleParams{
		Txs:         []hexutil.Bytes{raw},
		BlockNumber: hexutil.EncodeUint64(targetBlock),
	}

	var result any
	if err := c.rpc.CallContext(ctx, &result, "eth_sendBundle", params); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bundle rejected")
		return apperror.New(apperror.CodeRelayRejected, apperror.WithCause(err))
	}

	span.SetStatus(codes.Ok, "submitted")
	c.logger.Debug(ctx, "bundle submitted", "tx", tx.Hash().Hex(), "target_block", targetBlock)
	return nil
}

// Close releases the RPC client.
func (c *Client) Close() {
	c.rpc.Close()
}
