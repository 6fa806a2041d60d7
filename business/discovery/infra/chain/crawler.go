package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const (
	tracerName = "discovery-chain"
	meterName  = "discovery-chain"
)

// crawlerMetrics holds OTEL metric instruments.
type crawlerMetrics struct {
	chunksScanned metric.Int64Counter
	poolsFound    metric.Int64Counter
	scanErrors    metric.Int64Counter
}

// Crawler scans factory event logs for pool creations.
type Crawler struct {
	client    *ethclient.Client
	chunkSize uint64
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *crawlerMetrics
}

// NewCrawler creates a Crawler scanning in chunkSize block windows.
func NewCrawler(client *ethclient.Client, chunkSize uint64, log logger.LoggerInterface) (*Crawler, error) {
	c := &Crawler{
		client:    client,
		chunkSize: chunkSize,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Crawler) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &crawlerMetrics{}

	c.metrics.chunksScanned, err = meter.Int64Counter(
		"discovery_chunks_scanned_total",
		metric.WithDescription("Factory log chunks scanned"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return err
	}

	c.metrics.poolsFound, err = meter.Int64Counter(
		"discovery_pools_found_total",
		metric.WithDescription("Pool creation events decoded"),
		metric.WithUnit("{pool}"),
	)
	if err != nil {
		return err
	}

	c.metrics.scanErrors, err = meter.Int64Counter(
		"discovery_scan_errors_total",
		metric.WithDescription("Per-chunk log scan failures"),
		metric.WithUnit("{error}"),
	)
	return err
}

// LatestBlock returns the current chain head number.
func (c *Crawler) LatestBlock(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// ScanFactory scans one factory's creation events over [from, to],
// invoking emit for each decoded pool. Per-chunk RPC failures are
// logged at debug level and skipped; a partial scan is not an error.
func (c *Crawler) ScanFactory(ctx context.Context, f Factory, from, to uint64, emit func(*domain.Pool)) error {
	ctx, span := c.tracer.Start(ctx, "discovery.scan_factory",
		trace.WithAttributes(
			attribute.String("venue", f.VenueID),
			attribute.Int64("from", int64(from)),
			attribute.Int64("to", int64(to)),
		),
	)
	defer span.End()

	found := 0
	for start := from; start <= to; start += c.chunkSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := start + c.chunkSize - 1
		if end > to {
			end = to
		}

		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{f.Address},
			Topics:    [][]common.Hash{{schemaTopic(f.Schema)}},
		}

		logs, err := c.client.FilterLogs(ctx, query)
		if err != nil {
			c.metrics.scanErrors.Add(ctx, 1)
			c.logger.Debug(ctx, "log chunk failed, skipping",
				"venue", f.VenueID, "from", start, "to", end, "error", err)
			continue
		}
		c.metrics.chunksScanned.Add(ctx, 1)

		for _, lg := range logs {
			pool, err := decodeCreation(f, lg)
			if err != nil {
				c.logger.Debug(ctx, "undecodable creation event",
					"venue", f.VenueID, "block", lg.BlockNumber, "error", err)
				continue
			}
			found++
			emit(pool)
		}
	}

	c.metrics.poolsFound.Add(ctx, int64(found))
	span.SetAttributes(attribute.Int("pools", found))
	span.SetStatus(codes.Ok, "scanned")

	c.logger.Info(ctx, "factory scan complete",
		"venue", f.VenueID, "from", from, "to", to, "pools", found)
	return nil
}

func schemaTopic(s EventSchema) common.Hash {
	switch s {
	case SchemaV3PoolCreated:
		return topicV3PoolCreated
	case SchemaV2PairCreated:
		return topicV2PairCreated
	case SchemaStablePoolCreated:
		return topicStablePoolCreated
	case SchemaTickPoolCreated:
		return topicTickPoolCreated
	default:
		return common.Hash{}
	}
}

// decodeCreation turns one factory log into an inactive Pool record.
func decodeCreation(f Factory, lg types.Log) (*domain.Pool, error) {
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("short topic list: %d", len(lg.Topics))
	}
	token0 := topicAddress(lg.Topics[1])
	token1 := topicAddress(lg.Topics[2])
	if token0 == token1 {
		return nil, fmt.Errorf("token0 == token1")
	}

	switch f.Schema {
	case SchemaV3PoolCreated:
		if len(lg.Topics) < 4 {
			return nil, fmt.Errorf("missing fee topic")
		}
		fee := new(big.Int).SetBytes(lg.Topics[3].Bytes()).Int64()
		vals, err := intAddrAbi.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		pool := vals[1].(common.Address)
		return domain.NewPool(f.VenueID, f.VenueKind, pool, token0, token1, fee), nil

	case SchemaV2PairCreated:
		vals, err := addrUintAbi.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		pair := vals[0].(common.Address)
		return domain.NewPool(f.VenueID, f.VenueKind, pair, token0, token1, feeBpsV2), nil

	case SchemaStablePoolCreated:
		if len(lg.Topics) < 4 {
			return nil, fmt.Errorf("missing stable topic")
		}
		stable := lg.Topics[3].Big().Sign() != 0
		fee := int64(feeBpsVolatile)
		if stable {
			fee = feeBpsStable
		}
		vals, err := addrUintAbi.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		pool := vals[0].(common.Address)
		return domain.NewPool(f.VenueID, f.VenueKind, pool, token0, token1, fee), nil

	case SchemaTickPoolCreated:
		if len(lg.Topics) < 4 {
			return nil, fmt.Errorf("missing tick spacing topic")
		}
		spacing := new(big.Int).SetBytes(lg.Topics[3].Bytes())
		// int24 topics are sign-extended to 32 bytes
		if lg.Topics[3][0] == 0xff {
			return nil, fmt.Errorf("negative tick spacing")
		}
		vals, err := addrOnlyAbi.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		addr := vals[0].(common.Address)
		pool := domain.NewPool(f.VenueID, f.VenueKind, addr, token0, token1, spacing.Int64())
		// Tick-spacing pools carry CL state; Solidly-style stable pools
		// from the non-tick schema stay reserve-based.
		pool.Concentrated = true
		return pool, nil

	default:
		return nil, fmt.Errorf("unknown schema %q", f.Schema)
	}
}
