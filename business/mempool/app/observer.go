package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/mempool/domain"
	"github.com/flasharb/flasharb-bot/business/mempool/infra/rpcws"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/token"
)

const (
	tracerName = "mempool"
	meterName  = "mempool"
)

// Pool event topics the observer can watch.
var (
	TopicV2Sync = crypto.Keccak256Hash([]byte("Sync(uint112,uint112)"))
	TopicV2Swap = crypto.Keccak256Hash([]byte("Swap(address,uint256,uint256,uint256,uint256,address)"))
	TopicV3Swap = crypto.Keccak256Hash([]byte("Swap(address,address,int256,int256,uint160,uint128,int24)"))
)

type observerMetrics struct {
	pendingSeen   metric.Int64Counter
	swapsDecoded  metric.Int64Counter
	decodeSkipped metric.Int64Counter
	poolUpdates   metric.Int64Counter
}

// Observer consumes the raw subscription streams, decodes router swaps
// and republishes typed events. It is strictly advisory: every publish
// is non-blocking and the engine never waits on it.
type Observer struct {
	sub    *rpcws.Subscriber
	heur   *Heuristics
	tokens *token.Registry
	logger logger.LoggerInterface

	mu         sync.RWMutex
	swapSubs   []chan *domain.PendingSwap
	updateSubs []chan *domain.PoolUpdate

	done chan struct{}
	once sync.Once

	tracer  trace.Tracer
	metrics *observerMetrics
}

// NewObserver creates an Observer over the raw subscriber.
func NewObserver(sub *rpcws.Subscriber, heur *Heuristics, tokens *token.Registry, log logger.LoggerInterface) (*Observer, error) {
	o := &Observer{
		sub:    sub,
		heur:   heur,
		tokens: tokens,
		logger: log,
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}
	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return o, nil
}

func (o *Observer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &observerMetrics{}

	o.metrics.pendingSeen, err = meter.Int64Counter(
		"mempool_pending_seen_total",
		metric.WithDescription("Pending transactions observed"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	o.metrics.swapsDecoded, err = meter.Int64Counter(
		"mempool_swaps_decoded_total",
		metric.WithDescription("Router swaps decoded"),
		metric.WithUnit("{swap}"),
	)
	if err != nil {
		return err
	}

	o.metrics.decodeSkipped, err = meter.Int64Counter(
		"mempool_decode_skipped_total",
		metric.WithDescription("Pending transactions skipped or undecodable"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	o.metrics.poolUpdates, err = meter.Int64Counter(
		"mempool_pool_updates_total",
		metric.WithDescription("Pool Swap/Sync events republished"),
		metric.WithUnit("{event}"),
	)
	return err
}

// Start connects the transport and launches the decode consumers.
func (o *Observer) Start(ctx context.Context) error {
	if err := o.sub.Start(ctx); err != nil {
		return err
	}
	go o.consumePending(ctx)
	go o.consumeLogs(ctx)
	return nil
}

// SubscribeSwaps returns a channel of decoded pending swaps.
func (o *Observer) SubscribeSwaps() <-chan *domain.PendingSwap {
	ch := make(chan *domain.PendingSwap, 256)
	o.mu.Lock()
	o.swapSubs = append(o.swapSubs, ch)
	o.mu.Unlock()
	return ch
}

// SubscribePoolUpdates returns a channel of pool event notifications.
func (o *Observer) SubscribePoolUpdates() <-chan *domain.PoolUpdate {
	ch := make(chan *domain.PoolUpdate, 256)
	o.mu.Lock()
	o.updateSubs = append(o.updateSubs, ch)
	o.mu.Unlock()
	return ch
}

// WatchPools sets the pool-level log subscription.
func (o *Observer) WatchPools(ctx context.Context, pools []common.Address) {
	o.sub.WatchPools(ctx, pools, []common.Hash{TopicV2Sync, TopicV2Swap, TopicV3Swap})
}

// Recommend returns the current MEV bidding recommendation.
func (o *Observer) Recommend(baseSlippageBps int64) domain.Recommendation {
	return o.heur.Recommend(baseSlippageBps)
}

// Close stops the decode consumers and terminates the subscription.
// Transactions and logs still queued in the subscriber are not decoded.
func (o *Observer) Close() error {
	o.once.Do(func() { close(o.done) })
	return o.sub.Close()
}

func (o *Observer) consumePending(ctx context.Context) {
	for {
		select {
		case <-o.done:
			return
		case <-ctx.Done():
			return
		case tx, ok := <-o.sub.Pending():
			if !ok {
				return
			}
			o.handlePending(ctx, tx)
		}
	}
}

func (o *Observer) handlePending(ctx context.Context, tx *rpcws.PendingTx) {
	o.metrics.pendingSeen.Add(ctx, 1)

	if tx.To == "" || !common.IsHexAddress(tx.To) {
		return
	}
	router := common.HexToAddress(tx.To)
	if _, known := KnownRouters[router]; !known {
		return
	}

	input, err := hexutil.Decode(tx.Input)
	if err != nil {
		o.metrics.decodeSkipped.Add(ctx, 1)
		return
	}

	swap, err := DecodeSwap(
		common.HexToAddress(tx.From),
		router,
		common.HexToHash(tx.Hash),
		input,
		time.Now().UnixMilli(),
	)
	if err != nil {
		o.metrics.decodeSkipped.Add(ctx, 1)
		o.logger.Debug(ctx, "pending swap decode failed", "tx", tx.Hash, "error", err)
		return
	}

	o.metrics.swapsDecoded.Add(ctx, 1)
	o.heur.Observe(swap)

	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.swapSubs {
		select {
		case ch <- swap:
		default:
			// subscribers must not block the decode path
		}
	}
}

func (o *Observer) consumeLogs(ctx context.Context) {
	for {
		select {
		case <-o.done:
			return
		case <-ctx.Done():
			return
		case lg, ok := <-o.sub.Logs():
			if !ok {
				return
			}
			o.handleLog(ctx, lg)
		}
	}
}

func (o *Observer) handleLog(ctx context.Context, lg *rpcws.LogEvent) {
	if !common.IsHexAddress(lg.Address) || len(lg.Topics) == 0 {
		return
	}

	update := &domain.PoolUpdate{
		Pool:        common.HexToAddress(lg.Address),
		Topic:       common.HexToHash(lg.Topics[0]),
		BlockNumber: ParseHexBig(lg.BlockNumber).Uint64(),
		SeenMs:      time.Now().UnixMilli(),
	}

	o.metrics.poolUpdates.Add(ctx, 1)

	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.updateSubs {
		select {
		case ch <- update:
		default:
		}
	}
}
