// Package ethereum provides blockchain infrastructure adapters.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/flasharb/flasharb-bot/business/blockchain/app"
	"github.com/flasharb/flasharb-bot/business/blockchain/domain"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/circuitbreaker"
	"github.com/flasharb/flasharb-bot/internal/logger"
)

const (
	tracerName = "blockchain-ethereum"
	meterName  = "blockchain-ethereum"
)

// Ensure HeadSubscriber implements the HeadSource port.
var _ app.HeadSource = (*HeadSubscriber)(nil)

// HeadSubscriberConfig holds configuration for the head subscription.
type HeadSubscriberConfig struct {
	PushURL        string        // ws endpoint (primary)
	HTTPURL        string        // polling fallback
	PollInterval   time.Duration // fallback poll cadence, ~1 block
	ReconnectDelay time.Duration
	BufferSize     int
}

// DefaultHeadSubscriberConfig returns sensible defaults for this chain.
func DefaultHeadSubscriberConfig(pushURL, httpURL string) HeadSubscriberConfig {
	return HeadSubscriberConfig{
		PushURL:        pushURL,
		HTTPURL:        httpURL,
		PollInterval:   2 * time.Second,
		ReconnectDelay: 5 * time.Second,
		BufferSize:     16,
	}
}

type headMetrics struct {
	headsReceived    metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	httpFallbackUsed metric.Int64Counter
}

// HeadSubscriber streams new-head fee observations, preferring the push
// transport and degrading to HTTP polling.
type HeadSubscriber struct {
	config HeadSubscriberConfig
	logger logger.LoggerInterface

	wsClient   *ethclient.Client
	httpClient *ethclient.Client
	clientMu   sync.RWMutex

	out    chan *domain.BlockFees
	done   chan struct{}
	closed atomic.Bool

	cb *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *headMetrics
}

// NewHeadSubscriber creates a HeadSubscriber.
func NewHeadSubscriber(cfg HeadSubscriberConfig, httpClient *ethclient.Client, log logger.LoggerInterface) (*HeadSubscriber, error) {
	s := &HeadSubscriber{
		config:     cfg,
		logger:     log,
		httpClient: httpClient,
		out:        make(chan *domain.BlockFees, cfg.BufferSize),
		done:       make(chan struct{}),
		cb:         circuitbreaker.New[*types.Header](circuitbreaker.DefaultConfig("eth-heads")),
		tracer:     otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *HeadSubscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &headMetrics{}

	s.metrics.headsReceived, err = meter.Int64Counter(
		"eth_heads_received_total",
		metric.WithDescription("New block heads received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_head_subscribe_errors_total",
		metric.WithDescription("Head subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"eth_head_http_fallback_total",
		metric.WithDescription("Times HTTP head polling was used"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

// Subscribe starts streaming fee observations.
func (s *HeadSubscriber) Subscribe(ctx context.Context) (<-chan *domain.BlockFees, error) {
	ctx, span := s.tracer.Start(ctx, "eth.subscribe_heads",
		trace.WithAttributes(attribute.String("push_url", s.config.PushURL)),
	)
	defer span.End()

	if s.closed.Load() {
		return nil, errors.New("head subscriber is closed")
	}

	if s.config.PushURL != "" {
		client, err := ethclient.DialContext(ctx, s.config.PushURL)
		if err == nil {
			s.clientMu.Lock()
			s.wsClient = client
			s.clientMu.Unlock()
			go s.runPush(ctx)
			span.SetStatus(codes.Ok, "push")
			return s.out, nil
		}
		span.AddEvent("push_dial_failed", trace.WithAttributes(attribute.String("error", err.Error())))
		s.logger.Warn(ctx, "push dial failed, polling heads over http", "error", err)
	}

	if s.httpClient == nil {
		return nil, apperror.New(apperror.CodeRPCConnectionFailed,
			apperror.WithContext("no head transport available"))
	}

	s.metrics.httpFallbackUsed.Add(ctx, 1)
	go s.runPoll(ctx)
	span.SetStatus(codes.Ok, "poll")
	return s.out, nil
}

func (s *HeadSubscriber) runPush(ctx context.Context) {
	headers := make(chan *types.Header, s.config.BufferSize)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.clientMu.RLock()
		client := s.wsClient
		s.clientMu.RUnlock()
		if client == nil {
			return
		}

		sub, err := client.SubscribeNewHead(ctx, headers)
		if err != nil {
			s.metrics.subscribeErrors.Add(ctx, 1)
			s.logger.Error(ctx, "subscribe new heads failed", "error", err)
			if !s.sleepReconnect(ctx) {
				return
			}
			continue
		}

		s.logger.Info(ctx, "subscribed to new heads")
		s.consume(ctx, headers, sub)
		sub.Unsubscribe()

		if !s.sleepReconnect(ctx) {
			return
		}
	}
}

func (s *HeadSubscriber) consume(ctx context.Context, headers <-chan *types.Header, sub interface{ Err() <-chan error }) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				s.metrics.subscribeErrors.Add(ctx, 1)
				s.logger.Error(ctx, "head subscription error", "error", err)
			}
			return
		case header := <-headers:
			if header != nil {
				s.emit(ctx, header)
			}
		}
	}
}

func (s *HeadSubscriber) runPoll(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	var lastSeen uint64
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			header, err := s.cb.Execute(func() (*types.Header, error) {
				return s.httpClient.HeaderByNumber(ctx, nil)
			})
			if err != nil {
				s.logger.Debug(ctx, "head poll failed", "error", err)
				continue
			}
			if header.Number.Uint64() == lastSeen {
				continue
			}
			lastSeen = header.Number.Uint64()
			s.emit(ctx, header)
		}
	}
}

func (s *HeadSubscriber) emit(ctx context.Context, header *types.Header) {
	if header.BaseFee == nil {
		return
	}
	s.metrics.headsReceived.Add(ctx, 1)

	fees := &domain.BlockFees{
		Number:   header.Number.Uint64(),
		BaseFee:  new(big.Int).Set(header.BaseFee),
		GasUsed:  header.GasUsed,
		GasLimit: header.GasLimit,
	}

	select {
	case s.out <- fees:
	default:
		// Oracle only needs recent fees; drop when the consumer lags.
	}
}

func (s *HeadSubscriber) sleepReconnect(ctx context.Context) bool {
	select {
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(s.config.ReconnectDelay):
		return true
	}
}

// Close stops the subscription.
func (s *HeadSubscriber) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.clientMu.Lock()
	if s.wsClient != nil {
		s.wsClient.Close()
		s.wsClient = nil
	}
	s.clientMu.Unlock()
	return nil
}
