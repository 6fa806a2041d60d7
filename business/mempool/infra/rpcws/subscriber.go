// Package rpcws implements the raw JSON-RPC subscription transport for
// the mempool observer on top of the reconnecting WebSocket client.
package rpcws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sugawarayuuta/sonnet"

	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/wsconn"
)

// PendingTx is the raw pending transaction body from the node.
type PendingTx struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Input string `json:"input"`
	Value string `json:"value"`
}

// LogEvent is the raw log notification body.
type LogEvent struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	BlockNumber string   `json:"blockNumber"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcFrame struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Subscriber speaks eth_subscribe over a reconnecting WebSocket and
// fans raw notifications out on channels. Subscriptions are replayed
// after every reconnect.
type Subscriber struct {
	conn   *wsconn.Client
	logger logger.LoggerInterface

	nextID atomic.Uint64

	pending chan *PendingTx
	logs    chan *LogEvent

	mu        sync.Mutex
	poolAddrs []common.Address
	topics    []common.Hash

	done chan struct{}
	once sync.Once
}

// NewSubscriber creates a Subscriber over url.
func NewSubscriber(url string, log logger.LoggerInterface) *Subscriber {
	s := &Subscriber{
		conn:    wsconn.New(wsconn.DefaultConfig(url)),
		logger:  log,
		pending: make(chan *PendingTx, 2048),
		logs:    make(chan *LogEvent, 1024),
		done:    make(chan struct{}),
	}
	s.conn.OnReconnect = s.resubscribe
	return s
}

// Start connects and begins decoding frames.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.conn.Connect(ctx); err != nil {
		return err
	}
	go s.readLoop(ctx)
	return nil
}

// Pending returns the raw pending transaction stream.
func (s *Subscriber) Pending() <-chan *PendingTx {
	return s.pending
}

// Logs returns the raw pool event stream.
func (s *Subscriber) Logs() <-chan *LogEvent {
	return s.logs
}

// WatchPools replaces the pool-level log subscription set. It takes
// effect on the next (re)subscribe.
func (s *Subscriber) WatchPools(ctx context.Context, pools []common.Address, topics []common.Hash) {
	s.mu.Lock()
	s.poolAddrs = pools
	s.topics = topics
	s.mu.Unlock()
	s.resubscribe(ctx)
}

// Close terminates the transport. The output channels are left open.
func (s *Subscriber) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.conn.Close()
}

// resubscribe replays eth_subscribe calls; invoked on every connect.
func (s *Subscriber) resubscribe(ctx context.Context) {
	if err := s.send(ctx, "eth_subscribe", []any{"newPendingTransactions", true}); err != nil {
		s.logger.Warn(ctx, "pending-tx subscribe failed", "error", err)
	}

	s.mu.Lock()
	pools, topics := s.poolAddrs, s.topics
	s.mu.Unlock()

	if len(pools) > 0 {
		addrs := make([]string, len(pools))
		for i, a := range pools {
			addrs[i] = a.Hex()
		}
		topicStrs := make([]string, len(topics))
		for i, t := range topics {
			topicStrs[i] = t.Hex()
		}
		filter := map[string]any{"address": addrs}
		if len(topicStrs) > 0 {
			filter["topics"] = []any{topicStrs}
		}
		if err := s.send(ctx, "eth_subscribe", []any{"logs", filter}); err != nil {
			s.logger.Warn(ctx, "pool log subscribe failed", "error", err)
		}
	}
}

func (s *Subscriber) send(ctx context.Context, method string, params []any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      s.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	data, err := sonnet.Marshal(req)
	if err != nil {
		return err
	}
	return s.conn.Send(ctx, data)
}

// readLoop decodes frames off the socket. Notification payloads are
// classified by shape: pending transactions carry a hash, log events an
// address. Decode failures are dropped; the stream is advisory.
func (s *Subscriber) readLoop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case data, ok := <-s.conn.Messages():
			if !ok {
				return
			}
			s.handleFrame(ctx, data)
		}
	}
}

func (s *Subscriber) handleFrame(ctx context.Context, data []byte) {
	var frame rpcFrame
	if err := sonnet.Unmarshal(data, &frame); err != nil {
		s.logger.Debug(ctx, "undecodable frame", "error", err)
		return
	}

	if frame.Error != nil {
		s.logger.Warn(ctx, "subscription error frame",
			"code", frame.Error.Code, "message", frame.Error.Message)
		return
	}
	if frame.Method != "eth_subscription" || len(frame.Params.Result) == 0 {
		return
	}

	raw := frame.Params.Result

	var tx PendingTx
	if err := sonnet.Unmarshal(raw, &tx); err == nil && tx.Hash != "" && tx.Input != "" {
		select {
		case s.pending <- &tx:
		default:
			// advisory stream; drop on backpressure
		}
		return
	}

	var lg LogEvent
	if err := sonnet.Unmarshal(raw, &lg); err == nil && lg.Address != "" {
		select {
		case s.logs <- &lg:
		default:
		}
		return
	}

	s.logger.Debug(ctx, "unclassified subscription payload",
		"payload", fmt.Sprintf("%.80s", string(raw)))
}
