// Package wsconn provides a reconnecting WebSocket client used as the
// push transport for chain subscriptions.
package wsconn

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	InitialBackoff time.Duration
	BackoffFactor  float64
	MaxBackoff     time.Duration
	MaxReconnects  int // attempt cap; raised when the endpoint rate-limits
	RateLimitCap   int
	WriteTimeout   time.Duration
}

// DefaultConfig returns the reconnect schedule used against RPC providers.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		ConnectTimeout: 15 * time.Second,
		InitialBackoff: 5 * time.Second,
		BackoffFactor:  1.5,
		MaxBackoff:     60 * time.Second,
		MaxReconnects:  10,
		RateLimitCap:   20,
		WriteTimeout:   10 * time.Second,
	}
}

// NormalizeURL rewrites http(s) schemes to ws(s).
func NormalizeURL(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return url
	}
}

// Client is a reconnecting WebSocket client. Incoming frames are delivered
// on Messages; OnReconnect fires after every successful (re)connection so
// callers can replay their subscriptions.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	messages chan []byte
	done     chan struct{}
	closed   atomic.Bool

	// OnReconnect is invoked on the reader goroutine after each connect.
	OnReconnect func(ctx context.Context)
}

// New creates a Client. The URL scheme is normalized http→ws.
func New(config Config) *Client {
	config.URL = NormalizeURL(config.URL)
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 1.5
	}
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 1024),
		done:     make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	go c.readLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, c.config.URL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return ErrRateLimited
		}
		return err
	}
	conn.SetReadLimit(16 << 20)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// ErrRateLimited marks a 429 during dial; it raises the retry cap.
var ErrRateLimited = errors.New("wsconn: rate limited")

// Send writes one text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return errors.New("wsconn: not connected")
	}

	writeCtx, cancel := context.WithTimeout(ctx, c.config.WriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, msg)
}

// Messages returns the channel of received frames.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close terminates the connection and stops reconnection.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	c.setState(StateDisconnected)
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "shutdown")
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	if c.OnReconnect != nil {
		c.OnReconnect(ctx)
	}

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
			c.reconnect(ctx)
			continue
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// reconnect retries the dial with exponential backoff. A rate-limited
// dial still counts as an attempt and raises the cap to RateLimitCap.
func (c *Client) reconnect(ctx context.Context) {
	c.setState(StateReconnecting)

	backoff := c.config.InitialBackoff
	maxAttempts := c.config.MaxReconnects

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		err := c.dial(ctx)
		if err == nil {
			c.setState(StateConnected)
			if c.OnReconnect != nil {
				c.OnReconnect(ctx)
			}
			return
		}
		if errors.Is(err, ErrRateLimited) && maxAttempts < c.config.RateLimitCap {
			maxAttempts = c.config.RateLimitCap
		}

		backoff = time.Duration(float64(backoff) * c.config.BackoffFactor)
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}
	}

	c.setState(StateDisconnected)
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}
