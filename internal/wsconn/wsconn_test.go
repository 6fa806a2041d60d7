package wsconn

import (
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://mainnet.base.org", "wss://mainnet.base.org"},
		{"http://localhost:8545", "ws://localhost:8545"},
		{"wss://mainnet.base.org", "wss://mainnet.base.org"},
		{"ws://localhost:8545", "ws://localhost:8545"},
	}

	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultConfigBackoffSchedule(t *testing.T) {
	cfg := DefaultConfig("wss://example.org")

	if cfg.InitialBackoff != 5*time.Second {
		t.Errorf("InitialBackoff = %v, want 5s", cfg.InitialBackoff)
	}
	if cfg.BackoffFactor != 1.5 {
		t.Errorf("BackoffFactor = %v, want 1.5", cfg.BackoffFactor)
	}
	if cfg.MaxBackoff != 60*time.Second {
		t.Errorf("MaxBackoff = %v, want 60s", cfg.MaxBackoff)
	}
	if cfg.MaxReconnects != 10 || cfg.RateLimitCap != 20 {
		t.Errorf("attempt caps = %d/%d, want 10/20", cfg.MaxReconnects, cfg.RateLimitCap)
	}
}

func TestClientStateLifecycle(t *testing.T) {
	c := New(DefaultConfig("ws://127.0.0.1:1"))

	if c.State() != StateDisconnected {
		t.Fatalf("initial state = %s, want disconnected", c.State())
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state after close = %s, want disconnected", c.State())
	}

	// Close is idempotent.
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
