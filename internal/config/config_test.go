package config

import (
	"testing"
	"time"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_URL_HTTP", "https://mainnet.base.org")
	t.Setenv("SIGNER_KEY", testKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Chain.ChainID != 8453 {
		t.Errorf("chain id = %d, want 8453", cfg.Chain.ChainID)
	}
	if cfg.Chain.PollInterval() != 200*time.Millisecond {
		t.Errorf("poll interval = %v, want 200ms", cfg.Chain.PollInterval())
	}
	if cfg.Trading.MinProfitUSD != 0.50 {
		t.Errorf("min profit = %v, want 0.50", cfg.Trading.MinProfitUSD)
	}
	if cfg.Trading.MaxGasPriceGwei != 0.5 {
		t.Errorf("max gas = %v, want 0.5", cfg.Trading.MaxGasPriceGwei)
	}
	if cfg.Trading.SlippageBps != 30 {
		t.Errorf("slippage = %d, want 30", cfg.Trading.SlippageBps)
	}
	if cfg.Trading.FlashPremiumBps != 5 {
		t.Errorf("flash premium = %d, want 5", cfg.Trading.FlashPremiumBps)
	}
	if cfg.Discovery.MinLiquidityUSD != 10_000 {
		t.Errorf("min liquidity = %v, want 10000", cfg.Discovery.MinLiquidityUSD)
	}
	if cfg.Discovery.SnapshotMaxAge != 7*24*time.Hour {
		t.Errorf("snapshot max age = %v, want 168h", cfg.Discovery.SnapshotMaxAge)
	}
	if !cfg.Relay.Enabled {
		t.Error("private relay should default on")
	}
	if !cfg.Risk.EnableCircuitBreaker {
		t.Error("circuit breaker should default on")
	}
	if cfg.Risk.MaxTradesPerHour != 100 {
		t.Errorf("hourly limit = %d, want 100", cfg.Risk.MaxTradesPerHour)
	}
	if cfg.Risk.MaxDrawdownETH != 5 {
		t.Errorf("max drawdown = %v, want 5", cfg.Risk.MaxDrawdownETH)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_PROFIT_USD", "2.5")
	t.Setenv("MAX_TRADES_PER_HOUR", "7")
	t.Setenv("ENABLE_PRIVATE_RELAY", "false")
	t.Setenv("POLL_INTERVAL_MS", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.MinProfitUSD != 2.5 {
		t.Errorf("min profit = %v, want 2.5", cfg.Trading.MinProfitUSD)
	}
	if cfg.Risk.MaxTradesPerHour != 7 {
		t.Errorf("hourly limit = %d, want 7", cfg.Risk.MaxTradesPerHour)
	}
	if cfg.Relay.Enabled {
		t.Error("relay should be disabled by env")
	}
	if cfg.Chain.PollInterval() != 500*time.Millisecond {
		t.Errorf("poll interval = %v, want 500ms", cfg.Chain.PollInterval())
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("RPC_URL_HTTP", "")
	t.Setenv("SIGNER_KEY", testKey)
	if _, err := Load(); err == nil {
		t.Error("missing RPC_URL_HTTP must fail")
	}

	t.Setenv("RPC_URL_HTTP", "https://mainnet.base.org")
	t.Setenv("SIGNER_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("missing SIGNER_KEY must fail")
	}

	t.Setenv("SIGNER_KEY", "deadbeef")
	if _, err := Load(); err == nil {
		t.Error("short SIGNER_KEY must fail")
	}
}

func TestValidate_Ranges(t *testing.T) {
	setRequired(t)
	t.Setenv("SLIPPAGE_BPS", "10000")
	if _, err := Load(); err == nil {
		t.Error("slippage of 100% must fail validation")
	}
}

func TestMaxDrawdownWei(t *testing.T) {
	c := RiskConfig{MaxDrawdownETH: 5}
	want := "5000000000000000000"
	if got := c.MaxDrawdownWei().String(); got != want {
		t.Errorf("MaxDrawdownWei = %s, want %s", got, want)
	}
}
