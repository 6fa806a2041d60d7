// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration. The process takes no
// arguments; every field is sourced from environment variables.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Signer    SignerConfig    `mapstructure:"signer"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	DataDir     string `mapstructure:"data_dir"`
}

// ChainConfig holds RPC endpoint configuration.
type ChainConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	PushURL        string        `mapstructure:"push_url"`
	BackupURL      string        `mapstructure:"backup_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	PollIntervalMs int           `mapstructure:"poll_interval_ms"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PollInterval returns the engine cycle interval.
func (c *ChainConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// SignerConfig holds the execution signer configuration.
type SignerConfig struct {
	Key             string `mapstructure:"key"`
	ContractAddress string `mapstructure:"contract_address"`
}

// ContractAddressHex returns the executor contract address as common.Address.
func (c *SignerConfig) ContractAddressHex() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// DiscoveryConfig holds pool discovery and catalog settings.
type DiscoveryConfig struct {
	MinLiquidityUSD float64       `mapstructure:"min_liquidity_usd"`
	SnapshotPath    string        `mapstructure:"snapshot_path"`
	SnapshotMaxAge  time.Duration `mapstructure:"snapshot_max_age"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ScanChunkSize   uint64        `mapstructure:"scan_chunk_size"`
	RefreshBatch    int           `mapstructure:"refresh_batch"`
	BatchCooldown   time.Duration `mapstructure:"batch_cooldown"`
}

// MinLiquidityUSDDecimal returns the liquidity floor as decimal.Decimal.
func (c *DiscoveryConfig) MinLiquidityUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinLiquidityUSD)
}

// TradingConfig holds opportunity search and execution thresholds.
type TradingConfig struct {
	MinProfitUSD    float64 `mapstructure:"min_profit_usd"`
	MaxGasPriceGwei float64 `mapstructure:"max_gas_price_gwei"`
	SlippageBps     int64   `mapstructure:"slippage_bps"`
	FlashPremiumBps int64   `mapstructure:"flash_premium_bps"`
	TopK            int     `mapstructure:"top_k"`
	AggregatorKey   string  `mapstructure:"aggregator_key"`
	AggregatorURL   string  `mapstructure:"aggregator_url"`
	QuotePoolSize   int     `mapstructure:"quote_pool_size"`
}

// MinProfitUSDDecimal returns the profit floor as decimal.Decimal.
func (c *TradingConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// RiskConfig holds risk controller limits.
type RiskConfig struct {
	EnableCircuitBreaker bool    `mapstructure:"enable_circuit_breaker"`
	MaxTradesPerHour     int     `mapstructure:"max_trades_per_hour"`
	MaxDrawdownETH       float64 `mapstructure:"max_drawdown_eth"`
}

// MaxDrawdownWei returns the drawdown cap in wei.
func (c *RiskConfig) MaxDrawdownWei() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxDrawdownETH).Shift(18)
}

// RelayConfig holds private relay submission settings.
type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("FLASHARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLASHARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLASHARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLASHARB_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.data_dir", "FLASHARB_DATA_DIR", "DATA_DIR")

	// Chain
	v.BindEnv("chain.http_url", "RPC_URL_HTTP")
	v.BindEnv("chain.push_url", "RPC_URL_PUSH")
	v.BindEnv("chain.backup_url", "RPC_URL_BACKUP")
	v.BindEnv("chain.chain_id", "CHAIN_ID")
	v.BindEnv("chain.poll_interval_ms", "POLL_INTERVAL_MS")

	// Signer
	v.BindEnv("signer.key", "SIGNER_KEY")
	v.BindEnv("signer.contract_address", "CONTRACT_ADDRESS")

	// Discovery
	v.BindEnv("discovery.min_liquidity_usd", "MIN_LIQUIDITY_USD")
	v.BindEnv("discovery.snapshot_path", "POOLS_SNAPSHOT_PATH")

	// Trading
	v.BindEnv("trading.min_profit_usd", "MIN_PROFIT_USD")
	v.BindEnv("trading.max_gas_price_gwei", "MAX_GAS_PRICE_GWEI")
	v.BindEnv("trading.slippage_bps", "SLIPPAGE_BPS")
	v.BindEnv("trading.flash_premium_bps", "FLASH_PREMIUM_BPS")
	v.BindEnv("trading.aggregator_key", "AGGREGATOR_API_KEY")
	v.BindEnv("trading.aggregator_url", "AGGREGATOR_API_URL")

	// Risk
	v.BindEnv("risk.enable_circuit_breaker", "ENABLE_CIRCUIT_BREAKER")
	v.BindEnv("risk.max_trades_per_hour", "MAX_TRADES_PER_HOUR")
	v.BindEnv("risk.max_drawdown_eth", "MAX_DRAWDOWN_ETH")

	// Relay
	v.BindEnv("relay.enabled", "ENABLE_PRIVATE_RELAY")
	v.BindEnv("relay.url", "PRIVATE_RELAY_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLASHARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLASHARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLASHARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.data_dir", "./data")

	// Chain defaults (Base mainnet)
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.poll_interval_ms", 200)
	v.SetDefault("chain.connect_timeout", "15s")

	// Discovery defaults
	v.SetDefault("discovery.min_liquidity_usd", 10_000)
	v.SetDefault("discovery.snapshot_path", "./data/pools.json")
	v.SetDefault("discovery.snapshot_max_age", "168h") // 7 days
	v.SetDefault("discovery.refresh_interval", "5m")
	v.SetDefault("discovery.scan_chunk_size", 10_000)
	v.SetDefault("discovery.refresh_batch", 20)
	v.SetDefault("discovery.batch_cooldown", "200ms")

	// Trading defaults
	v.SetDefault("trading.min_profit_usd", 0.50)
	v.SetDefault("trading.max_gas_price_gwei", 0.5)
	v.SetDefault("trading.slippage_bps", 30)
	v.SetDefault("trading.flash_premium_bps", 5)
	v.SetDefault("trading.top_k", 1)
	v.SetDefault("trading.aggregator_url", "https://api.0x.org")
	v.SetDefault("trading.quote_pool_size", 10)

	// Risk defaults
	v.SetDefault("risk.enable_circuit_breaker", true)
	v.SetDefault("risk.max_trades_per_hour", 100)
	v.SetDefault("risk.max_drawdown_eth", 5)

	// Relay defaults
	v.SetDefault("relay.enabled", true)
	v.SetDefault("relay.url", "https://mempool.flashbots.net/fast")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb-bot")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.HTTPURL == "" {
		return fmt.Errorf("RPC_URL_HTTP is required")
	}
	if c.Signer.Key == "" {
		return fmt.Errorf("SIGNER_KEY is required")
	}
	if len(c.Signer.Key) != 64 && len(c.Signer.Key) != 66 {
		return fmt.Errorf("SIGNER_KEY must be a 32-byte hex secret")
	}
	if c.Signer.ContractAddress != "" && !common.IsHexAddress(c.Signer.ContractAddress) {
		return fmt.Errorf("invalid CONTRACT_ADDRESS: %s", c.Signer.ContractAddress)
	}
	if c.Trading.MaxGasPriceGwei <= 0 {
		return fmt.Errorf("MAX_GAS_PRICE_GWEI must be positive")
	}
	if c.Trading.SlippageBps < 0 || c.Trading.SlippageBps >= 10_000 {
		return fmt.Errorf("SLIPPAGE_BPS out of range: %d", c.Trading.SlippageBps)
	}
	if c.Risk.MaxTradesPerHour <= 0 {
		return fmt.Errorf("MAX_TRADES_PER_HOUR must be positive")
	}
	return nil
}
