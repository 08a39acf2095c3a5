// Package config defines the top-level configuration for the trading bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by VULTURE_* environment variables.
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Quant      QuantConfig      `toml:"quant"`
	Paper      PaperConfig      `toml:"paper"`
	Discovery  DiscoveryConfig  `toml:"discovery"`
	Feed       FeedConfig       `toml:"feed"`
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	Session    SessionConfig    `toml:"session"`
	Notify     NotifyConfig     `toml:"notify"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// EngineConfig holds the tick loop parameters.
type EngineConfig struct {
	TickInterval duration `toml:"tick_interval"`
	// RotationThresholdSecs is the time-to-expiry below which the engine
	// abandons the current market and rotates to the next window.
	RotationThresholdSecs int `toml:"rotation_threshold_secs"`
}

// QuantConfig holds the pricing and risk parameters.
type QuantConfig struct {
	MaxCapitalPerTrade float64 `toml:"max_capital_per_trade"`
	PanicDiscount      float64 `toml:"panic_discount"`
	ScalpProfit        float64 `toml:"scalp_profit"`
	StopLoss           float64 `toml:"stop_loss"`
	MaxSpread          float64 `toml:"max_spread"`
}

// PaperConfig holds simulator parameters for paper mode.
type PaperConfig struct {
	StartingCash float64 `toml:"starting_cash"`
}

// DiscoveryConfig holds market discovery parameters. With AutoDiscover off
// the bot trades one manually pinned market; token ids, strike, and expiry
// must then be provided.
type DiscoveryConfig struct {
	// Asset is the underlying symbol used to build candidate slugs.
	Asset        string `toml:"asset"`
	AutoDiscover bool   `toml:"auto_discover"`

	// Manual market pin, used only when AutoDiscover is false.
	TokenIDUp   string  `toml:"token_id_up"`
	TokenIDDown string  `toml:"token_id_down"`
	StrikePrice float64 `toml:"strike_price"`
	ExpiryUnix  int64   `toml:"expiry_unix"`
}

// FeedConfig holds spot price feed parameters.
type FeedConfig struct {
	WsURL            string   `toml:"ws_url"`
	RestURL          string   `toml:"rest_url"`
	FallbackInterval duration `toml:"fallback_interval"`
}

// WalletConfig holds Ethereum wallet credentials and chain access.
type WalletConfig struct {
	PrivateKey       string  `toml:"private_key"`
	EncryptedKeyPath string  `toml:"encrypted_key_path"`
	KeyPassword      string  `toml:"key_password"`
	RpcURL           string  `toml:"rpc_url"`
	UsdcAddress      string  `toml:"usdc_address"`
	MinBalanceUSDC   float64 `toml:"min_balance_usdc"`
}

// PolymarketConfig holds Polymarket API endpoints, chain parameters, and L2
// API credentials.
type PolymarketConfig struct {
	ClobHost        string `toml:"clob_host"`
	GammaHost       string `toml:"gamma_host"`
	CryptoPriceHost string `toml:"crypto_price_host"`
	ChainID         int    `toml:"chain_id"`
	SignatureType   int    `toml:"signature_type"`
	ApiKey          string `toml:"api_key"`
	ApiSecret       string `toml:"api_secret"`
	ApiPassphrase   string `toml:"api_passphrase"`
}

// PostgresConfig holds PostgreSQL connection parameters for session
// persistence. Disabled by default; the bot runs fine with JSON-file sessions
// only.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the live tick stream.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	StreamMaxLen int64  `toml:"stream_max_len"`
}

// SessionConfig holds session recording parameters.
type SessionConfig struct {
	OutputDir string `toml:"output_dir"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// MetricsConfig holds the Prometheus/health HTTP listener parameters.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "500ms", "5s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "500ms" or "5s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			TickInterval:          duration{500 * time.Millisecond},
			RotationThresholdSecs: 30,
		},
		Quant: QuantConfig{
			MaxCapitalPerTrade: 20.0,
			PanicDiscount:      0.08,
			ScalpProfit:        0.01,
			StopLoss:           0.10,
			MaxSpread:          0.50,
		},
		Paper: PaperConfig{
			StartingCash: 100.0,
		},
		Discovery: DiscoveryConfig{
			Asset:        "btc",
			AutoDiscover: true,
		},
		Feed: FeedConfig{
			WsURL:            "wss://stream.binance.com:9443/ws/btcusdt@trade",
			RestURL:          "https://api.binance.com/api/v3/ticker/price?symbol=BTCUSDT",
			FallbackInterval: duration{5 * time.Second},
		},
		Wallet: WalletConfig{
			RpcURL:         "https://polygon-rpc.com",
			UsdcAddress:    "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
			MinBalanceUSDC: 1.0,
		},
		Polymarket: PolymarketConfig{
			ClobHost:        "https://clob.polymarket.com",
			GammaHost:       "https://gamma-api.polymarket.com",
			CryptoPriceHost: "https://polymarket.com/api/crypto/crypto-price",
			ChainID:         137,
			SignatureType:   1,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "vulturebot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     20,
			MaxRetries:   3,
			TLSEnabled:   false,
			StreamMaxLen: 10_000,
		},
		Session: SessionConfig{
			OutputDir: ".",
		},
		Notify: NotifyConfig{
			Events: []string{"order_filled", "position_closed", "market_rotated", "error"},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"paper": true,
	"live":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: paper, live)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	if c.Engine.TickInterval.Duration <= 0 {
		errs = append(errs, "engine: tick_interval must be positive")
	}
	if c.Engine.RotationThresholdSecs < 10 || c.Engine.RotationThresholdSecs > 300 {
		errs = append(errs, fmt.Sprintf("engine: rotation_threshold_secs must be 10-300, got %d", c.Engine.RotationThresholdSecs))
	}

	// Quant
	if c.Quant.MaxCapitalPerTrade <= 0 {
		errs = append(errs, "quant: max_capital_per_trade must be > 0")
	}
	if c.Quant.PanicDiscount < 0 || c.Quant.PanicDiscount >= 0.50 {
		errs = append(errs, fmt.Sprintf("quant: panic_discount must be in [0, 0.50), got %v", c.Quant.PanicDiscount))
	}
	if c.Quant.ScalpProfit <= 0 {
		errs = append(errs, "quant: scalp_profit must be > 0")
	}
	if c.Quant.StopLoss <= 0 {
		errs = append(errs, "quant: stop_loss must be > 0")
	}
	if c.Quant.MaxSpread <= 0 || c.Quant.MaxSpread > 1 {
		errs = append(errs, fmt.Sprintf("quant: max_spread must be in (0, 1], got %v", c.Quant.MaxSpread))
	}

	// Paper
	if c.Mode == "paper" && c.Paper.StartingCash <= 0 {
		errs = append(errs, "paper: starting_cash must be > 0")
	}
	if c.Quant.MaxCapitalPerTrade > c.Paper.StartingCash && c.Mode == "paper" {
		errs = append(errs, "quant: max_capital_per_trade must not exceed paper starting_cash")
	}

	// Discovery
	if c.Discovery.Asset == "" {
		errs = append(errs, "discovery: asset must not be empty")
	}
	if !c.Discovery.AutoDiscover {
		if c.Discovery.TokenIDUp == "" {
			errs = append(errs, "discovery: token_id_up must be set when auto_discover is disabled")
		}
		if c.Discovery.TokenIDDown == "" {
			errs = append(errs, "discovery: token_id_down must be set when auto_discover is disabled")
		}
		if c.Discovery.StrikePrice <= 0 {
			errs = append(errs, "discovery: strike_price must be positive when auto_discover is disabled")
		}
		if c.Discovery.ExpiryUnix <= 0 {
			errs = append(errs, "discovery: expiry_unix must be set when auto_discover is disabled")
		}
	}

	// Feed
	if c.Feed.WsURL == "" {
		errs = append(errs, "feed: ws_url must not be empty")
	}
	if c.Feed.RestURL == "" {
		errs = append(errs, "feed: rest_url must not be empty")
	}
	if c.Feed.FallbackInterval.Duration <= 0 {
		errs = append(errs, "feed: fallback_interval must be positive")
	}

	// Polymarket endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.SignatureType != 1 && c.Polymarket.SignatureType != 2 {
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 1 (EOA) or 2 (Safe), got %d", c.Polymarket.SignatureType))
	}

	// Live mode needs a wallet and L2 API credentials.
	if c.Mode == "live" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for live mode")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Wallet.RpcURL == "" {
			errs = append(errs, "wallet: rpc_url must not be empty for live mode")
		}
	}

	// Polymarket L2 creds must be set together or not at all.
	pk := c.Polymarket.ApiKey != ""
	ps := c.Polymarket.ApiSecret != ""
	pp := c.Polymarket.ApiPassphrase != ""
	if pk || ps || pp {
		if !(pk && ps && pp) {
			errs = append(errs, "polymarket: api_key, api_secret, and api_passphrase must all be set together")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.StreamMaxLen < 1 {
			errs = append(errs, "redis: stream_max_len must be >= 1")
		}
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			errs = append(errs, fmt.Sprintf("metrics: port must be 1-65535, got %d", c.Metrics.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
