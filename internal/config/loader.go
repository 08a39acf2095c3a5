package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies VULTURE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known VULTURE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setDuration(&cfg.Engine.TickInterval, "VULTURE_ENGINE_TICK_INTERVAL")
	setInt(&cfg.Engine.RotationThresholdSecs, "VULTURE_ENGINE_ROTATION_THRESHOLD_SECS")

	// ── Quant ──
	setFloat64(&cfg.Quant.MaxCapitalPerTrade, "VULTURE_QUANT_MAX_CAPITAL_PER_TRADE")
	setFloat64(&cfg.Quant.PanicDiscount, "VULTURE_QUANT_PANIC_DISCOUNT")
	setFloat64(&cfg.Quant.ScalpProfit, "VULTURE_QUANT_SCALP_PROFIT")
	setFloat64(&cfg.Quant.StopLoss, "VULTURE_QUANT_STOP_LOSS")
	setFloat64(&cfg.Quant.MaxSpread, "VULTURE_QUANT_MAX_SPREAD")

	// ── Paper ──
	setFloat64(&cfg.Paper.StartingCash, "VULTURE_PAPER_STARTING_CASH")

	// ── Discovery ──
	setStr(&cfg.Discovery.Asset, "VULTURE_DISCOVERY_ASSET")
	setBool(&cfg.Discovery.AutoDiscover, "VULTURE_DISCOVERY_AUTO_DISCOVER")
	setStr(&cfg.Discovery.TokenIDUp, "VULTURE_DISCOVERY_TOKEN_ID_UP")
	setStr(&cfg.Discovery.TokenIDDown, "VULTURE_DISCOVERY_TOKEN_ID_DOWN")
	setFloat64(&cfg.Discovery.StrikePrice, "VULTURE_DISCOVERY_STRIKE_PRICE")
	setInt64(&cfg.Discovery.ExpiryUnix, "VULTURE_DISCOVERY_EXPIRY_UNIX")

	// ── Feed ──
	setStr(&cfg.Feed.WsURL, "VULTURE_FEED_WS_URL")
	setStr(&cfg.Feed.RestURL, "VULTURE_FEED_REST_URL")
	setDuration(&cfg.Feed.FallbackInterval, "VULTURE_FEED_FALLBACK_INTERVAL")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "VULTURE_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "VULTURE_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "VULTURE_WALLET_KEY_PASSWORD")
	setStr(&cfg.Wallet.RpcURL, "VULTURE_WALLET_RPC_URL")
	setStr(&cfg.Wallet.UsdcAddress, "VULTURE_WALLET_USDC_ADDRESS")
	setFloat64(&cfg.Wallet.MinBalanceUSDC, "VULTURE_WALLET_MIN_BALANCE_USDC")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "VULTURE_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "VULTURE_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.CryptoPriceHost, "VULTURE_POLYMARKET_CRYPTO_PRICE_HOST")
	setInt(&cfg.Polymarket.ChainID, "VULTURE_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "VULTURE_POLYMARKET_SIGNATURE_TYPE")
	setStr(&cfg.Polymarket.ApiKey, "VULTURE_POLYMARKET_API_KEY")
	setStr(&cfg.Polymarket.ApiSecret, "VULTURE_POLYMARKET_API_SECRET")
	setStr(&cfg.Polymarket.ApiPassphrase, "VULTURE_POLYMARKET_API_PASSPHRASE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "VULTURE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "VULTURE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "VULTURE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "VULTURE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "VULTURE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "VULTURE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "VULTURE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "VULTURE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "VULTURE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "VULTURE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "VULTURE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "VULTURE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "VULTURE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "VULTURE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "VULTURE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "VULTURE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "VULTURE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "VULTURE_REDIS_TLS_ENABLED")
	setInt64(&cfg.Redis.StreamMaxLen, "VULTURE_REDIS_STREAM_MAX_LEN")

	// ── Session ──
	setStr(&cfg.Session.OutputDir, "VULTURE_SESSION_OUTPUT_DIR")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "VULTURE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "VULTURE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "VULTURE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "VULTURE_NOTIFY_EVENTS")

	// ── Metrics ──
	setBool(&cfg.Metrics.Enabled, "VULTURE_METRICS_ENABLED")
	setInt(&cfg.Metrics.Port, "VULTURE_METRICS_PORT")

	// ── Top-level ──
	setStr(&cfg.Mode, "VULTURE_MODE")
	setStr(&cfg.LogLevel, "VULTURE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
