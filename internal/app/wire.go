package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/cache/redis"
	"github.com/vulturelabs/vulturebot/internal/config"
	"github.com/vulturelabs/vulturebot/internal/crypto"
	"github.com/vulturelabs/vulturebot/internal/domain"
	"github.com/vulturelabs/vulturebot/internal/engine"
	"github.com/vulturelabs/vulturebot/internal/execution"
	"github.com/vulturelabs/vulturebot/internal/feed"
	"github.com/vulturelabs/vulturebot/internal/lifecycle"
	"github.com/vulturelabs/vulturebot/internal/metrics"
	"github.com/vulturelabs/vulturebot/internal/notify"
	"github.com/vulturelabs/vulturebot/internal/platform/polymarket"
	"github.com/vulturelabs/vulturebot/internal/session"
	"github.com/vulturelabs/vulturebot/internal/store/postgres"
	"github.com/vulturelabs/vulturebot/internal/strategy"
	"github.com/vulturelabs/vulturebot/internal/wallet"
)

// Dependencies bundles everything the engine needs, constructed by Wire and
// torn down by the returned cleanup function.
type Dependencies struct {
	Execution domain.Execution
	Fills     engine.FillChecker // nil in live mode
	Markets   *lifecycle.Manager
	Scalper   *strategy.Scalper
	Price     domain.PriceSource
	Feed      *feed.BinanceFeed
	Recorder  domain.SessionRecorder
	Notifier  *notify.Notifier
	Metrics   *metrics.Metrics // nil when disabled
	// ManualMarket is non-nil when auto-discovery is off.
	ManualMarket *domain.MarketInfo
}

// Wire constructs the dependency graph for the configured mode.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Metrics ---
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New()
	}

	// --- Spot price feed ---
	cell := feed.NewPriceCell()
	deps.Price = cell
	deps.Feed = feed.NewBinanceFeed(
		cfg.Feed.WsURL,
		cfg.Feed.RestURL,
		cfg.Feed.FallbackInterval.Duration,
		cell,
		logger,
	)

	// --- Session persistence ---
	var store session.SummaryStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store = postgres.NewSessionStore(pgClient.Pool())
	}

	var stream session.TickPublisher
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		stream = redis.NewTickStream(redisClient, cfg.Redis.StreamMaxLen)
	}

	deps.Recorder = session.NewRecorder(cfg.Session.OutputDir, store, stream, logger)

	// --- Market metadata ---
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost, cfg.Polymarket.CryptoPriceHost)

	// --- Execution backend ---
	switch cfg.Mode {
	case "paper":
		clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, nil, nil)
		paper := execution.NewPaperExecutor(decimalFromFloat(cfg.Paper.StartingCash), clob, logger)
		deps.Execution = paper
		deps.Fills = paper

	case "live":
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load key: %w", err)
		}
		signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}

		hmacAuth := &crypto.HMACAuth{
			Key:        cfg.Polymarket.ApiKey,
			Secret:     cfg.Polymarket.ApiSecret,
			Passphrase: cfg.Polymarket.ApiPassphrase,
		}
		clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, hmacAuth)
		if hmacAuth.Key == "" {
			if err := clob.DeriveAPIKey(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: derive api key: %w", err)
			}
		}

		w, err := wallet.Dial(ctx, cfg.Wallet.RpcURL,
			signer.Address(),
			common.HexToAddress(cfg.Wallet.UsdcAddress),
			logger,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
		ok, err := w.ValidateTradingBalance(ctx, decimalFromFloat(cfg.Wallet.MinBalanceUSDC))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: balance check: %w", err)
		}
		if !ok {
			cleanup()
			return nil, nil, fmt.Errorf("wire: insufficient trading balance for %s", signer.Address().Hex())
		}

		deps.Execution = execution.NewLiveExecutor(clob, signer.Address(), cfg.Polymarket.SignatureType, logger)

	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported mode %q", cfg.Mode)
	}

	// --- Lifecycle and strategy ---
	deps.Markets = lifecycle.NewManager(gamma, deps.Execution, cfg.Discovery.Asset, logger)
	deps.Scalper = strategy.NewScalper(deps.Execution, strategy.Params{
		MaxCapitalPerTrade: decimalFromFloat(cfg.Quant.MaxCapitalPerTrade),
		PanicDiscount:      decimalFromFloat(cfg.Quant.PanicDiscount),
		ScalpProfit:        decimalFromFloat(cfg.Quant.ScalpProfit),
		StopLoss:           decimalFromFloat(cfg.Quant.StopLoss),
	}, logger)

	if !cfg.Discovery.AutoDiscover {
		windowStart := cfg.Discovery.ExpiryUnix - 900
		info := lifecycle.ManualMarket(
			fmt.Sprintf("%s-updown-15m-%d", cfg.Discovery.Asset, windowStart),
			cfg.Discovery.TokenIDUp,
			cfg.Discovery.TokenIDDown,
			decimalFromFloat(cfg.Discovery.StrikePrice),
			time.Unix(cfg.Discovery.ExpiryUnix, 0),
		)
		deps.ManualMarket = &info
	}

	return deps, cleanup, nil
}

// rotationThreshold converts the configured seconds into a duration.
func rotationThreshold(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Engine.RotationThresholdSecs) * time.Second
}

// decimalFromFloat converts a config float into the decimal type used on
// the trading path.
func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
