package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "backtest"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("error should mention mode: %v", err)
	}
}

func TestValidateRotationThresholdBounds(t *testing.T) {
	for _, secs := range []int{9, 301, 0, -5} {
		cfg := Defaults()
		cfg.Engine.RotationThresholdSecs = secs
		if err := cfg.Validate(); err == nil {
			t.Fatalf("rotation_threshold_secs=%d should be rejected", secs)
		}
	}
	for _, secs := range []int{10, 30, 300} {
		cfg := Defaults()
		cfg.Engine.RotationThresholdSecs = secs
		if err := cfg.Validate(); err != nil {
			t.Fatalf("rotation_threshold_secs=%d should be accepted: %v", secs, err)
		}
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "nope"
	cfg.Quant.MaxCapitalPerTrade = -1
	cfg.Feed.WsURL = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"unknown mode", "max_capital_per_trade", "ws_url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %q: %v", want, err)
		}
	}
}

func TestValidateLiveModeRequiresWallet(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "live"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "private_key or encrypted_key_path") {
		t.Fatalf("live mode without wallet should fail: %v", err)
	}

	cfg.Wallet.PrivateKey = "0xabc"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("live mode with private key should validate: %v", err)
	}
}

func TestValidateMaxCapitalVsStartingCash(t *testing.T) {
	cfg := Defaults()
	cfg.Quant.MaxCapitalPerTrade = 500
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "starting_cash") {
		t.Fatalf("capital above paper cash should fail: %v", err)
	}
}

func TestValidateManualMarketMode(t *testing.T) {
	cfg := Defaults()
	cfg.Discovery.AutoDiscover = false
	err := cfg.Validate()
	if err == nil {
		t.Fatal("manual mode without market pin should fail")
	}
	for _, want := range []string{"token_id_up", "token_id_down", "strike_price", "expiry_unix"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %q: %v", want, err)
		}
	}

	cfg.Discovery.TokenIDUp = "111"
	cfg.Discovery.TokenIDDown = "222"
	cfg.Discovery.StrikePrice = 98500
	cfg.Discovery.ExpiryUnix = 1757000700
	if err := cfg.Validate(); err != nil {
		t.Fatalf("pinned manual mode should validate: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "paper"

[engine]
tick_interval = "250ms"
rotation_threshold_secs = 45

[quant]
panic_discount = 0.05
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TickInterval.Duration != 250*time.Millisecond {
		t.Errorf("tick_interval = %v, want 250ms", cfg.Engine.TickInterval.Duration)
	}
	if cfg.Engine.RotationThresholdSecs != 45 {
		t.Errorf("rotation_threshold_secs = %d, want 45", cfg.Engine.RotationThresholdSecs)
	}
	if cfg.Quant.PanicDiscount != 0.05 {
		t.Errorf("panic_discount = %v, want 0.05", cfg.Quant.PanicDiscount)
	}
	// Untouched fields keep their defaults.
	if cfg.Quant.StopLoss != 0.10 {
		t.Errorf("stop_loss = %v, want default 0.10", cfg.Quant.StopLoss)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VULTURE_MODE", "live")
	t.Setenv("VULTURE_WALLET_PRIVATE_KEY", "0xdeadbeef")
	t.Setenv("VULTURE_ENGINE_TICK_INTERVAL", "1s")
	t.Setenv("VULTURE_PAPER_STARTING_CASH", "250.5")
	t.Setenv("VULTURE_NOTIFY_EVENTS", "order_filled, error")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Mode != "live" {
		t.Errorf("mode = %q, want live", cfg.Mode)
	}
	if cfg.Wallet.PrivateKey != "0xdeadbeef" {
		t.Errorf("private key not overridden")
	}
	if cfg.Engine.TickInterval.Duration != time.Second {
		t.Errorf("tick_interval = %v, want 1s", cfg.Engine.TickInterval.Duration)
	}
	if cfg.Paper.StartingCash != 250.5 {
		t.Errorf("starting_cash = %v, want 250.5", cfg.Paper.StartingCash)
	}
	if len(cfg.Notify.Events) != 2 || cfg.Notify.Events[1] != "error" {
		t.Errorf("events = %v, want [order_filled error]", cfg.Notify.Events)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xsecret"
	cfg.Polymarket.ApiSecret = "shh"
	cfg.Redis.Password = "hunter2"

	red := RedactedConfig(&cfg)
	if red.Wallet.PrivateKey != "***" || red.Polymarket.ApiSecret != "***" || red.Redis.Password != "***" {
		t.Fatal("secrets not redacted")
	}
	if cfg.Wallet.PrivateKey != "0xsecret" {
		t.Fatal("original config mutated")
	}
	// Empty secrets stay empty rather than becoming "***".
	if red.Notify.TelegramToken != "" {
		t.Fatal("empty secret should stay empty")
	}
}
