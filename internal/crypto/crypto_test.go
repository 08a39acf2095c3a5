package crypto

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestKeyEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey(testKey, "correct horse")
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}

	got, err := DecryptKey(blob, "correct horse")
	if err != nil {
		t.Fatalf("DecryptKey: %v", err)
	}
	if got != strings.TrimPrefix(testKey, "0x") {
		t.Fatalf("round trip mismatch: got %s", got)
	}

	if _, err := DecryptKey(blob, "wrong password"); err == nil {
		t.Fatal("wrong password should fail")
	}
}

func TestEncryptKeyRejectsBadInput(t *testing.T) {
	if _, err := EncryptKey(testKey, ""); err == nil {
		t.Fatal("empty password should fail")
	}
	if _, err := EncryptKey("0xnothex", "pw"); err == nil {
		t.Fatal("non-hex key should fail")
	}
	if _, err := EncryptKey("0xdeadbeef", "pw"); err == nil {
		t.Fatal("short key should fail")
	}
}

func TestLoadKeyPrefersRawKey(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: testKey})
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if strings.HasPrefix(got, "0x") {
		t.Fatal("returned key should not keep 0x prefix")
	}

	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Fatal("no key source should fail")
	}
}

func TestNewOrderPayloadAmounts(t *testing.T) {
	maker := common.HexToAddress("0x1111111111111111111111111111111111111111")

	buy, err := NewOrderPayload(maker, "123", OrderSideBuy, decimal.RequireFromString("0.45"), decimal.RequireFromString("100"), 0)
	if err != nil {
		t.Fatalf("NewOrderPayload: %v", err)
	}
	// BUY: maker pays 45 USDC, takes 100 shares, both scaled by 1e6.
	if buy.MakerAmount != "45000000" {
		t.Errorf("buy maker amount = %s, want 45000000", buy.MakerAmount)
	}
	if buy.TakerAmount != "100000000" {
		t.Errorf("buy taker amount = %s, want 100000000", buy.TakerAmount)
	}

	sell, err := NewOrderPayload(maker, "123", OrderSideSell, decimal.RequireFromString("0.45"), decimal.RequireFromString("100"), 0)
	if err != nil {
		t.Fatalf("NewOrderPayload: %v", err)
	}
	if sell.MakerAmount != "100000000" || sell.TakerAmount != "45000000" {
		t.Errorf("sell amounts = %s/%s, want 100000000/45000000", sell.MakerAmount, sell.TakerAmount)
	}

	if buy.Salt == sell.Salt {
		t.Error("salts should differ between orders")
	}
}

func TestSignOrderProducesRecoverableSignature(t *testing.T) {
	s, err := NewSigner(testKey, 137)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	payload, err := NewOrderPayload(s.Address(), "7000", OrderSideBuy, decimal.RequireFromString("0.50"), decimal.RequireFromString("10"), 0)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := s.SignOrder(payload)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	// 0x + 65 bytes hex.
	if len(sig) != 2+130 {
		t.Fatalf("signature length = %d, want 132", len(sig))
	}
	v := sig[len(sig)-2:]
	if v != "1b" && v != "1c" {
		t.Fatalf("recovery byte = %s, want 1b or 1c", v)
	}
}

func TestL2HeadersDeterministic(t *testing.T) {
	auth := &HMACAuth{
		Key:        "key-1",
		Secret:     "c2VjcmV0LWJ5dGVz", // base64("secret-bytes")
		Passphrase: "pass",
	}

	h1 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1700000000)
	h2 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"x":1}`, 1700000000)
	if h1["POLY_SIGNATURE"] != h2["POLY_SIGNATURE"] {
		t.Fatal("same inputs should produce same signature")
	}

	h3 := auth.L2HeadersAt("0xabc", "POST", "/order", `{"x":2}`, 1700000000)
	if h1["POLY_SIGNATURE"] == h3["POLY_SIGNATURE"] {
		t.Fatal("different body should change signature")
	}

	for _, k := range []string{"POLY_ADDRESS", "POLY_API_KEY", "POLY_TIMESTAMP", "POLY_PASSPHRASE", "POLY_SIGNATURE"} {
		if h1[k] == "" {
			t.Errorf("missing header %s", k)
		}
	}
}
