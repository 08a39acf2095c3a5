package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFlexStrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain array", `["111","222"]`, []string{"111", "222"}},
		{"stringified array", `"[\"111\",\"222\"]"`, []string{"111", "222"}},
		{"empty string", `""`, nil},
	}
	for _, tc := range tests {
		var got flexStrings
		if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
			}
		}
	}

	var bad flexStrings
	if err := json.Unmarshal([]byte(`"not an array"`), &bad); err == nil {
		t.Fatal("malformed inner array must fail")
	}
}

func TestFlexBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"TRUE"`, true},
		{`"1"`, true},
		{`"false"`, false},
		{`"no"`, false},
	}
	for _, tc := range tests {
		var got flexBool
		if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if bool(got) != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMarketToDescriptor(t *testing.T) {
	raw := `{
		"conditionId": "0xabc",
		"slug": "btc-updown-15m-1757000700",
		"endDate": "2025-09-04T15:15:00Z",
		"eventStartTime": "2025-09-04T15:00:00Z",
		"clobTokenIds": "[\"713210\",\"845991\"]",
		"acceptingOrders": true,
		"closed": false,
		"active": "true"
	}`
	var m APIMarket
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatal(err)
	}

	d := m.ToDescriptor()
	if d.TokenIDUp != "713210" || d.TokenIDDown != "845991" {
		t.Fatalf("token ids = %s/%s", d.TokenIDUp, d.TokenIDDown)
	}
	if !d.Tradable() {
		t.Fatal("active accepting market must be tradable")
	}
	if d.Expiry.UTC().Format("15:04") != "15:15" {
		t.Fatalf("expiry = %s", d.Expiry)
	}
	if d.EventStart.UTC().Format("15:04") != "15:00" {
		t.Fatalf("event start = %s", d.EventStart)
	}
}

func TestBookTopUsesLastLevel(t *testing.T) {
	book := APIBook{
		Bids: []APIPriceLevel{
			{Price: "0.01", Size: "500"},
			{Price: "0.30", Size: "120"},
			{Price: "0.44", Size: "80"},
		},
		Asks: []APIPriceLevel{
			{Price: "0.99", Size: "500"},
			{Price: "0.60", Size: "120"},
			{Price: "0.46", Size: "80"},
		},
	}

	top := book.ToBookTop()
	if !top.TwoSided() {
		t.Fatal("expected two-sided top")
	}
	if !top.BestBid.Equal(decimal.RequireFromString("0.44")) {
		t.Fatalf("best bid = %s, want 0.44", top.BestBid)
	}
	if !top.BestAsk.Equal(decimal.RequireFromString("0.46")) {
		t.Fatalf("best ask = %s, want 0.46", top.BestAsk)
	}
}

func TestBookTopEmptySides(t *testing.T) {
	top := (&APIBook{Asks: []APIPriceLevel{{Price: "0.46", Size: "80"}}}).ToBookTop()
	if top.HasBid {
		t.Fatal("empty bid side must not report a bid")
	}
	if !top.HasAsk {
		t.Fatal("ask side should be present")
	}
	if top.TwoSided() {
		t.Fatal("one-sided book reported as two-sided")
	}
}
