package polymarket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexStrings unmarshals from either a JSON array of strings or a
// JSON-encoded string containing such an array. The Gamma API sends
// clobTokenIds both ways depending on the endpoint.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*f = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = nil
		return nil
	}
	var inner []string
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		return err
	}
	*f = inner
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API,
// reduced to the fields up/down window trading needs.
type APIMarket struct {
	ConditionID     string      `json:"conditionId"`
	Question        string      `json:"question"`
	Slug            string      `json:"slug"`
	EndDate         string      `json:"endDate"`
	EventStartTime  string      `json:"eventStartTime"`
	ClobTokenIDs    flexStrings `json:"clobTokenIds"`
	AcceptingOrders flexBool    `json:"acceptingOrders"`
	Closed          flexBool    `json:"closed"`
	Active          flexBool    `json:"active"`
}

// ToDescriptor converts an APIMarket to a domain.MarketDescriptor. Token
// order follows the Gamma convention: index 0 is the UP outcome, index 1 the
// DOWN outcome.
func (m *APIMarket) ToDescriptor() domain.MarketDescriptor {
	d := domain.MarketDescriptor{
		Slug:            m.Slug,
		Active:          bool(m.Active),
		AcceptingOrders: bool(m.AcceptingOrders),
		Closed:          bool(m.Closed),
	}
	if len(m.ClobTokenIDs) >= 2 {
		d.TokenIDUp = m.ClobTokenIDs[0]
		d.TokenIDDown = m.ClobTokenIDs[1]
	}
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		d.Expiry = t
	}
	if t, err := time.Parse(time.RFC3339, m.EventStartTime); err == nil {
		d.EventStart = t
	}
	return d
}

// APICryptoPrice is the crypto-price API response carrying a window's
// official opening and closing prices. Prices are null while the window has
// not started or finished.
type APICryptoPrice struct {
	OpenPrice  *float64 `json:"openPrice"`
	ClosePrice *float64 `json:"closePrice"`
	Timestamp  *int64   `json:"timestamp"`
	Completed  *bool    `json:"completed"`
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBook is the order book snapshot returned by the public CLOB book
// endpoint. Levels are price/size string pairs.
type APIBook struct {
	AssetID string          `json:"asset_id"`
	Bids    []APIPriceLevel `json:"bids"`
	Asks    []APIPriceLevel `json:"asks"`
}

// APIPriceLevel is one bid or ask level.
type APIPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// ToBookTop reduces a full book snapshot to the top of book. The CLOB sorts
// bids ascending and asks descending, so the best level is the last entry on
// each side.
func (b *APIBook) ToBookTop() domain.BookTop {
	var top domain.BookTop
	if n := len(b.Bids); n > 0 {
		if p, err := decimal.NewFromString(b.Bids[n-1].Price); err == nil {
			top.BestBid = p
			top.HasBid = true
		}
	}
	if n := len(b.Asks); n > 0 {
		if p, err := decimal.NewFromString(b.Asks[n-1].Price); err == nil {
			top.BestAsk = p
			top.HasAsk = true
		}
	}
	return top
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	TransactID  string `json:"transactID,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}
