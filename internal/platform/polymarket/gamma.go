// Package polymarket provides REST clients for the Polymarket Gamma
// (discovery) and CLOB (order) APIs, reduced to the surface the 15-minute
// up/down markets need.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// GammaClient is the REST client for market discovery and the crypto-price
// oracle. It implements domain.MarketMetadata.
type GammaClient struct {
	gammaHost  string
	priceHost  string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// gammaHost is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// priceHost is the crypto-price endpoint used to resolve opening strikes.
func NewGammaClient(gammaHost, priceHost string) *GammaClient {
	return &GammaClient{
		gammaHost: gammaHost,
		priceHost: priceHost,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// LookupMarket fetches the descriptor for a market slug. A slug with no
// listed market returns domain.ErrNotFound.
func (g *GammaClient) LookupMarket(ctx context.Context, slug string) (domain.MarketDescriptor, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := g.doGet(ctx, g.gammaHost+"/markets?"+params.Encode())
	if err != nil {
		return domain.MarketDescriptor{}, fmt.Errorf("polymarket/gamma: lookup %s: %w", slug, err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return domain.MarketDescriptor{}, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	if len(apiMarkets) == 0 {
		return domain.MarketDescriptor{}, fmt.Errorf("polymarket/gamma: %w: slug=%s", domain.ErrNotFound, slug)
	}

	desc := apiMarkets[0].ToDescriptor()
	if desc.TokenIDUp == "" || desc.TokenIDDown == "" {
		return domain.MarketDescriptor{}, fmt.Errorf("polymarket/gamma: market %s has insufficient token ids", slug)
	}

	return desc, nil
}

// FetchOpeningPrice returns the official opening price for the window
// [start, end]. The API returns null openPrice until the window starts, which
// surfaces here as an error.
func (g *GammaClient) FetchOpeningPrice(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", "BTC")
	params.Set("variant", "fifteen")
	params.Set("eventStartTime", start.Format(time.RFC3339))
	params.Set("endDate", end.Format(time.RFC3339))

	body, err := g.doGet(ctx, g.priceHost+"?"+params.Encode())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("polymarket/gamma: fetch opening price: %w", err)
	}

	var resp APICryptoPrice
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("polymarket/gamma: decode crypto price: %w", err)
	}

	if resp.OpenPrice == nil {
		return decimal.Decimal{}, fmt.Errorf("polymarket/gamma: %w: openPrice not published yet", domain.ErrNoPrice)
	}

	return decimal.NewFromFloat(*resp.OpenPrice), nil
}

// doGet sends an unauthenticated GET request and returns the body.
func (g *GammaClient) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
