package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	handshakeTimeout = 15 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10

	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// BinanceFeed streams BTCUSDT trades over websocket into a PriceCell and
// polls the REST ticker whenever the stream goes quiet. Both loops run until
// the context is cancelled; the stream reconnects with exponential backoff.
type BinanceFeed struct {
	wsURL            string
	restURL          string
	fallbackInterval time.Duration
	cell             *PriceCell
	client           *http.Client
	logger           *slog.Logger
}

// NewBinanceFeed creates a feed writing into cell.
func NewBinanceFeed(wsURL, restURL string, fallbackInterval time.Duration, cell *PriceCell, logger *slog.Logger) *BinanceFeed {
	return &BinanceFeed{
		wsURL:            wsURL,
		restURL:          restURL,
		fallbackInterval: fallbackInterval,
		cell:             cell,
		client:           &http.Client{Timeout: 10 * time.Second},
		logger:           logger.With(slog.String("component", "binance_feed")),
	}
}

// Run drives the stream and fallback loops until ctx is cancelled.
func (f *BinanceFeed) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return f.streamLoop(gctx) })
	g.Go(func() error { return f.pollLoop(gctx) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("feed: %w", err)
	}
	return nil
}

// streamLoop keeps one websocket connection alive at a time.
func (f *BinanceFeed) streamLoop(ctx context.Context) error {
	delay := reconnectDelay
	for {
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn("trade stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (f *BinanceFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.wsURL, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	f.logger.Info("trade stream connected", slog.String("url", f.wsURL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		price, err := parseTradePrice(message)
		if err != nil {
			// Non-trade frames (subscription acks etc.) are expected.
			continue
		}
		f.cell.Set(price)
	}
}

// pollLoop hits the REST ticker on a timer, but only applies the result when
// the stream has been silent for a full fallback interval.
func (f *BinanceFeed) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(f.fallbackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if f.cell.Ready() && time.Since(f.cell.UpdatedAt()) < f.fallbackInterval {
				continue
			}
			price, err := f.fetchTicker(ctx)
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Warn("rest fallback failed", slog.String("error", err.Error()))
				}
				continue
			}
			f.cell.Set(price)
			f.logger.Debug("price from rest fallback", slog.String("price", price.String()))
		}
	}
}

func (f *BinanceFeed) fetchTicker(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.restURL, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: ticker request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("feed: ticker status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: read ticker: %w", err)
	}
	return parseTickerPrice(body)
}

// parseTradePrice extracts the price from a trade stream frame.
func parseTradePrice(raw []byte) (decimal.Decimal, error) {
	var msg struct {
		Event string `json:"e"`
		Price string `json:"p"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: parse trade: %w", err)
	}
	if msg.Event != "trade" || msg.Price == "" {
		return decimal.Decimal{}, fmt.Errorf("feed: not a trade frame")
	}
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: parse trade price %q: %w", msg.Price, err)
	}
	return price, nil
}

// parseTickerPrice extracts the price from the REST ticker response.
func parseTickerPrice(raw []byte) (decimal.Decimal, error) {
	var msg struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: parse ticker: %w", err)
	}
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("feed: parse ticker price %q: %w", msg.Price, err)
	}
	return price, nil
}
