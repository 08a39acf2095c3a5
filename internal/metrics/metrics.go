// Package metrics exposes Prometheus instrumentation for the trading
// engine. All recording methods are safe on a nil receiver so callers never
// branch on whether metrics are enabled.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics holds the engine's instrument set backed by a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ticksTotal        prometheus.Counter
	ordersPlacedTotal prometheus.Counter
	fillsTotal        prometheus.Counter
	rotationsTotal    prometheus.Counter

	cashBalance prometheus.Gauge
	realizedPnL prometheus.Gauge
	spotPrice   prometheus.Gauge
}

// New creates and registers the instrument set.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulturebot",
			Name:      "ticks_total",
			Help:      "Engine ticks processed.",
		}),
		ordersPlacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulturebot",
			Name:      "orders_placed_total",
			Help:      "Limit orders placed.",
		}),
		fillsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulturebot",
			Name:      "fills_total",
			Help:      "Order fills observed.",
		}),
		rotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vulturebot",
			Name:      "rotations_total",
			Help:      "Market rotations executed.",
		}),
		cashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vulturebot",
			Name:      "cash_balance_usdc",
			Help:      "Current cash balance in USDC.",
		}),
		realizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vulturebot",
			Name:      "realized_pnl_usdc",
			Help:      "Session realized profit and loss in USDC.",
		}),
		spotPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vulturebot",
			Name:      "spot_price_usd",
			Help:      "Latest underlying spot price.",
		}),
	}
	m.registry.MustRegister(
		m.ticksTotal,
		m.ordersPlacedTotal,
		m.fillsTotal,
		m.rotationsTotal,
		m.cashBalance,
		m.realizedPnL,
		m.spotPrice,
	)
	return m
}

func (m *Metrics) TickProcessed() {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlacedTotal.Inc()
}

func (m *Metrics) FillObserved() {
	if m == nil {
		return
	}
	m.fillsTotal.Inc()
}

func (m *Metrics) MarketRotated() {
	if m == nil {
		return
	}
	m.rotationsTotal.Inc()
}

func (m *Metrics) SetCashBalance(cash decimal.Decimal) {
	if m == nil {
		return
	}
	m.cashBalance.Set(cash.InexactFloat64())
}

func (m *Metrics) SetRealizedPnL(pnl decimal.Decimal) {
	if m == nil {
		return
	}
	m.realizedPnL.Set(pnl.InexactFloat64())
}

func (m *Metrics) SetSpotPrice(spot decimal.Decimal) {
	if m == nil {
		return
	}
	m.spotPrice.Set(spot.InexactFloat64())
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics HTTP listener until ctx is cancelled. It exposes
// /metrics and a /healthz liveness probe.
func Serve(ctx context.Context, port int, m *Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listener started", slog.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
