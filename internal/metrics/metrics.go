// Package metrics expone la telemetría Prometheus del bot.
//
// Métricas publicadas:
//   - atrbot_ticks_total                  ticks del loop completados
//   - atrbot_tick_errors_total            ticks abandonados por error
//   - atrbot_trades_total{side}           fills contabilizados (BUY|SELL)
//   - atrbot_risk_blocks_total{reason}    señales vetadas por el gate de riesgo
//   - atrbot_orders_skipped_total{reason} órdenes descartadas antes de enviar
//   - atrbot_last_price                   último precio observado
//   - atrbot_atr                          último ATR calculado
//   - atrbot_realized_pnl                 PnL realizado acumulado
//   - atrbot_position_qty                 cantidad base en posición
//
// Se registran en init() y las sirve Serve en /metrics junto a /healthz.
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
)

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atrbot_ticks_total",
			Help: "Loop ticks executed",
		},
	)

	tickErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atrbot_tick_errors_total",
			Help: "Loop ticks abandoned due to an error",
		},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atrbot_trades_total",
			Help: "Fills applied to the ledger",
		},
		[]string{"side"}, // BUY|SELL
	)

	riskBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atrbot_risk_blocks_total",
			Help: "Signals vetoed by the risk gate",
		},
		[]string{"reason"},
	)

	ordersSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atrbot_orders_skipped_total",
			Help: "Orders discarded before reaching the venue",
		},
		[]string{"reason"},
	)

	lastPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atrbot_last_price",
			Help: "Last observed price",
		},
	)

	atrValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atrbot_atr",
			Help: "Last computed ATR",
		},
	)

	realizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atrbot_realized_pnl",
			Help: "Cumulative realized PnL",
		},
	)

	positionQty = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atrbot_position_qty",
			Help: "Base quantity currently held",
		},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, tickErrorsTotal)
	prometheus.MustRegister(tradesTotal, riskBlocksTotal, ordersSkippedTotal)
	prometheus.MustRegister(lastPrice, atrValue, realizedPnL, positionQty)
}

func IncTick()                      { ticksTotal.Inc() }
func IncTickError()                 { tickErrorsTotal.Inc() }
func IncTrade(side string)          { tradesTotal.WithLabelValues(side).Inc() }
func IncRiskBlock(reason string)    { riskBlocksTotal.WithLabelValues(reason).Inc() }
func IncOrderSkipped(reason string) { ordersSkippedTotal.WithLabelValues(reason).Inc() }

func SetLastPrice(v float64)   { lastPrice.Set(v) }
func SetATR(v float64)         { atrValue.Set(v) }
func SetRealizedPnL(v float64) { realizedPnL.Set(v) }
func SetPositionQty(v float64) { positionQty.Set(v) }

// Serve expone /metrics y /healthz en addr hasta que ctx se cancele. Bloquea;
// el caller lo lanza en su propia goroutine.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
