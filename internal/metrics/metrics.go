// Package metrics exposes Prometheus counters for order flow and
// strategy lifecycle events.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersSubmitted counts orders accepted by the exchange, by type.
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_submitted_total",
		Help: "Orders accepted by the exchange.",
	}, []string{"type"})

	// OrdersFailed counts orders rejected or failed at submission, by type.
	OrdersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_orders_failed_total",
		Help: "Orders rejected or failed at submission.",
	}, []string{"type"})

	// FillsObserved counts fills detected by strategy monitors.
	FillsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_fills_observed_total",
		Help: "Order fills detected by strategy monitors.",
	}, []string{"strategy"})

	// BracketCancelFailures counts sibling-leg cancel attempts that
	// failed after the other bracket leg filled. The resolution still
	// proceeds; this is the only trace the failure leaves.
	BracketCancelFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_bracket_cancel_failures_total",
		Help: "Failed cancels of the surviving bracket leg.",
	})

	// StrategiesActive tracks registered strategies by kind.
	StrategiesActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bot_strategies_active",
		Help: "Currently registered strategies.",
	}, []string{"kind"})
)

// Handler serves the default registry, the one all counters above
// register with.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr in a background goroutine. The caller
// owns the returned server and should Close it on shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics listener failed", "addr", addr, "err", err)
		}
	}()
	return srv
}
