package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is nil-safe: a nil *Collector discards every observation, so the
// engine can run without metrics wired in.
type Collector struct {
	registry       *prometheus.Registry
	eventsReplayed *prometheus.CounterVec
	moveFailures   *prometheus.CounterVec
	ledgerBalance  *prometheus.GaugeVec
	playerCredits  *prometheus.GaugeVec
	reconciliation *prometheus.GaugeVec
	logger         *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		eventsReplayed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "timeline_events_replayed_total",
			Help: "Total number of replayed timeline events by kind",
		}, []string{"kind"}),
		moveFailures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "move_failures_total",
			Help: "Total number of failed move sub-operations by reason",
		}, []string{"reason"}),
		ledgerBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "plot_ledger_balance_credits",
			Help: "Current ledger balance per plot",
		}, []string{"plot"}),
		playerCredits: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "player_credits",
			Help: "Current credit balance per player",
		}, []string{"player"}),
		reconciliation: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "reconciliation_records",
			Help: "Reconciliation results by outcome",
		}, []string{"outcome"}),
		logger: logger,
	}
}

func (c *Collector) RecordEvent(kind string) {
	if c == nil {
		return
	}
	c.eventsReplayed.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordMoveFailure(reason string) {
	if c == nil {
		return
	}
	c.moveFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) SetLedgerBalance(plot string, balance int64) {
	if c == nil {
		return
	}
	c.ledgerBalance.WithLabelValues(plot).Set(float64(balance))
}

func (c *Collector) SetPlayerCredits(player string, credits int64) {
	if c == nil {
		return
	}
	c.playerCredits.WithLabelValues(player).Set(float64(credits))
}

func (c *Collector) SetReconciliation(matched, owed, unexplained int) {
	if c == nil {
		return
	}
	c.reconciliation.WithLabelValues("matched").Set(float64(matched))
	c.reconciliation.WithLabelValues("owed").Set(float64(owed))
	c.reconciliation.WithLabelValues("unexplained").Set(float64(unexplained))
}

func (c *Collector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		c.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}
