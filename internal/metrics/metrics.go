// Package metrics exposes the Prometheus counters for verdicts, notifier
// actions and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	verdicts       *prometheus.CounterVec
	evaluation     prometheus.Histogram
	actions        *prometheus.CounterVec
	dropped        prometheus.Counter
	httpRequests   *prometheus.CounterVec
	ledgerRestored prometheus.Gauge
}

// NewCollector registers every verigate metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_verdicts_total",
			Help: "Verification verdicts by outcome.",
		}, []string{"outcome"}),
		evaluation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "verigate_evaluation_seconds",
			Help:    "Time spent evaluating one verification attempt.",
			Buckets: prometheus.DefBuckets,
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_notifier_actions_total",
			Help: "Platform side effects by action and result.",
		}, []string{"action", "result"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verigate_notifier_dropped_total",
			Help: "Verdicts dropped because the outbound queue was full.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_http_requests_total",
			Help: "API responses by status code.",
		}, []string{"status"}),
		ledgerRestored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "verigate_ledger_restored_entries",
			Help: "Ledger entries restored from the journal at startup.",
		}),
	}

	reg.MustRegister(
		c.verdicts,
		c.evaluation,
		c.actions,
		c.dropped,
		c.httpRequests,
		c.ledgerRestored,
	)
	return c
}

func (c *Collector) RecordVerdict(outcome string, elapsed time.Duration) {
	c.verdicts.WithLabelValues(outcome).Inc()
	c.evaluation.Observe(elapsed.Seconds())
}

// RecordAction counts one notifier side effect. A nil err counts as "ok".
func (c *Collector) RecordAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.actions.WithLabelValues(action, result).Inc()
}

func (c *Collector) RecordDropped() {
	c.dropped.Inc()
}

func (c *Collector) RecordHTTP(status int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (c *Collector) SetLedgerRestored(n int) {
	c.ledgerRestored.Set(float64(n))
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
