// Package metrics holds the prometheus collectors for the lottery API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tonlotto"

// Metrics groups the application collectors around their own registry.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	verificationOutcomes *prometheus.CounterVec
	dedupCheckErrors     prometheus.Counter
	purchases            *prometheus.CounterVec
	ticketsSold          prometheus.Counter
	balanceCache         *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
		verificationOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verifier",
				Name:      "verification_outcomes_total",
				Help:      "Purchase transaction verifications by outcome.",
			},
			[]string{"reason"},
		),
		dedupCheckErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verifier",
				Name:      "dedup_check_errors_total",
				Help:      "Transaction-used lookups that failed and were let through.",
			},
		),
		purchases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tickets",
				Name:      "purchases_total",
				Help:      "Ticket purchase attempts by result.",
			},
			[]string{"result"},
		),
		ticketsSold: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tickets",
				Name:      "sold_total",
				Help:      "Tickets issued by confirmed purchases.",
			},
		),
		balanceCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "balance",
				Name:      "cache_lookups_total",
				Help:      "Balance cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.verificationOutcomes,
		m.dedupCheckErrors,
		m.purchases,
		m.ticketsSold,
		m.balanceCache,
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one handled request. path should be the route template.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// VerificationOutcome counts a verifier result; reason is "VALID" on success.
func (m *Metrics) VerificationOutcome(reason string) {
	if m == nil {
		return
	}
	m.verificationOutcomes.WithLabelValues(reason).Inc()
}

// DedupCheckError counts a failed transaction-used lookup.
func (m *Metrics) DedupCheckError() {
	if m == nil {
		return
	}
	m.dedupCheckErrors.Inc()
}

// Purchase counts a purchase attempt and, when confirmed, its tickets.
func (m *Metrics) Purchase(result string, tickets int64) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(result).Inc()
	if tickets > 0 {
		m.ticketsSold.Add(float64(tickets))
	}
}

// BalanceCacheLookup counts a cache "hit", "miss" or "error".
func (m *Metrics) BalanceCacheLookup(result string) {
	if m == nil {
		return
	}
	m.balanceCache.WithLabelValues(result).Inc()
}
