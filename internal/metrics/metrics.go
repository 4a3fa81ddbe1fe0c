package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "licensedesk"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry         *prometheus.Registry
	salesTotal       prometheus.Counter
	payoutsTotal     prometheus.Counter
	commissionTotal  prometheus.Counter
	payoutAmount     prometheus.Counter
	rejectionsTotal  *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	feedSubscribers  prometheus.Gauge
	feedDroppedTotal prometheus.Counter
}

// New registers all collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		salesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "sales_total",
			Help:      "Committed sales.",
		}),
		payoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "payouts_total",
			Help:      "Committed payouts.",
		}),
		commissionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "commission_amount_total",
			Help:      "Sum of commission credited by committed sales.",
		}),
		payoutAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "payout_amount_total",
			Help:      "Sum of amounts debited by committed payouts.",
		}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Ledger operations that did not commit, by operation and reason.",
		}, []string{"op", "reason"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		feedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Connected ledger feed clients.",
		}),
		feedDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_clients_total",
			Help:      "Feed clients disconnected for falling behind.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.salesTotal,
		m.payoutsTotal,
		m.commissionTotal,
		m.payoutAmount,
		m.rejectionsTotal,
		m.requestDuration,
		m.feedSubscribers,
		m.feedDroppedTotal,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSale counts a committed sale.
func (m *Metrics) RecordSale(commission decimal.Decimal) {
	if m == nil {
		return
	}
	m.salesTotal.Inc()
	m.commissionTotal.Add(commission.InexactFloat64())
}

// RecordPayout counts a committed payout.
func (m *Metrics) RecordPayout(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.payoutsTotal.Inc()
	m.payoutAmount.Add(amount.InexactFloat64())
}

// RecordRejection counts a ledger operation that did not commit.
func (m *Metrics) RecordRejection(op, reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(op, reason).Inc()
}

// FeedSubscribed adjusts the connected feed client gauge by delta.
func (m *Metrics) FeedSubscribed(delta int) {
	if m == nil {
		return
	}
	m.feedSubscribers.Add(float64(delta))
}

// FeedDropped counts a slow feed client being disconnected.
func (m *Metrics) FeedDropped() {
	if m == nil {
		return
	}
	m.feedDroppedTotal.Inc()
}

// Middleware observes request latency labelled by chi route pattern, so
// path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
