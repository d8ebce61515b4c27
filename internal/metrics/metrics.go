// Package metrics exposes Prometheus instrumentation for the pricing API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	service  string
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec

	bulkItems        *prometheus.CounterVec
	lockBusy         prometheus.Counter
	campaignsExpired prometheus.Counter
	searchSuperseded prometheus.Counter
}

// New creates and registers the collectors for service.
func New(service string) *Metrics {
	m := &Metrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		statusCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricing_bulk_items_total",
			Help: "Items processed by bulk pricing operations by outcome",
		}, []string{"operation", "outcome"}),
		lockBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricing_mutation_lock_busy_total",
			Help: "Pricing mutations rejected because another was in flight",
		}),
		campaignsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricing_campaigns_expired_total",
			Help: "Campaigns deactivated by the expiry sweep",
		}),
		searchSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricing_agent_search_superseded_total",
			Help: "Agent searches discarded because a newer one started",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.statusCategory,
		m.bulkItems, m.lockBusy, m.campaignsExpired, m.searchSuperseded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.service, c.Request.Method, path, statusStr).Inc()
		m.requestDuration.WithLabelValues(m.service, c.Request.Method, path, statusStr).Observe(time.Since(start).Seconds())
		if cat := category(status); cat != "" {
			m.statusCategory.WithLabelValues(m.service, cat).Inc()
		}
	}
}

func category(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// ObserveBulk counts the outcome of one bulk operation.
func (m *Metrics) ObserveBulk(operation string, succeeded, failed, skipped int) {
	m.bulkItems.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	m.bulkItems.WithLabelValues(operation, "failed").Add(float64(failed))
	m.bulkItems.WithLabelValues(operation, "skipped").Add(float64(skipped))
}

// LockBusy counts a mutation rejected by the lock.
func (m *Metrics) LockBusy() {
	m.lockBusy.Inc()
}

// CampaignsExpired counts campaigns switched off by the sweep.
func (m *Metrics) CampaignsExpired(n int64) {
	m.campaignsExpired.Add(float64(n))
}

// SearchSuperseded counts a discarded agent search.
func (m *Metrics) SearchSuperseded() {
	m.searchSuperseded.Inc()
}
