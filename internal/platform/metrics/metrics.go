// Package metrics owns the Prometheus collectors of the docs service.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ultikits/ultitools-dev-doc/internal/platform/httpx"
	"github.com/ultikits/ultitools-dev-doc/internal/platform/observability"
)

// Metrics holds the service collectors on an isolated registry, so every
// server (and every test) gets its own counters.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal  *prometheus.CounterVec
	LocaleRouteTotal   *prometheus.CounterVec
	SearchQueriesTotal *prometheus.CounterVec
	SearchIndexedPages prometheus.Gauge
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultitools_docs_http_requests_total",
				Help: "HTTP requests served, by method and status code.",
			},
			[]string{"method", "code"},
		),
		LocaleRouteTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultitools_docs_locale_route_total",
				Help: "Locale routing decisions, by outcome and target locale.",
			},
			[]string{"outcome", "locale"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultitools_docs_search_queries_total",
				Help: "Search queries answered, by backend.",
			},
			[]string{"backend"},
		),
		SearchIndexedPages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ultitools_docs_search_indexed_documents",
				Help: "Documents currently held by the local search index.",
			},
		),
	}
	reg.MustRegister(m.HTTPRequestsTotal, m.LocaleRouteTotal, m.SearchQueriesTotal, m.SearchIndexedPages)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Instrument counts every request by method and status.
func (m *Metrics) Instrument() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := observability.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.Status())).Inc()
		})
	}
}

// ObserveLocaleRoute records one routing decision.
func (m *Metrics) ObserveLocaleRoute(outcome string, locale string) {
	if m == nil {
		return
	}
	if locale == "" {
		locale = "root"
	}
	m.LocaleRouteTotal.WithLabelValues(outcome, locale).Inc()
}

// ObserveSearch records one answered search query.
func (m *Metrics) ObserveSearch(backend string) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(backend).Inc()
}

// SetIndexedDocuments publishes the local index size.
func (m *Metrics) SetIndexedDocuments(n int) {
	if m == nil {
		return
	}
	m.SearchIndexedPages.Set(float64(n))
}
