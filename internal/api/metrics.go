package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/bankfacts/internal/engine"
)

// metrics holds the server's collectors. Each server owns its registry.
type metrics struct {
	reg       *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	changes   *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bankfacts_api_requests_total",
			Help: "API requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankfacts_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bankfacts_review_mutations_total",
			Help: "Review mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bankfacts_engine_changes_total",
			Help: "Engine change events by kind",
		}, []string{"kind"}),
	}
}

// observe records an engine change event.
func (m *metrics) observe(ev engine.Event) {
	m.changes.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Kind == engine.EventOverlay && ev.Op != "" {
		m.mutations.WithLabelValues(string(ev.Op), ev.Outcome.String()).Inc()
	}
}

// instrument counts requests by their matched route pattern so fact keys do
// not explode label cardinality.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
