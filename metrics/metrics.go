// Package metrics provides Prometheus metrics for the calculator service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. Each instance has its own
// registry so tests can build routers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	Calculations    *prometheus.CounterVec
	Proposals       *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	ProxiedRequests *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsSwept   prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// Calculations by outcome: ok | invalid
		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laborcalc",
			Name:      "calculations_total",
			Help:      "Proposal calculations by outcome",
		}, []string{"outcome", "source"}),

		Proposals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laborcalc",
			Name:      "proposals_total",
			Help:      "Proposals emitted by option",
		}, []string{"option"}),

		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laborcalc",
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome",
		}, []string{"method", "outcome"}),

		ProxiedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "laborcalc",
			Name:      "proxy_requests_total",
			Help:      "Requests forwarded to the account API by status class",
		}, []string{"class"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "laborcalc",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		SessionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "laborcalc",
			Name:      "sessions_expired_total",
			Help:      "Expired sessions removed by the sweeper",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records request latency keyed by the chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// StatusClass maps 204 to "2xx" and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
