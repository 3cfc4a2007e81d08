// Package metrics holds the Prometheus metrics for the edge worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edgeworker"

// Stages reported by ModuleErrors.
const (
	StageReady = "ready"
	StageCall  = "call"
	StageShape = "shape"
)

// RouteNotFound labels requests that matched no route.
const RouteNotFound = "not_found"

// Metrics holds all the Prometheus metrics for the worker
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	ModuleReady   prometheus.Histogram
	ModuleCall    *prometheus.HistogramVec
	ModuleErrors  *prometheus.CounterVec
}

// NewMetrics registers the worker metrics on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests handled, by route and status code",
		}, []string{"route", "status"}),
		ModuleReady: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_ready_seconds",
			Help:      "Time spent waiting for the module to become ready",
			Buckets:   prometheus.DefBuckets,
		}),
		ModuleCall: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_call_seconds",
			Help:      "Duration of module export calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"export"}),
		ModuleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_errors_total",
			Help:      "Total number of module failures, by stage",
		}, []string{"stage"}),
	}
}

// ObserveRequest counts one response for route.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveReady records how long readiness took.
func (m *Metrics) ObserveReady(d time.Duration) {
	m.ModuleReady.Observe(d.Seconds())
}

// ObserveCall records the duration of one export call.
func (m *Metrics) ObserveCall(export string, d time.Duration) {
	m.ModuleCall.WithLabelValues(export).Observe(d.Seconds())
}

// IncrementModuleErrors counts a module failure at stage.
func (m *Metrics) IncrementModuleErrors(stage string) {
	m.ModuleErrors.WithLabelValues(stage).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
