package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server instance.
//
// It implements services.Recorder so the selection pipeline reports into the same registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ResolutionsTotal *prometheus.CounterVec
	SelectionsTotal  *prometheus.CounterVec
	SelectionTries   prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, along with the Go and process collectors, on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earworm_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earworm_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earworm_preview_resolutions_total",
				Help: "Preview resolution attempts per strategy",
			},
			[]string{"strategy", "result"},
		),
		SelectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earworm_selections_total",
				Help: "Track selections by outcome",
			},
			[]string{"outcome"},
		),
		SelectionTries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "earworm_selection_attempts",
				Help:    "Random picks needed per selection",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earworm_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.ResolutionsTotal,
		m.SelectionsTotal,
		m.SelectionTries,
		m.CacheLookups,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRequest(route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordResolution(strategy string, ok bool) {
	m.ResolutionsTotal.WithLabelValues(strategy, result(ok, "hit", "miss")).Inc()
}

func (m *Metrics) RecordSelection(outcome string, attempts int) {
	m.SelectionsTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.SelectionTries.Observe(float64(attempts))
	}
}

func (m *Metrics) RecordCache(cache string, hit bool) {
	m.CacheLookups.WithLabelValues(cache, result(hit, "hit", "miss")).Inc()
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
