// Package metrics bundles the Prometheus collectors alkaid exports on
// /metrics. Every recording method is safe on a nil *Collector so components
// can be built without metrics in tests.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for HTTP client calls.
const (
	OutcomeOK        = "ok"
	OutcomeHTTPError = "http_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)

// Collector holds the registered metric vectors.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
	StreamsActive *prometheus.GaugeVec
	SearchCache   *prometheus.CounterVec
	PrefWrites    prometheus.Counter
}

// New registers alkaid metrics against reg, defaulting to the global registry
// when nil. Registering twice against the same registry returns the existing
// collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alkaid_http_requests_total",
		Help: "Outbound API calls, labeled by client and outcome.",
	}, []string{"client", "outcome"}), "alkaid_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alkaid_http_request_duration_seconds",
		Help:    "Outbound API call latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"client"}), "alkaid_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	streams, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "alkaid_sensor_streams_active",
		Help: "Open sensor observation streams by sensor type.",
	}, []string{"type"}), "alkaid_sensor_streams_active")
	if err != nil {
		return nil, err
	}

	cache, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alkaid_search_cache_total",
		Help: "Place search cache lookups by result (hit, miss).",
	}, []string{"result"}), "alkaid_search_cache_total")
	if err != nil {
		return nil, err
	}

	writes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alkaid_pref_writes_total",
		Help: "Preference writes that bumped a change counter.",
	}), "alkaid_pref_writes_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		HTTPRequests:  requests,
		HTTPDurations: durations,
		StreamsActive: streams,
		SearchCache:   cache,
		PrefWrites:    writes,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one outbound call.
func (c *Collector) ObserveRequest(client, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(client, outcome).Inc()
	c.HTTPDurations.WithLabelValues(client).Observe(took.Seconds())
}

// StreamOpened increments the open-stream gauge for a sensor type key.
func (c *Collector) StreamOpened(typ string) {
	if c == nil {
		return
	}
	c.StreamsActive.WithLabelValues(typ).Inc()
}

// StreamClosed decrements the open-stream gauge for a sensor type key.
func (c *Collector) StreamClosed(typ string) {
	if c == nil {
		return
	}
	c.StreamsActive.WithLabelValues(typ).Dec()
}

// CacheLookup counts a search cache hit or miss.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.SearchCache.WithLabelValues(result).Inc()
}

// PrefWrite counts one preference change.
func (c *Collector) PrefWrite() {
	if c == nil {
		return
	}
	c.PrefWrites.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}
