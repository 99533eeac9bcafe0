package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Config configures the Prometheus health metrics server.
type Config struct {
	// Addr is the listen address for the health metrics server.
	// Defaults to ":9090".
	Addr string `yaml:"addr"`
}

// Metrics exposes Prometheus metrics for gateway health.
type Metrics struct {
	log      logrus.FieldLogger
	addr     string
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry

	// Upstream layer
	UpstreamRequests        *prometheus.CounterVec   // upstream, endpoint, status
	UpstreamRequestDuration *prometheus.HistogramVec // upstream, endpoint

	// Gateway layer
	GatewayRequests        *prometheus.CounterVec   // route, code
	GatewayRequestDuration *prometheus.HistogramVec // route
	FallbacksServed        *prometheus.CounterVec   // metric

	// Signup
	SignupSubmissions *prometheus.CounterVec // form, outcome

	// Dashboard cache
	DashboardCacheHits   prometheus.Counter
	DashboardCacheMisses prometheus.Counter

	running atomic.Bool
}

// New creates a new health metrics server.
func New(log logrus.FieldLogger, cfg Config) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		log:      log.WithField("component", "health"),
		addr:     cfg.Addr,
		registry: reg,

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statsgate",
				Name:      "upstream_requests_total",
				Help:      "Total upstream API requests by upstream, endpoint and status.",
			},
			[]string{"upstream", "endpoint", "status"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "statsgate",
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream API request duration by upstream and endpoint.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5}, // 10ms-5s
			},
			[]string{"upstream", "endpoint"},
		),
		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statsgate",
				Name:      "gateway_requests_total",
				Help:      "Total gateway requests by route and response code.",
			},
			[]string{"route", "code"},
		),
		GatewayRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "statsgate",
				Name:      "gateway_request_duration_seconds",
				Help:      "Gateway request duration by route.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
		FallbacksServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statsgate",
				Name:      "fallbacks_served_total",
				Help:      "Total responses served from static fallback data by metric.",
			},
			[]string{"metric"},
		),
		SignupSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statsgate",
				Name:      "signup_submissions_total",
				Help:      "Total signup submissions by form type and outcome.",
			},
			[]string{"form", "outcome"},
		),
		DashboardCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statsgate",
			Name:      "dashboard_cache_hits_total",
			Help:      "Total dashboard responses served from cache.",
		}),
		DashboardCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "statsgate",
			Name:      "dashboard_cache_misses_total",
			Help:      "Total dashboard cache lookups that missed.",
		}),
	}

	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamRequestDuration,
		m.GatewayRequests,
		m.GatewayRequestDuration,
		m.FallbacksServed,
		m.SignupSubmissions,
		m.DashboardCacheHits,
		m.DashboardCacheMisses,
	)

	return m
}

// ObserveUpstream records one upstream API call. Safe on a nil receiver
// so clients can run without a metrics server (e.g. in tests).
func (m *Metrics) ObserveUpstream(
	upstream, endpoint, status string,
	duration time.Duration,
) {
	if m == nil {
		return
	}

	m.UpstreamRequests.WithLabelValues(upstream, endpoint, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(upstream, endpoint).
		Observe(duration.Seconds())
}

// RecordFallback records one fallback-served response for a metric.
// Safe on a nil receiver.
func (m *Metrics) RecordFallback(metric string) {
	if m == nil {
		return
	}

	m.FallbacksServed.WithLabelValues(metric).Inc()
}

// ObserveGateway records one handled gateway request. Safe on a nil
// receiver.
func (m *Metrics) ObserveGateway(route, code string, duration time.Duration) {
	if m == nil {
		return
	}

	m.GatewayRequests.WithLabelValues(route, code).Inc()
	m.GatewayRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordSignup records one signup submission outcome. Safe on a nil
// receiver.
func (m *Metrics) RecordSignup(form, outcome string) {
	if m == nil {
		return
	}

	m.SignupSubmissions.WithLabelValues(form, outcome).Inc()
}

// RecordCacheHit records one dashboard cache hit. Safe on a nil
// receiver.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}

	m.DashboardCacheHits.Inc()
}

// RecordCacheMiss records one dashboard cache miss. Safe on a nil
// receiver.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}

	m.DashboardCacheMisses.Inc()
}

// Start begins serving the /metrics endpoint.
func (m *Metrics) Start(_ context.Context) error {
	if m.addr == "" {
		m.addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	// pprof endpoints for CPU/memory profiling.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", m.addr, err)
	}

	m.listener = ln

	m.server = &http.Server{
		Handler: mux,
	}

	m.running.Store(true)

	go func() {
		m.log.WithField("addr", ln.Addr().String()).
			Info("Health metrics server started")

		if err := m.server.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			m.log.WithError(err).
				Error("Health metrics server error")
		}

		m.running.Store(false)
	}()

	return nil
}

// Addr returns the actual listener address. Useful when started
// with ":0" to get the OS-assigned port.
func (m *Metrics) Addr() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}

	return m.addr
}

// Stop gracefully shuts down the health metrics server.
func (m *Metrics) Stop() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}
