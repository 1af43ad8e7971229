// Package promstat exposes interpretation counts as Prometheus metrics.
//
// Stat names follow the conventions of the converters: "<aspect>.records"
// becomes opdk_records_total{aspect}, "<aspect>.issue.<TYPE>" becomes
// opdk_issues_total{aspect,issue}, and any other count becomes
// opdk_events_total{name}.
package promstat

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ opdk.Statter = &Collector{}

// Collector is a opdk.Statter backed by a Prometheus registry. It is safe
// for concurrent use.
type Collector struct {
	registry   *prometheus.Registry
	records    *prometheus.CounterVec
	issues     *prometheus.CounterVec
	events     *prometheus.CounterVec
	gauges     *prometheus.GaugeVec
	histograms *prometheus.HistogramVec
	timings    *prometheus.HistogramVec
}

// NewCollector returns a Collector with its own registry, which also holds
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opdk",
			Name:      "records_total",
			Help:      "Interpreted records by aspect.",
		}, []string{"aspect"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opdk",
			Name:      "issues_total",
			Help:      "Issues recorded by aspect and issue type.",
		}, []string{"aspect", "issue"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opdk",
			Name:      "events_total",
			Help:      "Other counts by name.",
		}, []string{"name"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "opdk",
			Name:      "gauge",
			Help:      "Gauges by name.",
		}, []string{"name"}),
		histograms: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "opdk",
			Name:      "histogram",
			Help:      "Histograms by name.",
		}, []string{"name"}),
		timings: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "opdk",
			Name:      "duration_seconds",
			Help:      "Timings by name.",
		}, []string{"name"}),
	}
	c.registry.MustRegister(
		c.records, c.issues, c.events, c.gauges, c.histograms, c.timings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Count implements opdk.Statter. rate is ignored; every count is kept.
func (c *Collector) Count(name string, value int64, rate float64, tags ...string) {
	if aspect, issue, ok := strings.Cut(name, ".issue."); ok {
		c.issues.WithLabelValues(aspect, issue).Add(float64(value))
		return
	}
	if aspect, ok := strings.CutSuffix(name, ".records"); ok {
		c.records.WithLabelValues(aspect).Add(float64(value))
		return
	}
	c.events.WithLabelValues(name).Add(float64(value))
}

// Gauge implements opdk.Statter.
func (c *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	c.gauges.WithLabelValues(name).Set(value)
}

// Histogram implements opdk.Statter.
func (c *Collector) Histogram(name string, value float64, rate float64, tags ...string) {
	c.histograms.WithLabelValues(name).Observe(value)
}

// Set does nothing.
func (c *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing implements opdk.Statter.
func (c *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	c.timings.WithLabelValues(name).Observe(value.Seconds())
}

// Server serves a Collector's metrics on /metrics until closed.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// Serve starts serving c on addr.
func Serve(addr string, c *Collector) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on '%s'", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s := &Server{
		listener: l,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
	go func() {
		_ = s.server.Serve(l)
	}()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Close shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(s.server.Shutdown(ctx), "shutting down metrics server")
}
