// Package metrics records dispatch and upstream call metrics with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whatsapp_mcp"

// Recorder implements mcpservice.Observer and graphapi.Observer. Each
// Recorder owns its registry so several can coexist in one process.
type Recorder struct {
	reg *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstream        *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// New returns a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Dispatched requests by method, target and outcome.",
		}, []string{"method", "target", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching a request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Graph API calls by HTTP method and status code.",
		}, []string{"method", "code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Graph API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	r.reg.MustRegister(
		r.requests,
		r.requestDuration,
		r.upstream,
		r.upstreamLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveDispatch implements mcpservice.Observer. Targets are only recorded
// for tool calls; resource URIs are unbounded and collapse to the method.
func (r *Recorder) ObserveDispatch(method mcp.Method, target string, kind mcpservice.ErrorKind, elapsed time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	if method != mcp.ToolsCallMethod || kind == mcpservice.KindUnknownTool {
		target = ""
	}
	r.requests.WithLabelValues(string(method), target, outcome).Inc()
	r.requestDuration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

// ObserveUpstream implements graphapi.Observer.
func (r *Recorder) ObserveUpstream(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.upstream.WithLabelValues(method, code).Inc()
	r.upstreamLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
