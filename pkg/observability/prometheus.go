package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "scenemap"

// PrometheusHooks records pipeline, cache and server events as Prometheus
// metrics. It implements [PipelineHooks], [CacheHooks] and [ServerHooks].
type PrometheusHooks struct {
	NoopPipelineHooks

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	sceneNodes    prometheus.Gauge
	sceneEdges    prometheus.Gauge
	droppedRefs   prometheus.Counter
	renderedNodes prometheus.Gauge
	routes        prometheus.Gauge

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rescans         *prometheus.CounterVec
}

// NewPrometheusHooks creates the metrics and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by stage",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Total pipeline stage failures by stage",
		}, []string{"stage"}),
		sceneNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "scene_nodes",
			Help:      "Nodes in the most recently built forest",
		}),
		sceneEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "scene_edges",
			Help:      "Connections in the most recently built forest",
		}),
		droppedRefs: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "scene_dropped_references_total",
			Help:      "Reference fields whose value matched no node",
		}),
		renderedNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "view_rendered_nodes",
			Help:      "Rendered nodes after the most recent layout",
		}),
		routes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "view_routes",
			Help:      "Drawn connections after the most recent layout",
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Served requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request duration in seconds by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rescans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rescans_total",
			Help:      "Scene rebuilds triggered by the server by result",
		}, []string{"result"}),
	}
}

func (h *PrometheusHooks) stage(name string, d time.Duration, err error) {
	h.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		h.stageErrors.WithLabelValues(name).Inc()
	}
}

func (h *PrometheusHooks) OnLoadComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.stage("load", d, err)
}

func (h *PrometheusHooks) OnBuildComplete(_ context.Context, _ string, nodes, edges, dropped int, d time.Duration, err error) {
	h.stage("build", d, err)
	if err != nil {
		return
	}
	h.sceneNodes.Set(float64(nodes))
	h.sceneEdges.Set(float64(edges))
	h.droppedRefs.Add(float64(dropped))
}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, rendered, routes int, d time.Duration, err error) {
	h.stage("layout", d, err)
	if err == nil {
		h.renderedNodes.Set(float64(rendered))
		h.routes.Set(float64(routes))
	}
}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.stage("render", d, err)
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnRescan(_ context.Context, _ string, _ time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.rescans.WithLabelValues(result).Inc()
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ ServerHooks   = (*PrometheusHooks)(nil)
)
