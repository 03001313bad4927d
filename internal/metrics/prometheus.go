package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	convertDuration *prom.HistogramVec
	convertResults  *prom.CounterVec
	syncDuration    *prom.HistogramVec
	outputFiles     prom.Gauge
	lrClients       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// under the given namespace. A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = "sitegen"
	}
	pr := &PrometheusRecorder{}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.convertDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "convert_duration_seconds",
		Help:      "Duration of individual document conversions",
		Buckets:   prom.DefBuckets,
	}, []string{"engine"})
	pr.convertResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "convert_results_total",
		Help:      "Document conversions by engine and cache outcome",
	}, []string{"engine", "cache"})
	pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "content_sync_duration_seconds",
		Help:      "Duration of content repository sync operations",
		Buckets:   prom.DefBuckets,
	}, []string{"result"})
	pr.outputFiles = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "output_files",
		Help:      "Files written by the last completed build",
	})
	pr.lrClients = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "livereload_clients",
		Help:      "Connected livereload clients",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.convertDuration, pr.convertResults, pr.syncDuration, pr.outputFiles, pr.lrClients)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveConvertDuration(engine string, d time.Duration) {
	if p == nil || p.convertDuration == nil {
		return
	}
	p.convertDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncConvertResult(engine string, cacheHit bool) {
	if p == nil || p.convertResults == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	p.convertResults.WithLabelValues(engine, cache).Inc()
}

func (p *PrometheusRecorder) ObserveSyncDuration(d time.Duration, success bool) {
	if p == nil || p.syncDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.syncDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetOutputFiles(n int) {
	if p == nil || p.outputFiles == nil {
		return
	}
	p.outputFiles.Set(float64(n))
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil || p.lrClients == nil {
		return
	}
	p.lrClients.Set(float64(n))
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.DefaultRegisterer.(*prom.Registry)
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
