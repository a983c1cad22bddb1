package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	renderDuration  prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	docResults      *prom.CounterVec
	renderWorkers   prom.Gauge
	watchQueueDepth prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "render_duration_seconds",
			Help:      "Duration of individual document renders",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.docResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "docs_total",
			Help:      "Documents processed by result",
		}, []string{"result"})
		pr.renderWorkers = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitegen",
			Name:      "render_workers",
			Help:      "Render worker count for the last build",
		})
		pr.watchQueueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitegen",
			Name:      "watch_queue_depth",
			Help:      "Pending rebuild requests in serve mode",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.renderDuration, pr.stageResults, pr.buildOutcome, pr.docResults, pr.renderWorkers, pr.watchQueueDepth)
	})
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

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
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

func (p *PrometheusRecorder) IncDocResult(result string) {
	if p == nil || p.docResults == nil {
		return
	}
	p.docResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) SetRenderWorkers(n int) {
	if p == nil || p.renderWorkers == nil {
		return
	}
	p.renderWorkers.Set(float64(n))
}

func (p *PrometheusRecorder) SetWatchQueueDepth(n int) {
	if p == nil || p.watchQueueDepth == nil {
		return
	}
	p.watchQueueDepth.Set(float64(n))
}
