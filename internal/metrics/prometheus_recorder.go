package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics. All
// methods are safe on a nil receiver so callers can hold the concrete type
// optionally.
type PrometheusRecorder struct {
	registry *prom.Registry

	stageDuration  *prom.HistogramVec
	cycleDuration  prom.Histogram
	stageResults   *prom.CounterVec
	cycleOutcome   *prom.CounterVec
	documentsTotal prom.Gauge
	artifacts      prom.Counter
	brokenLinks    prom.Counter
	pendingChanges prom.Gauge
}

// NewPrometheusRecorder constructs and registers the engine's metrics on
// the given registry, creating one when nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}

	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "sitebuild",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.cycleDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "sitebuild",
		Name:      "cycle_duration_seconds",
		Help:      "Total build cycle duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sitebuild",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.cycleOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sitebuild",
		Name:      "cycle_outcomes_total",
		Help:      "Build cycle outcomes by final status",
	}, []string{"outcome"})
	pr.documentsTotal = prom.NewGauge(prom.GaugeOpts{
		Namespace: "sitebuild",
		Name:      "documents_total",
		Help:      "Documents in the current snapshot",
	})
	pr.artifacts = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitebuild",
		Name:      "artifacts_written_total",
		Help:      "Output files written across all cycles",
	})
	pr.brokenLinks = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitebuild",
		Name:      "broken_links_total",
		Help:      "Broken link diagnostics across all cycles",
	})
	pr.pendingChanges = prom.NewGauge(prom.GaugeOpts{
		Namespace: "sitebuild",
		Name:      "pending_changes",
		Help:      "Coalesced filesystem changes awaiting a build",
	})

	reg.MustRegister(
		pr.stageDuration, pr.cycleDuration, pr.stageResults, pr.cycleOutcome,
		pr.documentsTotal, pr.artifacts, pr.brokenLinks, pr.pendingChanges,
	)
	return pr
}

// Handler serves the recorder's registry over HTTP.
func (p *PrometheusRecorder) Handler() http.Handler {
	if p == nil || p.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome string) {
	if p == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetDocumentsTotal(n int) {
	if p == nil {
		return
	}
	p.documentsTotal.Set(float64(n))
}

func (p *PrometheusRecorder) AddArtifactsWritten(n int) {
	if p == nil {
		return
	}
	p.artifacts.Add(float64(n))
}

func (p *PrometheusRecorder) AddBrokenLinks(n int) {
	if p == nil {
		return
	}
	p.brokenLinks.Add(float64(n))
}

func (p *PrometheusRecorder) SetPendingChanges(n int) {
	if p == nil {
		return
	}
	p.pendingChanges.Set(float64(n))
}
