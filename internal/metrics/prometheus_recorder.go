package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	checkDuration  prom.Histogram
	checkIssues    *prom.CounterVec
	previewReqs    *prom.CounterVec
	rebuilds       *prom.CounterVec
	linkDuration   *prom.HistogramVec
	linkResults    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "guidesite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "guidesite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.checkDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "guidesite",
			Name:      "check_duration_seconds",
			Help:      "Duration of structural check runs",
			Buckets:   prom.DefBuckets,
		})
		pr.checkIssues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "check_issues_total",
			Help:      "Structural check findings by severity",
		}, []string{"severity"})
		pr.previewReqs = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "preview_requests_total",
			Help:      "Preview server requests by status class",
		}, []string{"status"})
		pr.rebuilds = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "preview_rebuilds_total",
			Help:      "Preview rebuilds by trigger",
		}, []string{"trigger"})
		pr.linkDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "guidesite",
			Name:      "link_probe_duration_seconds",
			Help:      "Duration of external link probes",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.linkResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "guidesite",
			Name:      "link_results_total",
			Help:      "External link probe results by success/failure",
		}, []string{"result"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.checkDuration, pr.checkIssues, pr.previewReqs, pr.rebuilds, pr.linkDuration, pr.linkResults)
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

func (p *PrometheusRecorder) ObserveCheckDuration(d time.Duration) {
	if p == nil || p.checkDuration == nil {
		return
	}
	p.checkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddCheckIssues(severity string, n int) {
	if p == nil || p.checkIssues == nil || n <= 0 {
		return
	}
	p.checkIssues.WithLabelValues(severity).Add(float64(n))
}

func (p *PrometheusRecorder) IncPreviewRequest(status string) {
	if p == nil || p.previewReqs == nil {
		return
	}
	p.previewReqs.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) ObserveLinkProbeDuration(d time.Duration, success bool) {
	if p == nil || p.linkDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.linkDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLinkResult(success bool) {
	if p == nil || p.linkResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.linkResults.WithLabelValues(res).Inc()
}
