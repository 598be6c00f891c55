package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build, check and preview metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers (allowing optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObserveCheckDuration(d time.Duration)
	AddCheckIssues(severity string, n int)
	IncPreviewRequest(status string) // status class: 2xx|3xx|4xx|5xx
	IncRebuild(trigger string)       // trigger: fsevent|schedule|manual
	ObserveLinkProbeDuration(d time.Duration, success bool)
	IncLinkResult(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)      {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncStageResult(string, ResultLabel)              {}
func (NoopRecorder) IncBuildOutcome(string)                          {}
func (NoopRecorder) ObserveCheckDuration(time.Duration)              {}
func (NoopRecorder) AddCheckIssues(string, int)                      {}
func (NoopRecorder) IncPreviewRequest(string)                        {}
func (NoopRecorder) IncRebuild(string)                               {}
func (NoopRecorder) ObserveLinkProbeDuration(time.Duration, bool)    {}
func (NoopRecorder) IncLinkResult(bool)                              {}
