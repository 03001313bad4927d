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

// Recorder defines observability hooks for build, conversion and sync metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder is the default when metrics are not configured, so callers can
// inject a Recorder unconditionally without nil checks.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObserveConvertDuration(engine string, d time.Duration)
	IncConvertResult(engine string, cacheHit bool)
	ObserveSyncDuration(d time.Duration, success bool)
	SetOutputFiles(n int)
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) IncBuildOutcome(string)                       {}
func (NoopRecorder) ObserveConvertDuration(string, time.Duration) {}
func (NoopRecorder) IncConvertResult(string, bool)                {}
func (NoopRecorder) ObserveSyncDuration(time.Duration, bool)      {}
func (NoopRecorder) SetOutputFiles(int)                           {}
func (NoopRecorder) SetLiveReloadClients(int)                     {}
