// Package metrics defines the observability hooks of the build engine.
// Components receive a Recorder by injection and default to NoopRecorder,
// so metrics impose no overhead and no nil checks when disabled.
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

// Recorder defines the hooks the build coordinator and watcher call.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveCycleDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncCycleOutcome(outcome string) // success|warning|failed|canceled|superseded
	SetDocumentsTotal(n int)
	AddArtifactsWritten(n int)
	AddBrokenLinks(n int)
	SetPendingChanges(n int)
}

// NoopRecorder is the default Recorder when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveCycleDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncCycleOutcome(string)                     {}
func (NoopRecorder) SetDocumentsTotal(int)                      {}
func (NoopRecorder) AddArtifactsWritten(int)                    {}
func (NoopRecorder) AddBrokenLinks(int)                         {}
func (NoopRecorder) SetPendingChanges(int)                      {}
