package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("parse", time.Second)
	r.ObserveCycleDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncCycleOutcome("success")
	r.SetDocumentsTotal(3)
	r.AddArtifactsWritten(1)
	r.AddBrokenLinks(2)
	r.SetPendingChanges(0)
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncCycleOutcome("success")
	r.IncCycleOutcome("success")
	r.IncStageResult("render", ResultWarning)
	r.SetDocumentsTotal(12)
	r.AddArtifactsWritten(5)
	r.SetPendingChanges(3)
	r.ObserveCycleDuration(250 * time.Millisecond)

	count, err := testutil.GatherAndCount(reg,
		"sitebuild_cycle_outcomes_total",
		"sitebuild_stage_results_total",
		"sitebuild_documents_total",
		"sitebuild_artifacts_written_total",
		"sitebuild_pending_changes",
		"sitebuild_cycle_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	assert.Equal(t, 12.0, testutil.ToFloat64(r.documentsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.artifacts))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.pendingChanges))
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("parse", time.Second)
	r.IncCycleOutcome("failed")
	r.SetDocumentsTotal(1)
	assert.NotNil(t, r.Handler())
}
