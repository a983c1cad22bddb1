package metrics

import (
	"testing"
	"time"
)

// testRecorder counts invocations for asserting hooks fire.
type testRecorder struct {
	stageDurations  map[string]int
	stageResults    map[string]map[ResultLabel]int
	buildDurations  int
	renderDurations int
	buildOutcomes   map[string]int
	docResults      map[string]int
	workers         int
	queueDepth      int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[string]int{},
		docResults:     map[string]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}
func (t *testRecorder) ObserveBuildDuration(_ time.Duration)  { t.buildDurations++ }
func (t *testRecorder) ObserveRenderDuration(_ time.Duration) { t.renderDurations++ }
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome string) { t.buildOutcomes[outcome]++ }
func (t *testRecorder) IncDocResult(result string)     { t.docResults[result]++ }
func (t *testRecorder) SetRenderWorkers(n int)         { t.workers = n }
func (t *testRecorder) SetWatchQueueDepth(n int)       { t.queueDepth = n }

func TestRecorderImplementations(t *testing.T) {
	implementations := []Recorder{NoopRecorder{}, newTestRecorder(), (*PrometheusRecorder)(nil)}
	for _, rec := range implementations {
		rec.ObserveStageDuration("scan_source", time.Millisecond)
		rec.ObserveBuildDuration(time.Millisecond)
		rec.ObserveRenderDuration(time.Millisecond)
		rec.IncStageResult("scan_source", ResultSuccess)
		rec.IncBuildOutcome("success")
		rec.IncDocResult("rendered")
		rec.SetRenderWorkers(2)
		rec.SetWatchQueueDepth(1)
	}
}

func TestTestRecorderCounts(t *testing.T) {
	rec := newTestRecorder()
	rec.ObserveStageDuration("render_docs", time.Millisecond)
	rec.ObserveStageDuration("render_docs", time.Millisecond)
	rec.IncStageResult("render_docs", ResultWarning)
	rec.IncDocResult("skipped")
	rec.SetRenderWorkers(8)

	if rec.stageDurations["render_docs"] != 2 {
		t.Errorf("expected 2 stage observations, got %d", rec.stageDurations["render_docs"])
	}
	if rec.stageResults["render_docs"][ResultWarning] != 1 {
		t.Errorf("expected 1 warning result, got %d", rec.stageResults["render_docs"][ResultWarning])
	}
	if rec.docResults["skipped"] != 1 {
		t.Errorf("expected 1 skipped doc, got %d", rec.docResults["skipped"])
	}
	if rec.workers != 8 {
		t.Errorf("expected 8 workers recorded, got %d", rec.workers)
	}
}
