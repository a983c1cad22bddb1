package build

import "sync"

// BuildObserver receives pipeline lifecycle callbacks. Implementations must
// be fast; callbacks run on the orchestrator goroutine.
type BuildObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(outcome StageOutcome)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver ignores all callbacks.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(StageName)       {}
func (NoopObserver) OnStageComplete(StageOutcome) {}
func (NoopObserver) OnBuildComplete(*BuildReport) {}

// RecorderObserver captures callbacks for inspection in tests and the serve
// daemon's build history.
type RecorderObserver struct {
	mu        sync.Mutex
	started   []StageName
	completed []StageOutcome
	report    *BuildReport
}

func NewRecorderObserver() *RecorderObserver {
	return &RecorderObserver{}
}

func (o *RecorderObserver) OnStageStart(stage StageName) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, stage)
}

func (o *RecorderObserver) OnStageComplete(outcome StageOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, outcome)
}

func (o *RecorderObserver) OnBuildComplete(report *BuildReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = report
}

// Started returns the stages that began, in order.
func (o *RecorderObserver) Started() []StageName {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]StageName, len(o.started))
	copy(out, o.started)
	return out
}

// Completed returns the classified outcomes, in order.
func (o *RecorderObserver) Completed() []StageOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]StageOutcome, len(o.completed))
	copy(out, o.completed)
	return out
}

// Report returns the final report, or nil before completion.
func (o *RecorderObserver) Report() *BuildReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.report
}
