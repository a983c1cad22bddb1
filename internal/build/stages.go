package build

import (
	"context"
	"fmt"
)

// StageName identifies a pipeline stage.
type StageName string

// Pipeline stages in execution order.
const (
	StagePrepareOutput    StageName = "prepare_output"
	StageScanSource       StageName = "scan_source"
	StageParseMeta        StageName = "parse_meta"
	StageResolveLayouts   StageName = "resolve_layouts"
	StagePlanStale        StageName = "plan_stale"
	StageRenderDocs       StageName = "render_docs"
	StageWriteOutput      StageName = "write_output"
	StageAssembleIndexes  StageName = "assemble_indexes"
	StageCopyAssets       StageName = "copy_assets"
	StageFinalizeManifest StageName = "finalize_manifest"
)

// StageErrorKind distinguishes how a stage failure affects the run.
type StageErrorKind string

const (
	// StageErrorFatal aborts the remaining stages.
	StageErrorFatal StageErrorKind = "fatal"

	// StageErrorWarning records the problem and lets the run continue.
	StageErrorWarning StageErrorKind = "warning"

	// StageErrorCanceled marks a stage interrupted by context cancellation.
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError wraps an error with the stage it occurred in and its impact.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a stage error that aborts the build.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewWarnStageError creates a stage error that is recorded without aborting.
func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

// NewCanceledStageError marks a stage as interrupted by cancellation.
func NewCanceledStageError(stage StageName) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: context.Canceled}
}

// StageFn executes one pipeline stage against the shared build state.
type StageFn func(ctx context.Context, bs *BuildState) error

// StageDef couples a stage with the run state the build enters when it runs.
type StageDef struct {
	Name  StageName
	State RunState
	Fn    StageFn
}

// Pipeline assembles an ordered stage list.
type Pipeline struct {
	stages []StageDef
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends a stage.
func (p *Pipeline) Add(name StageName, state RunState, fn StageFn) *Pipeline {
	p.stages = append(p.stages, StageDef{Name: name, State: state, Fn: fn})
	return p
}

// AddIf appends a stage only when cond holds.
func (p *Pipeline) AddIf(cond bool, name StageName, state RunState, fn StageFn) *Pipeline {
	if cond {
		return p.Add(name, state, fn)
	}
	return p
}

// Build returns the stage list. The returned slice is a copy so callers
// cannot mutate the pipeline after construction.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.stages))
	copy(out, p.stages)
	return out
}
