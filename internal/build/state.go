package build

import (
	"fmt"
	"log/slog"

	"github.com/mkrogh/sitegen/internal/assemble"
	"github.com/mkrogh/sitegen/internal/config"
	"github.com/mkrogh/sitegen/internal/content"
	"github.com/mkrogh/sitegen/internal/layout"
	"github.com/mkrogh/sitegen/internal/logfields"
	"github.com/mkrogh/sitegen/internal/manifest"
	"github.com/mkrogh/sitegen/internal/metrics"
	"github.com/mkrogh/sitegen/internal/render"
)

// RunState tracks where a build run is in its lifecycle.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateScanning  RunState = "scanning"
	StateRendering RunState = "rendering"
	StateWriting   RunState = "writing"
	StateDone      RunState = "done"
	StateFailed    RunState = "failed"
)

// Terminal reports whether the state is final.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition validates and applies a run state change, returning the error
// for disallowed transitions. Staying in the current state is always allowed
// so consecutive stages can share a phase.
func Transition(current, next RunState) (RunState, error) {
	if current == next {
		return next, nil
	}
	if !isAllowedTransition(current, next) {
		return current, fmt.Errorf("invalid run state transition: %s -> %s", current, next)
	}
	return next, nil
}

func isAllowedTransition(from, to RunState) bool {
	if to == StateFailed {
		return !from.Terminal()
	}
	switch from {
	case StateIdle:
		return to == StateScanning
	case StateScanning:
		return to == StateRendering
	case StateRendering:
		// Dry runs finish after planning, without a write phase.
		return to == StateWriting || to == StateDone
	case StateWriting:
		return to == StateDone
	default:
		return false
	}
}

// DocPlan carries one renderable document through the pipeline together with
// its assembled page and the fingerprints used for staleness decisions.
type DocPlan struct {
	Doc         *content.Document
	Page        *assemble.Page
	Chain       []*layout.Layout
	ContentHash string
	ChainHash   string
}

// AssetPlan marks one static file for copying.
type AssetPlan struct {
	Doc         *content.Document
	ContentHash string
}

// RenderedDoc is a successfully rendered document awaiting its write.
type RenderedDoc struct {
	Plan *DocPlan
	HTML []byte
}

// ContentState holds the scan and parse results.
type ContentState struct {
	Docs   []*content.Document // everything the scan found
	Assets []*content.Document
	Plans  []*DocPlan // parsed, non-draft documents still in the run
}

// LayoutState holds the loaded layout registry and per-layout chain caches.
type LayoutState struct {
	Registry     *layout.Registry
	Chains       map[string][]*layout.Layout
	Fingerprints map[string]string
}

// PlanState holds the staleness decisions for the run.
type PlanState struct {
	Previous   map[string]*manifest.Entry // manifest snapshot at plan time
	Render     []*DocPlan
	Skip       []*DocPlan
	CopyAssets []*AssetPlan
	Prune      []*manifest.Entry // entries whose source files are gone
}

// RenderState collects render and write results.
type RenderState struct {
	Outputs []*RenderedDoc // rendered, awaiting write
	Written []*DocPlan     // written this run
}

// BuildState is the shared state threaded through all pipeline stages.
type BuildState struct {
	Config    *config.Config
	SourceDir string
	OutputDir string

	Force   bool
	DryRun  bool
	Workers int

	State RunState

	Report   *BuildReport
	Recorder metrics.Recorder
	Manifest manifest.Store // nil during dry runs
	Renderer *render.Renderer

	Content ContentState
	Layouts LayoutState
	Plan    PlanState
	Render  RenderState

	staging  *staging
	writeDir string // staging dir when output cleaning is on, else OutputDir
}

// advance moves the run to the next state, recording the transition on the
// report. Invalid transitions indicate a pipeline wiring bug.
func (bs *BuildState) advance(next RunState) error {
	if bs.State == next {
		return nil
	}
	newState, err := Transition(bs.State, next)
	if err != nil {
		return err
	}
	slog.Debug("Run state changed",
		logfields.RunID(bs.Report.RunID),
		logfields.State(string(newState)))
	bs.Report.RecordState(bs.State, newState)
	bs.State = newState
	return nil
}

// cleanRun reports whether this run stages a fresh output tree.
func (bs *BuildState) cleanRun() bool {
	return bs.staging != nil
}
