package build

import (
	"context"
	"time"

	"github.com/mkrogh/sitegen/internal/config"
	"github.com/mkrogh/sitegen/internal/manifest"
	"github.com/mkrogh/sitegen/internal/metrics"
)

// Service is the canonical entry point for executing builds. The CLI and the
// serve daemon both route through it, so build behavior cannot drift between
// the two.
type Service interface {
	// Run executes one build. The result is always returned, even when the
	// run aborted; the error mirrors Orchestrator.Run.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request carries the inputs for one build run.
type Request struct {
	Config    *config.Config
	SourceDir string
	OutputDir string
	Options   Options
}

// Options modify how a run executes.
type Options struct {
	// Force renders every document regardless of manifest state.
	Force bool

	// DryRun plans the build without writing anything.
	DryRun bool

	// Recorder receives build metrics when set.
	Recorder metrics.Recorder

	// Observer receives lifecycle callbacks when set.
	Observer BuildObserver

	// Store overrides the manifest store for this run. Callers keep
	// ownership; the run will not close it.
	Store manifest.Store
}

// Result summarizes one build run.
type Result struct {
	Report   *BuildReport
	Outcome  Outcome
	ExitCode int
	Duration time.Duration
}

type service struct{}

// NewService creates the standard orchestrator-backed service.
func NewService() Service {
	return service{}
}

func (service) Run(ctx context.Context, req Request) (*Result, error) {
	var opts []Option
	if req.Options.Force {
		opts = append(opts, WithForce(true))
	}
	if req.Options.DryRun {
		opts = append(opts, WithDryRun(true))
	}
	if req.Options.Recorder != nil {
		opts = append(opts, WithRecorder(req.Options.Recorder))
	}
	if req.Options.Observer != nil {
		opts = append(opts, WithObserver(req.Options.Observer))
	}
	if req.Options.Store != nil {
		opts = append(opts, WithStore(req.Options.Store))
	}

	report, err := New(req.Config, req.SourceDir, req.OutputDir, opts...).Run(ctx)

	return &Result{
		Report:   report,
		Outcome:  report.Outcome,
		ExitCode: report.ExitCode(),
		Duration: report.Duration(),
	}, err
}
