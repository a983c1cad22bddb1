package build

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
	"github.com/mkrogh/sitegen/internal/manifest"
	"github.com/mkrogh/sitegen/internal/metrics"
	"github.com/mkrogh/sitegen/internal/render"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder routes build metrics to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithObserver registers a lifecycle observer.
func WithObserver(obs BuildObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithStore injects a manifest store. The orchestrator will not close an
// injected store; callers running repeated builds share one across runs.
func WithStore(store manifest.Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithForce renders every document regardless of manifest state.
func WithForce(force bool) Option {
	return func(o *Orchestrator) { o.force = force }
}

// WithDryRun plans the build without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(o *Orchestrator) { o.dryRun = dryRun }
}

// Orchestrator executes build runs for one source and output pair.
type Orchestrator struct {
	cfg       *config.Config
	sourceDir string
	outputDir string

	force    bool
	dryRun   bool
	recorder metrics.Recorder
	observer BuildObserver
	store    manifest.Store
}

// New creates an orchestrator. The same orchestrator can run repeatedly;
// each Run gets fresh state.
func New(cfg *config.Config, sourceDir, outputDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		sourceDir: sourceDir,
		outputDir: outputDir,
		recorder:  metrics.NoopRecorder{},
		observer:  NoopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one build and always returns the report, even on failure.
// The returned error is non-nil only when the run aborted: a fatal stage
// error or cancellation. Per-document failures surface through the report's
// outcome and exit code instead.
func (o *Orchestrator) Run(ctx context.Context) (*BuildReport, error) {
	runID := uuid.NewString()
	report := NewBuildReport(runID, o.sourceDir, o.outputDir)

	slog.Info("Build starting",
		logfields.RunID(runID),
		logfields.Source(o.sourceDir),
		logfields.Output(o.outputDir))

	bs := &BuildState{
		Config:    o.cfg,
		SourceDir: o.sourceDir,
		OutputDir: o.outputDir,
		Force:     o.force,
		DryRun:    o.dryRun,
		Workers:   o.cfg.Build.Workers,
		State:     StateIdle,
		Report:    report,
		Recorder:  o.recorder,
		// Strictness is applied per document by the render collector, so
		// unresolved placeholders always come back as data.
		Renderer: render.New(render.Options{}),
	}

	ownStore := o.openManifest(ctx, bs)

	runErr := runStages(ctx, o.pipeline(), bs, o.observer)
	runErr = o.settleStaging(bs, runErr)

	outcome := report.DeriveOutcome()
	report.Finish(outcome)
	_ = bs.advance(terminalState(outcome))

	if o.recorder != nil {
		o.recorder.ObserveBuildDuration(report.Duration())
		o.recorder.IncBuildOutcome(string(outcome))
	}

	o.closeout(ctx, bs, ownStore)
	o.observer.OnBuildComplete(report)

	slog.Info("Build finished",
		logfields.RunID(runID),
		logfields.State(string(bs.State)),
		slog.String("outcome", string(outcome)),
		slog.String("summary", report.Summary()))

	return report, runErr
}

// pipeline assembles the stage list for this run. Dry runs stop after
// planning; nothing past plan_stale touches the filesystem.
func (o *Orchestrator) pipeline() []StageDef {
	return NewPipeline().
		Add(StagePrepareOutput, StateScanning, stagePrepareOutput).
		Add(StageScanSource, StateScanning, stageScanSource).
		Add(StageParseMeta, StateScanning, stageParseMeta).
		Add(StageResolveLayouts, StateRendering, stageResolveLayouts).
		Add(StagePlanStale, StateRendering, stagePlanStale).
		AddIf(!o.dryRun, StageRenderDocs, StateRendering, stageRenderDocs).
		AddIf(!o.dryRun, StageWriteOutput, StateWriting, stageWriteOutput).
		AddIf(!o.dryRun, StageAssembleIndexes, StateWriting, stageAssembleIndexes).
		AddIf(!o.dryRun, StageCopyAssets, StateWriting, stageCopyAssets).
		AddIf(!o.dryRun, StageFinalizeManifest, StateWriting, stageFinalizeManifest).
		Build()
}

// openManifest attaches a manifest store to the run and reports whether the
// run owns it. A store that cannot be opened degrades the run to a full
// render rather than failing it.
func (o *Orchestrator) openManifest(_ context.Context, bs *BuildState) bool {
	if o.dryRun {
		return false
	}
	if o.store != nil {
		bs.Manifest = o.store
		return false
	}

	path := o.cfg.ManifestPath(o.outputDir)
	store, err := manifest.NewSQLiteStore(path)
	if err != nil {
		bs.Report.AddIssue(ReportIssue{
			Code:      IssueManifestFailure,
			Stage:     string(StagePrepareOutput),
			Severity:  string(ferrors.SeverityWarning),
			Message:   "manifest store unavailable: " + err.Error(),
			Transient: true,
		}, err)
		slog.Warn("Manifest store unavailable, incremental state disabled",
			logfields.Path(path),
			logfields.Error(err))
		return false
	}
	bs.Manifest = store
	return true
}

// settleStaging promotes or discards the staged output tree. A failed
// promotion turns an otherwise good run into a failed one; the previous
// output is left in place.
func (o *Orchestrator) settleStaging(bs *BuildState, runErr error) error {
	if bs.staging == nil {
		return runErr
	}
	if runErr != nil {
		bs.staging.abort()
		return runErr
	}

	if err := bs.staging.finalize(); err != nil {
		const stage = "promote_output"
		classified := ferrors.WrapError(err, ferrors.CategoryFileSystem, "promoting staged output").
			WithSeverity(ferrors.SeverityFatal).
			WithContext("output", o.outputDir).
			Build()
		bs.Report.AddIssue(ReportIssue{
			Code:     IssueWriteFailure,
			Stage:    stage,
			Severity: string(ferrors.SeverityFatal),
			Message:  classified.Error(),
		}, classified)
		bs.Report.StageResults[stage] = string(StageResultFatal)
		bs.staging.abort()
		return NewFatalStageError(StageName(stage), classified)
	}
	return nil
}

// closeout records the run in the manifest ledger, persists the report, and
// closes a store this run opened. Cleanup proceeds even when the context is
// already canceled.
func (o *Orchestrator) closeout(ctx context.Context, bs *BuildState, ownStore bool) {
	report := bs.Report
	cleanupCtx := context.WithoutCancel(ctx)

	if bs.Manifest != nil {
		run := manifest.Run{
			ID:         report.RunID,
			StartedAt:  report.Start,
			FinishedAt: report.End,
			Outcome:    string(report.Outcome),
			Rendered:   report.Rendered,
			Skipped:    report.Skipped,
			Failed:     report.Failed,
		}
		if err := bs.Manifest.RecordRun(cleanupCtx, run); err != nil {
			slog.Warn("Run ledger update failed",
				logfields.RunID(report.RunID),
				logfields.Error(err))
		}
	}

	if !o.dryRun {
		reportDir := filepath.Dir(o.cfg.ManifestPath(o.outputDir))
		if err := report.Persist(reportDir); err != nil {
			slog.Warn("Report persistence failed",
				logfields.Path(reportDir),
				logfields.Error(err))
		}
	}

	if ownStore && bs.Manifest != nil {
		if err := bs.Manifest.Close(); err != nil {
			slog.Warn("Manifest close failed", logfields.Error(err))
		}
	}
}

func terminalState(outcome Outcome) RunState {
	if outcome == OutcomeSuccess || outcome == OutcomePartial {
		return StateDone
	}
	return StateFailed
}
