package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/metrics"
)

// ReportSchemaVersion identifies the persisted report layout. Bump when the
// serialized shape changes incompatibly.
const ReportSchemaVersion = 1

// Outcome is the overall result of a build run.
type Outcome string

const (
	// OutcomeSuccess means every planned document rendered and wrote cleanly.
	OutcomeSuccess Outcome = "success"

	// OutcomePartial means the run completed but at least one document or
	// output was lost along the way.
	OutcomePartial Outcome = "partial"

	// OutcomeFailed means a fatal problem aborted the run.
	OutcomeFailed Outcome = "failed"

	// OutcomeCanceled means the run was interrupted by context cancellation.
	OutcomeCanceled Outcome = "canceled"
)

// ReportIssue is one recorded problem. Issues carry stable codes so report
// consumers can filter without parsing messages.
type ReportIssue struct {
	Code      string `json:"code"`
	Stage     string `json:"stage"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Transient bool   `json:"transient,omitempty"`
}

// StateChange records one run state transition.
type StateChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BuildReport captures everything that happened during one build run. It is
// owned by the orchestrator goroutine; stages and the render collector write
// to it sequentially.
type BuildReport struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	SourceDir     string    `json:"source_dir"`
	OutputDir     string    `json:"output_dir"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Outcome       Outcome   `json:"outcome"`

	SourceDocs   int `json:"source_docs"`   // renderable documents found
	AssetsFound  int `json:"assets_found"`  // static files found
	Planned      int `json:"planned"`       // documents selected for rendering
	Rendered     int `json:"rendered"`      // documents rendered and written
	Skipped      int `json:"skipped"`       // documents reused from the previous run
	Failed       int `json:"failed"`        // documents lost to per-document errors
	AssetsCopied int `json:"assets_copied"` // static files copied this run
	Pruned       int `json:"pruned"`        // manifest entries dropped for deleted sources

	StageDurations  map[string]time.Duration `json:"-"`
	StageResults    map[string]string        `json:"stage_results"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds,omitempty"`
	States          []StateChange            `json:"states"`
	Issues          []ReportIssue            `json:"issues"`

	Errors   []error `json:"-"`
	Warnings []error `json:"-"`
}

// NewBuildReport creates a report for a run that starts now.
func NewBuildReport(runID, sourceDir, outputDir string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   ReportSchemaVersion,
		RunID:           runID,
		SourceDir:       sourceDir,
		OutputDir:       outputDir,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageResults:    make(map[string]string),
		StageErrorKinds: make(map[string]string),
	}
}

// AddIssue records a problem and mirrors it into the error or warning list
// according to its severity.
func (r *BuildReport) AddIssue(issue ReportIssue, err error) {
	r.Issues = append(r.Issues, issue)
	if err == nil {
		return
	}
	switch issue.Severity {
	case string(ferrors.SeverityWarning), string(ferrors.SeverityInfo):
		r.Warnings = append(r.Warnings, err)
	default:
		r.Errors = append(r.Errors, err)
	}
}

// RecordStageResult stores the stage timing and result, and forwards both to
// the metrics recorder.
func (r *BuildReport) RecordStageResult(outcome StageOutcome, d time.Duration, rec metrics.Recorder) {
	stage := string(outcome.Stage)
	r.StageDurations[stage] = d
	r.StageResults[stage] = string(outcome.Result)
	if outcome.Err != nil {
		r.StageErrorKinds[stage] = string(outcome.Result)
	}
	if rec != nil {
		rec.ObserveStageDuration(stage, d)
		rec.IncStageResult(stage, resultLabel(outcome.Result))
	}
}

func resultLabel(result StageResult) metrics.ResultLabel {
	switch result {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}

// RecordState appends a run state transition.
func (r *BuildReport) RecordState(from, to RunState) {
	r.States = append(r.States, StateChange{From: string(from), To: string(to)})
}

// DeriveOutcome computes the run outcome from the recorded stage results and
// per-document counters. Warnings alone do not degrade a successful run.
func (r *BuildReport) DeriveOutcome() Outcome {
	for _, result := range r.StageResults {
		if result == string(StageResultCanceled) {
			return OutcomeCanceled
		}
	}
	for _, result := range r.StageResults {
		if result == string(StageResultFatal) {
			return OutcomeFailed
		}
	}
	if r.Failed > 0 || len(r.Errors) > 0 {
		return OutcomePartial
	}
	return OutcomeSuccess
}

// Finish stamps the end time and final outcome.
func (r *BuildReport) Finish(outcome Outcome) {
	r.End = time.Now()
	r.Outcome = outcome
}

// Duration returns the wall time of the run so far.
func (r *BuildReport) Duration() time.Duration {
	end := r.End
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(r.Start)
}

// ExitCode maps the outcome to the process exit code.
func (r *BuildReport) ExitCode() int {
	switch r.Outcome {
	case OutcomeSuccess:
		return ferrors.ExitOK
	case OutcomePartial:
		return ferrors.ExitPartial
	default:
		return ferrors.ExitFatal
	}
}

// Summary returns a one-line human summary of the run.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("%s: %d rendered, %d skipped, %d failed, %d assets in %s",
		r.Outcome, r.Rendered, r.Skipped, r.Failed, r.AssetsCopied,
		r.Duration().Round(time.Millisecond))
}

// buildReportSerializable is the JSON shape of a report. Errors flatten to
// strings and durations to milliseconds.
type buildReportSerializable struct {
	BuildReport
	DurationMS       float64            `json:"duration_ms"`
	StageDurationsMS map[string]float64 `json:"stage_durations_ms"`
	ErrorMessages    []string           `json:"errors,omitempty"`
	WarningMessages  []string           `json:"warnings,omitempty"`
}

func (r *BuildReport) sanitized() buildReportSerializable {
	out := buildReportSerializable{
		BuildReport:      *r,
		DurationMS:       float64(r.Duration().Microseconds()) / 1000.0,
		StageDurationsMS: make(map[string]float64, len(r.StageDurations)),
	}
	for stage, d := range r.StageDurations {
		out.StageDurationsMS[stage] = float64(d.Microseconds()) / 1000.0
	}
	for _, err := range r.Errors {
		out.ErrorMessages = append(out.ErrorMessages, err.Error())
	}
	for _, err := range r.Warnings {
		out.WarningMessages = append(out.WarningMessages, err.Error())
	}
	return out
}

// Persist writes the report as build-report.json plus a human-readable
// build-report.txt in dir. Both writes are atomic.
func (r *BuildReport) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(r.sanitized(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling build report: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, "build-report.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing build report: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(dir, "build-report.txt"), []byte(r.text()), 0o644); err != nil {
		return fmt.Errorf("writing build report text: %w", err)
	}
	return nil
}

func (r *BuildReport) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build %s\n", r.RunID)
	fmt.Fprintf(&b, "  %s\n", r.Summary())
	fmt.Fprintf(&b, "  source: %s\n", r.SourceDir)
	fmt.Fprintf(&b, "  output: %s\n", r.OutputDir)
	if len(r.Issues) > 0 {
		fmt.Fprintf(&b, "  issues:\n")
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, "    [%s] %s (%s): %s\n", issue.Severity, issue.Code, issue.Stage, issue.Message)
		}
	}
	return b.String()
}
