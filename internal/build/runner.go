package build

import (
	"context"
	"log/slog"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// runStages executes the pipeline in order against the shared state.
//
// Each stage result is classified, timed, and recorded on the report. Fatal
// and canceled outcomes abort the remaining stages; warnings are recorded and
// the run continues. The first aborting error is returned.
func runStages(ctx context.Context, stages []StageDef, bs *BuildState, obs BuildObserver) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			err := NewCanceledStageError(st.Name)
			outcome := ClassifyStageResult(st.Name, err)
			bs.Report.RecordStageResult(outcome, 0, bs.Recorder)
			bs.Report.AddIssue(issueFromOutcome(outcome), err)
			return err
		default:
		}

		if err := bs.advance(st.State); err != nil {
			wrapped := NewFatalStageError(st.Name,
				ferrors.InternalError("pipeline state error").WithContext("stage", string(st.Name)).Build())
			outcome := ClassifyStageResult(st.Name, wrapped)
			bs.Report.RecordStageResult(outcome, 0, bs.Recorder)
			bs.Report.AddIssue(issueFromOutcome(outcome), err)
			return wrapped
		}

		obs.OnStageStart(st.Name)
		slog.Debug("Stage starting",
			logfields.RunID(bs.Report.RunID),
			logfields.Stage(string(st.Name)))

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		elapsed := time.Since(t0)

		outcome := ClassifyStageResult(st.Name, err)
		bs.Report.RecordStageResult(outcome, elapsed, bs.Recorder)
		if err != nil {
			bs.Report.AddIssue(issueFromOutcome(outcome), err)
		}
		obs.OnStageComplete(outcome)

		logStageComplete(st.Name, outcome, elapsed)

		if outcome.Abort {
			return err
		}
	}
	return nil
}

// issueFromOutcome converts a classified stage outcome into a report issue.
func issueFromOutcome(outcome StageOutcome) ReportIssue {
	message := ""
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}
	return ReportIssue{
		Code:      outcome.IssueCode,
		Stage:     string(outcome.Stage),
		Severity:  outcome.Severity,
		Message:   message,
		Transient: outcome.Transient,
	}
}

func logStageComplete(stage StageName, outcome StageOutcome, elapsed time.Duration) {
	attrs := []any{
		logfields.Stage(string(stage)),
		logfields.DurationMS(float64(elapsed.Microseconds()) / 1000.0),
	}
	switch outcome.Result {
	case StageResultSuccess:
		slog.Debug("Stage completed", attrs...)
	case StageResultWarning:
		slog.Warn("Stage completed with warnings", append(attrs, logfields.Error(outcome.Err))...)
	case StageResultCanceled:
		slog.Warn("Stage canceled", attrs...)
	default:
		slog.Error("Stage failed", append(attrs, logfields.Error(outcome.Err))...)
	}
}
