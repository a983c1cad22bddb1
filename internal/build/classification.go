package build

import (
	"errors"

	aerrors "github.com/mkrogh/sitegen/internal/assemble/errors"
	cerrors "github.com/mkrogh/sitegen/internal/content/errors"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/frontmatter"
	"github.com/mkrogh/sitegen/internal/layout"
)

// StageResult categorizes how a stage ended.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// Issue codes attached to report issues. Stable identifiers for log
// filtering and report consumers.
const (
	IssueSourceMissing         = "SOURCE_MISSING"
	IssueScanFailure           = "SCAN_FAILURE"
	IssueMetadataInvalid       = "METADATA_INVALID"
	IssueLayoutMissing         = "LAYOUT_MISSING"
	IssueLayoutCycle           = "LAYOUT_CYCLE"
	IssueRenderFailure         = "RENDER_FAILURE"
	IssueUnresolvedPlaceholder = "UNRESOLVED_PLACEHOLDER"
	IssueWriteFailure          = "WRITE_FAILURE"
	IssueOutputCollision       = "OUTPUT_COLLISION"
	IssueAssetCopyFailure      = "ASSET_COPY_FAILURE"
	IssueIndexGeneration       = "INDEX_GENERATION"
	IssueManifestFailure       = "MANIFEST_FAILURE"
	IssueBuildCanceled         = "BUILD_CANCELED"
	IssueStageFailure          = "STAGE_FAILURE"
)

// StageOutcome is the classified result of one stage execution.
type StageOutcome struct {
	Stage     StageName
	Err       error
	Result    StageResult
	IssueCode string
	Severity  string
	Transient bool
	Abort     bool
}

// ClassifyStageResult maps a stage error to its outcome: how the result is
// recorded, which issue code it carries, and whether the run aborts.
func ClassifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	outcome := StageOutcome{
		Stage:     stage,
		Err:       err,
		IssueCode: issueCodeFor(err),
		Transient: isTransient(err),
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Kind {
		case StageErrorCanceled:
			outcome.Result = StageResultCanceled
			outcome.Severity = string(ferrors.SeverityWarning)
			outcome.IssueCode = IssueBuildCanceled
			outcome.Abort = true
		case StageErrorWarning:
			outcome.Result = StageResultWarning
			outcome.Severity = string(ferrors.SeverityWarning)
		default:
			outcome.Result = StageResultFatal
			outcome.Severity = string(ferrors.SeverityFatal)
			outcome.Abort = true
		}
		return outcome
	}

	// A bare error from a stage is treated as fatal: stages downgrade
	// recoverable problems to issues themselves.
	outcome.Result = StageResultFatal
	outcome.Severity = string(ferrors.SeverityFatal)
	outcome.Abort = true
	return outcome
}

// issueCodeFor maps known sentinel errors to issue codes, falling back to a
// generic stage failure.
func issueCodeFor(err error) string {
	switch {
	case errors.Is(err, cerrors.ErrSourceNotFound):
		return IssueSourceMissing
	case errors.Is(err, cerrors.ErrSourceWalkFailed),
		errors.Is(err, cerrors.ErrFileReadFailed),
		errors.Is(err, cerrors.ErrInvalidRelativePath):
		return IssueScanFailure
	case errors.Is(err, frontmatter.ErrMissingClosingDelimiter):
		return IssueMetadataInvalid
	case errors.Is(err, layout.ErrCycle):
		return IssueLayoutCycle
	case errors.Is(err, layout.ErrNotFound):
		return IssueLayoutMissing
	case errors.Is(err, aerrors.ErrOutputCollision):
		return IssueOutputCollision
	case errors.Is(err, aerrors.ErrIndexTemplateInvalid),
		errors.Is(err, aerrors.ErrIndexGenerationFailed):
		return IssueIndexGeneration
	default:
		return IssueStageFailure
	}
}

func isTransient(err error) bool {
	var classified *ferrors.ClassifiedError
	if errors.As(err, &classified) {
		return classified.IsTransient()
	}
	return false
}
