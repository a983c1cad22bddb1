package build

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	aerrors "github.com/mkrogh/sitegen/internal/assemble/errors"
	cerrors "github.com/mkrogh/sitegen/internal/content/errors"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/frontmatter"
	"github.com/mkrogh/sitegen/internal/layout"
)

func TestClassifyStageResult_NilIsSuccess(t *testing.T) {
	outcome := ClassifyStageResult(StageScanSource, nil)

	require.Equal(t, StageResultSuccess, outcome.Result)
	require.False(t, outcome.Abort)
	require.NoError(t, outcome.Err)
}

func TestClassifyStageResult_FatalAborts(t *testing.T) {
	err := NewFatalStageError(StageScanSource, errors.New("boom"))
	outcome := ClassifyStageResult(StageScanSource, err)

	require.Equal(t, StageResultFatal, outcome.Result)
	require.True(t, outcome.Abort)
	require.Equal(t, string(ferrors.SeverityFatal), outcome.Severity)
}

func TestClassifyStageResult_WarningContinues(t *testing.T) {
	err := NewWarnStageError(StageAssembleIndexes, errors.New("partial"))
	outcome := ClassifyStageResult(StageAssembleIndexes, err)

	require.Equal(t, StageResultWarning, outcome.Result)
	require.False(t, outcome.Abort)
}

func TestClassifyStageResult_CanceledAbortsWithCode(t *testing.T) {
	outcome := ClassifyStageResult(StageRenderDocs, NewCanceledStageError(StageRenderDocs))

	require.Equal(t, StageResultCanceled, outcome.Result)
	require.True(t, outcome.Abort)
	require.Equal(t, IssueBuildCanceled, outcome.IssueCode)
}

func TestClassifyStageResult_BareErrorIsFatal(t *testing.T) {
	outcome := ClassifyStageResult(StagePlanStale, errors.New("unexpected"))

	require.Equal(t, StageResultFatal, outcome.Result)
	require.True(t, outcome.Abort)
	require.Equal(t, IssueStageFailure, outcome.IssueCode)
}

func TestIssueCodeFor_SentinelMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"source missing", fmt.Errorf("wrap: %w", cerrors.ErrSourceNotFound), IssueSourceMissing},
		{"walk failed", fmt.Errorf("wrap: %w", cerrors.ErrSourceWalkFailed), IssueScanFailure},
		{"read failed", fmt.Errorf("wrap: %w", cerrors.ErrFileReadFailed), IssueScanFailure},
		{"bad metadata", fmt.Errorf("wrap: %w", frontmatter.ErrMissingClosingDelimiter), IssueMetadataInvalid},
		{"layout cycle", fmt.Errorf("wrap: %w", layout.ErrCycle), IssueLayoutCycle},
		{"layout missing", fmt.Errorf("wrap: %w", layout.ErrNotFound), IssueLayoutMissing},
		{"collision", fmt.Errorf("wrap: %w", aerrors.ErrOutputCollision), IssueOutputCollision},
		{"index template", fmt.Errorf("wrap: %w", aerrors.ErrIndexTemplateInvalid), IssueIndexGeneration},
		{"unknown", errors.New("mystery"), IssueStageFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, issueCodeFor(tc.err))
		})
	}
}

func TestClassifyStageResult_SentinelInsideStageError(t *testing.T) {
	err := NewFatalStageError(StageScanSource,
		fmt.Errorf("scanning: %w", cerrors.ErrSourceNotFound))
	outcome := ClassifyStageResult(StageScanSource, err)

	require.Equal(t, IssueSourceMissing, outcome.IssueCode)
}

func TestClassifyStageResult_TransientFromClassifiedError(t *testing.T) {
	classified := ferrors.NetworkError("fetch failed").Build()
	err := NewWarnStageError(StageScanSource, classified)

	outcome := ClassifyStageResult(StageScanSource, err)
	require.True(t, outcome.Transient)
}
