package build

import (
	"context"
	"os"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// stagePrepareOutput readies the directory the run writes into. With output
// cleaning on, a staging tree is built beside the real output and promoted
// after the run; otherwise outputs land in place.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	if bs.DryRun {
		bs.writeDir = bs.OutputDir
		return nil
	}

	if bs.Config.Build.CleanOutput {
		st, err := beginStaging(bs.OutputDir)
		if err != nil {
			return NewFatalStageError(StagePrepareOutput,
				ferrors.WrapError(err, ferrors.CategoryFileSystem, "preparing staging directory").
					WithSeverity(ferrors.SeverityFatal).
					WithContext("output", bs.OutputDir).
					Build())
		}
		bs.staging = st
		bs.writeDir = st.stageDir
		return nil
	}

	if err := os.MkdirAll(bs.OutputDir, 0o755); err != nil {
		return NewFatalStageError(StagePrepareOutput,
			ferrors.WrapError(err, ferrors.CategoryFileSystem, "creating output directory").
				WithSeverity(ferrors.SeverityFatal).
				WithContext("output", bs.OutputDir).
				Build())
	}
	bs.writeDir = bs.OutputDir
	return nil
}
