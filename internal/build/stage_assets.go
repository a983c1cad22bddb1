package build

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/manifest"
)

// stageCopyAssets copies changed static files into the output tree, keeping
// their source-relative paths. Assets are tracked in the manifest with an
// empty chain hash so unchanged files are skipped on later runs.
func stageCopyAssets(ctx context.Context, bs *BuildState) error {
	for _, plan := range bs.Plan.CopyAssets {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StageCopyAssets)
		}

		target := filepath.Join(bs.writeDir, filepath.FromSlash(plan.Doc.RelPath))
		if err := copyFileAtomic(plan.Doc.SourcePath, target, 0o644); err != nil {
			bs.Report.AddIssue(ReportIssue{
				Code:     IssueAssetCopyFailure,
				Stage:    string(StageCopyAssets),
				Severity: string(ferrors.SeverityError),
				Message:  fmt.Sprintf("%s: %v", plan.Doc.RelPath, err),
			}, err)
			continue
		}

		bs.Report.AssetsCopied++

		bs.recordManifestEntry(ctx, StageCopyAssets, manifest.Entry{
			RelPath:     plan.Doc.RelPath,
			ContentHash: plan.ContentHash,
			ChainHash:   "",
			OutputPath:  plan.Doc.RelPath,
			RenderedAt:  time.Now(),
		})
	}
	return nil
}
