package build

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/manifest"
)

// stageWriteOutput writes rendered documents to the output tree and records
// each one in the manifest. Writes run sequentially so the manifest has a
// single writer; each file lands atomically via tmp-and-rename.
func stageWriteOutput(ctx context.Context, bs *BuildState) error {
	for _, out := range bs.Render.Outputs {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StageWriteOutput)
		}

		plan := out.Plan
		target := filepath.Join(bs.writeDir, filepath.FromSlash(plan.Page.OutputPath))
		if err := writeFileAtomic(target, out.HTML, 0o644); err != nil {
			bs.failDocument(StageWriteOutput, IssueWriteFailure, plan.Doc.RelPath,
				ferrors.WrapError(err, ferrors.CategoryFileSystem, "writing rendered output").
					WithContext("file", plan.Doc.RelPath).
					WithContext("output", plan.Page.OutputPath).
					Build())
			continue
		}

		bs.Render.Written = append(bs.Render.Written, plan)
		bs.Report.Rendered++
		if bs.Recorder != nil {
			bs.Recorder.IncDocResult("rendered")
		}

		bs.recordManifestEntry(ctx, StageWriteOutput, manifest.Entry{
			RelPath:     plan.Doc.RelPath,
			ContentHash: plan.ContentHash,
			ChainHash:   plan.ChainHash,
			OutputPath:  plan.Page.OutputPath,
			RenderedAt:  time.Now(),
		})
	}
	return nil
}

// recordManifestEntry stores one manifest entry, downgrading failures to
// warnings: a missed entry only costs a re-render next run.
func (bs *BuildState) recordManifestEntry(ctx context.Context, stage StageName, entry manifest.Entry) {
	if bs.Manifest == nil {
		return
	}
	if err := bs.Manifest.Put(ctx, entry); err != nil {
		bs.Report.AddIssue(ReportIssue{
			Code:      IssueManifestFailure,
			Stage:     string(stage),
			Severity:  string(ferrors.SeverityWarning),
			Message:   fmt.Sprintf("%s: %v", entry.RelPath, err),
			Transient: true,
		}, err)
	}
}
