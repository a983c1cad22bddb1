package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// stageFinalizeManifest drops manifest entries for documents whose source
// files are gone. On in-place runs their stale outputs are removed too; a
// staged run replaces the whole tree at promotion, so only the entries go.
func stageFinalizeManifest(ctx context.Context, bs *BuildState) error {
	for _, entry := range bs.Plan.Prune {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StageFinalizeManifest)
		}

		if bs.Manifest != nil {
			if err := bs.Manifest.Delete(ctx, entry.RelPath); err != nil {
				bs.Report.AddIssue(ReportIssue{
					Code:      IssueManifestFailure,
					Stage:     string(StageFinalizeManifest),
					Severity:  string(ferrors.SeverityWarning),
					Message:   fmt.Sprintf("%s: %v", entry.RelPath, err),
					Transient: true,
				}, err)
				continue
			}
		}

		if !bs.cleanRun() && entry.OutputPath != "" {
			stale := filepath.Join(bs.OutputDir, filepath.FromSlash(entry.OutputPath))
			if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
				slog.Debug("Stale output removal failed",
					logfields.Output(entry.OutputPath),
					logfields.Error(err))
			}
		}

		bs.Report.Pruned++
		slog.Debug("Manifest entry pruned", logfields.File(entry.RelPath))
	}
	return nil
}
