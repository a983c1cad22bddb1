package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkrogh/sitegen/internal/assemble"
	"github.com/mkrogh/sitegen/internal/content"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// stageParseMeta parses the metadata header of every renderable document and
// assembles its page. A document that fails to parse is dropped from the run
// and recorded; the rest of the build continues without it.
func stageParseMeta(ctx context.Context, bs *BuildState) error {
	assembler := assemble.New(bs.Config.Site, layoutsDir(bs))

	var plans []*DocPlan
	for _, doc := range content.Renderable(bs.Content.Docs) {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StageParseMeta)
		}

		if err := doc.Parse(); err != nil {
			bs.failDocument(StageParseMeta, IssueMetadataInvalid, doc.RelPath,
				ferrors.WrapError(err, ferrors.CategoryMetadata, "parsing metadata header").
					WithContext("file", doc.RelPath).
					Build())
			continue
		}

		if doc.Meta.Draft && !bs.Config.Build.Drafts {
			slog.Debug("Draft excluded", logfields.File(doc.RelPath))
			continue
		}

		plans = append(plans, &DocPlan{Doc: doc, Page: assembler.PageFor(doc)})
	}

	bs.Content.Plans = plans
	return nil
}

// failDocument records one lost document: an issue on the report, the failed
// counter, and the per-document metric.
func (bs *BuildState) failDocument(stage StageName, code, relPath string, err error) {
	bs.Report.AddIssue(ReportIssue{
		Code:     code,
		Stage:    string(stage),
		Severity: string(ferrors.SeverityError),
		Message:  fmt.Sprintf("%s: %v", relPath, err),
	}, err)
	bs.Report.Failed++
	if bs.Recorder != nil {
		bs.Recorder.IncDocResult("failed")
	}
	slog.Warn("Document failed",
		logfields.Stage(string(stage)),
		logfields.File(relPath),
		logfields.Error(err))
}
