package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mkrogh/sitegen/internal/assemble"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/layout"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// stageAssembleIndexes generates the site index and tag pages over every
// document that has an output this run (fresh or reused), renders them
// through the default layout chain, and writes them out. Index pages are
// regenerated every run; they are cheap and depend on the whole page set.
func stageAssembleIndexes(ctx context.Context, bs *BuildState) error {
	pages := bs.livePages()
	assembler := assemble.New(bs.Config.Site, layoutsDir(bs))

	indexes, err := assembler.Indexes(assemble.Sorted(pages))
	if err != nil {
		return NewWarnStageError(StageAssembleIndexes,
			ferrors.WrapError(err, ferrors.CategoryAssemble, "generating index pages").
				Build())
	}

	chain := bs.defaultChain()

	for _, idx := range indexes {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StageAssembleIndexes)
		}

		// Index bodies are HTML fragments; unresolved placeholders become
		// markers even in strict builds, since layouts may reference
		// document fields no index page carries.
		res, err := bs.Renderer.Render(idx.Body, ".html", chain, idx.Fields)
		if err != nil {
			bs.Report.AddIssue(ReportIssue{
				Code:     IssueIndexGeneration,
				Stage:    string(StageAssembleIndexes),
				Severity: string(ferrors.SeverityError),
				Message:  fmt.Sprintf("%s: %v", idx.OutputPath, err),
			}, err)
			continue
		}

		target := filepath.Join(bs.writeDir, filepath.FromSlash(idx.OutputPath))
		if err := writeFileAtomic(target, res.HTML, 0o644); err != nil {
			bs.Report.AddIssue(ReportIssue{
				Code:     IssueIndexGeneration,
				Stage:    string(StageAssembleIndexes),
				Severity: string(ferrors.SeverityError),
				Message:  fmt.Sprintf("%s: %v", idx.OutputPath, err),
			}, err)
			continue
		}
	}

	slog.Debug("Indexes assembled",
		logfields.RunID(bs.Report.RunID),
		logfields.Count(len(indexes)))
	return nil
}

// defaultChain resolves the layout chain index pages render through. The
// default layout may never be named by a document directly, so this resolves
// rather than reading the per-document cache. An unknown default leaves index
// bodies bare instead of failing the run.
func (bs *BuildState) defaultChain() []*layout.Layout {
	name := bs.Config.Site.DefaultLayout
	if name == "" {
		return nil
	}
	chain, _, err := bs.resolveChain(name)
	if err != nil {
		slog.Warn("Default layout unavailable for index pages",
			logfields.Name(name),
			logfields.Error(err))
		return nil
	}
	return chain
}

// livePages returns the pages whose outputs exist after this run: everything
// written plus everything skipped as still fresh.
func (bs *BuildState) livePages() []*assemble.Page {
	pages := make([]*assemble.Page, 0, len(bs.Render.Written)+len(bs.Plan.Skip))
	for _, plan := range bs.Render.Written {
		pages = append(pages, plan.Page)
	}
	for _, plan := range bs.Plan.Skip {
		pages = append(pages, plan.Page)
	}
	return pages
}
