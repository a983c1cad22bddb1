package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/mkrogh/sitegen/internal/assemble"
	aerrors "github.com/mkrogh/sitegen/internal/assemble/errors"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
	"github.com/mkrogh/sitegen/internal/manifest"
)

// stagePlanStale decides what actually needs work this run.
//
// A document renders when the run is forced or output-cleaning, when its
// content or layout chain fingerprint changed, when it has no manifest entry,
// or when its output file is missing. Everything else is skipped and its
// prior output reused. Assets follow the same rule with a content
// fingerprint alone. Manifest entries whose source files are gone are marked
// for pruning.
func stagePlanStale(ctx context.Context, bs *BuildState) error {
	bs.dropCollisions()

	previous, err := bs.manifestSnapshot(ctx)
	if err != nil {
		// Plan without history: every document renders this run.
		bs.Report.AddIssue(ReportIssue{
			Code:     IssueManifestFailure,
			Stage:    string(StagePlanStale),
			Severity: string(ferrors.SeverityWarning),
			Message:  fmt.Sprintf("manifest unavailable, rendering everything: %v", err),
		}, err)
		previous = map[string]*manifest.Entry{}
	}
	bs.Plan.Previous = previous

	renderAll := bs.Force || bs.cleanRun()

	for _, plan := range bs.Content.Plans {
		if err := ctx.Err(); err != nil {
			return NewCanceledStageError(StagePlanStale)
		}

		contentHash, err := plan.Doc.Fingerprint()
		if err != nil {
			bs.failDocument(StagePlanStale, IssueScanFailure, plan.Doc.RelPath,
				ferrors.WrapError(err, ferrors.CategoryContent, "reading document").
					WithContext("file", plan.Doc.RelPath).
					Build())
			continue
		}
		plan.ContentHash = contentHash

		if renderAll || bs.isStale(plan, previous[plan.Doc.RelPath]) {
			bs.Plan.Render = append(bs.Plan.Render, plan)
			continue
		}

		bs.Plan.Skip = append(bs.Plan.Skip, plan)
		bs.Report.Skipped++
		if bs.Recorder != nil {
			bs.Recorder.IncDocResult("skipped")
		}
	}

	bs.planAssets(renderAll, previous)
	bs.planPrune(previous)

	bs.Report.Planned = len(bs.Plan.Render)
	slog.Info("Build planned",
		logfields.RunID(bs.Report.RunID),
		logfields.Count(bs.Report.Planned),
		slog.Int("skipped", bs.Report.Skipped),
		slog.Int("assets", len(bs.Plan.CopyAssets)),
		slog.Int("pruned", len(bs.Plan.Prune)))
	return nil
}

// dropCollisions removes pages whose derived output path is already claimed.
// Plans arrive sorted by source path, so the survivor is deterministic.
func (bs *BuildState) dropCollisions() {
	pages := make([]*assemble.Page, 0, len(bs.Content.Plans))
	for _, plan := range bs.Content.Plans {
		pages = append(pages, plan.Page)
	}

	collisions := assemble.CheckCollisions(pages)
	if len(collisions) == 0 {
		return
	}

	dropped := make(map[string]assemble.Collision, len(collisions))
	for _, c := range collisions {
		dropped[c.Second] = c
	}

	kept := bs.Content.Plans[:0]
	for _, plan := range bs.Content.Plans {
		c, drop := dropped[plan.Doc.RelPath]
		if !drop {
			kept = append(kept, plan)
			continue
		}
		bs.failDocument(StagePlanStale, IssueOutputCollision, plan.Doc.RelPath,
			ferrors.WrapError(aerrors.ErrOutputCollision, ferrors.CategoryAssemble, "output path already claimed").
				WithContext("output", c.OutputPath).
				WithContext("kept", c.First).
				Build())
	}
	bs.Content.Plans = kept
}

// manifestSnapshot loads all previous manifest entries, or an empty map when
// the run has no manifest.
func (bs *BuildState) manifestSnapshot(ctx context.Context) (map[string]*manifest.Entry, error) {
	if bs.Manifest == nil {
		return map[string]*manifest.Entry{}, nil
	}
	return bs.Manifest.All(ctx)
}

// isStale reports whether a document's prior output can be reused.
func (bs *BuildState) isStale(plan *DocPlan, prev *manifest.Entry) bool {
	if prev == nil || !prev.Matches(plan.ContentHash, plan.ChainHash) {
		return true
	}
	if _, err := os.Stat(filepath.Join(bs.OutputDir, plan.Page.OutputPath)); err != nil {
		return true
	}
	return false
}

// planAssets selects assets whose bytes changed or whose output is missing.
func (bs *BuildState) planAssets(renderAll bool, previous map[string]*manifest.Entry) {
	for _, doc := range bs.Content.Assets {
		contentHash, err := doc.Fingerprint()
		if err != nil {
			bs.Report.AddIssue(ReportIssue{
				Code:     IssueAssetCopyFailure,
				Stage:    string(StagePlanStale),
				Severity: string(ferrors.SeverityError),
				Message:  fmt.Sprintf("%s: %v", doc.RelPath, err),
			}, err)
			continue
		}

		stale := renderAll
		if !stale {
			prev := previous[doc.RelPath]
			if prev == nil || !prev.Matches(contentHash, "") {
				stale = true
			} else if _, err := os.Stat(filepath.Join(bs.OutputDir, doc.RelPath)); err != nil {
				stale = true
			}
		}
		if stale {
			bs.Plan.CopyAssets = append(bs.Plan.CopyAssets, &AssetPlan{Doc: doc, ContentHash: contentHash})
		}
	}
}

// planPrune marks manifest entries whose source files no longer exist.
func (bs *BuildState) planPrune(previous map[string]*manifest.Entry) {
	if len(previous) == 0 {
		return
	}

	current := make(map[string]struct{}, len(bs.Content.Docs))
	for _, doc := range bs.Content.Docs {
		current[doc.RelPath] = struct{}{}
	}

	for relPath, entry := range previous {
		if _, exists := current[relPath]; !exists {
			bs.Plan.Prune = append(bs.Plan.Prune, entry)
		}
	}
	sort.Slice(bs.Plan.Prune, func(i, j int) bool {
		return bs.Plan.Prune[i].RelPath < bs.Plan.Prune[j].RelPath
	})
}
