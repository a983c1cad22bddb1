package build

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mkrogh/sitegen/internal/config"
	"github.com/mkrogh/sitegen/internal/content"
	cerrors "github.com/mkrogh/sitegen/internal/content/errors"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// stageScanSource walks the source tree and splits the result into
// renderable documents and static assets. A missing source directory is
// fatal; an empty one is a valid build that produces an empty site.
func stageScanSource(_ context.Context, bs *BuildState) error {
	store := content.NewStore(bs.SourceDir, content.Options{
		Extensions:   bs.Config.Build.Extensions,
		ExcludeDirs:  scanExcludes(bs),
		ExcludeFiles: []string{config.DefaultConfigFile},
	})

	docs, err := store.Scan()
	if err != nil {
		category := ferrors.CategoryContent
		if errors.Is(err, cerrors.ErrSourceNotFound) {
			category = ferrors.CategoryConfig
		}
		return NewFatalStageError(StageScanSource,
			ferrors.WrapError(err, category, "scanning source directory").
				WithSeverity(ferrors.SeverityFatal).
				WithContext("source", bs.SourceDir).
				Build())
	}

	bs.Content.Docs = docs
	bs.Content.Assets = content.Assets(docs)
	bs.Report.SourceDocs = len(content.Renderable(docs))
	bs.Report.AssetsFound = len(bs.Content.Assets)

	if bs.Report.SourceDocs == 0 {
		slog.Info("No renderable documents found", logfields.Source(bs.SourceDir))
	}
	return nil
}

// scanExcludes lists directories the scan must not descend into: the layouts
// tree, the manifest directory, and the output tree (plus its staging
// siblings) when it nests inside the source.
func scanExcludes(bs *BuildState) []string {
	excludes := []string{bs.Config.Site.LayoutsDir, config.DefaultManifestDir}

	if rel, err := filepath.Rel(bs.SourceDir, bs.OutputDir); err == nil {
		rel = filepath.ToSlash(rel)
		if rel != "." && rel != ".." && !strings.HasPrefix(rel, "../") {
			excludes = append(excludes, rel, rel+"_stage", rel+"_prev")
		}
	}
	return excludes
}
