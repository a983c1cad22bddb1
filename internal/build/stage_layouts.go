package build

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/layout"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// layoutsDir resolves the layouts directory under the source root.
func layoutsDir(bs *BuildState) string {
	return filepath.Join(bs.SourceDir, bs.Config.Site.LayoutsDir)
}

// stageResolveLayouts loads the layout registry and resolves each document's
// layout chain. A cycle anywhere in the registry is fatal. A document naming
// an unknown layout is dropped from the run; the rest continue.
func stageResolveLayouts(_ context.Context, bs *BuildState) error {
	registry, err := layout.LoadDir(layoutsDir(bs))
	if err != nil {
		return NewFatalStageError(StageResolveLayouts,
			ferrors.WrapError(err, ferrors.CategoryLayout, "loading layouts").
				WithSeverity(ferrors.SeverityFatal).
				WithContext("path", layoutsDir(bs)).
				Build())
	}

	if err := registry.Validate(); err != nil {
		return NewFatalStageError(StageResolveLayouts,
			ferrors.WrapError(err, ferrors.CategoryLayout, "validating layouts").
				WithSeverity(ferrors.SeverityFatal).
				Build())
	}

	bs.Layouts = LayoutState{
		Registry:     registry,
		Chains:       make(map[string][]*layout.Layout),
		Fingerprints: make(map[string]string),
	}

	kept := bs.Content.Plans[:0]
	for _, plan := range bs.Content.Plans {
		name := plan.Page.Layout
		if name == "" {
			kept = append(kept, plan)
			continue
		}

		chain, chainHash, err := bs.resolveChain(name)
		if err != nil {
			if errors.Is(err, layout.ErrCycle) {
				return NewFatalStageError(StageResolveLayouts,
					ferrors.WrapError(err, ferrors.CategoryLayout, "resolving layout chain").
						WithSeverity(ferrors.SeverityFatal).
						WithContext("layout", name).
						Build())
			}
			bs.failDocument(StageResolveLayouts, IssueLayoutMissing, plan.Doc.RelPath,
				ferrors.WrapError(err, ferrors.CategoryLayout, "resolving layout chain").
					WithContext("layout", name).
					WithContext("file", plan.Doc.RelPath).
					Build())
			continue
		}

		plan.Chain = chain
		plan.ChainHash = chainHash
		kept = append(kept, plan)
	}
	bs.Content.Plans = kept

	slog.Debug("Layouts resolved",
		logfields.Count(bs.Layouts.Registry.Len()),
		logfields.Path(layoutsDir(bs)))
	return nil
}

// resolveChain resolves and caches the chain and fingerprint for one layout.
func (bs *BuildState) resolveChain(name string) ([]*layout.Layout, string, error) {
	if chain, ok := bs.Layouts.Chains[name]; ok {
		return chain, bs.Layouts.Fingerprints[name], nil
	}

	chain, err := bs.Layouts.Registry.Chain(name)
	if err != nil {
		return nil, "", err
	}
	chainHash, err := bs.Layouts.Registry.ChainFingerprint(name)
	if err != nil {
		return nil, "", err
	}

	bs.Layouts.Chains[name] = chain
	bs.Layouts.Fingerprints[name] = chainHash
	return chain, chainHash, nil
}
