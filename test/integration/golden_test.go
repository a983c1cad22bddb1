// Package integration contains end-to-end tests for the build pipeline.
// Fixture sites under test/testdata/sites are built into temporary
// directories and the generated trees are compared byte for byte against
// test/testdata/golden.
//
// Golden trees are regenerated with:
//
//	go test ./test/integration/ -update-golden
package integration

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/gitsource"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

// TestGolden_BasicSite tests a small mixed site end to end.
// This test verifies:
// - Markdown and HTML documents render through their layout chains
// - Dated documents land under date permalinks, undated ones mirror their source path
// - The site index, tag listing and tag directory pages are generated
// - Static assets are copied through unchanged
// - The configuration file is not published.
func TestGolden_BasicSite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	runGoldenTest(t,
		"../../test/testdata/sites/basic",
		"../../test/testdata/golden/basic",
		*updateGolden,
	)
}

// TestGolden_UserProvidedIndex tests a site whose source claims the root
// index page.
// This test verifies:
// - A source document rendering to index.html suppresses the generated site index
// - Tag pages are still generated alongside a user index
// - Markdown headings carry stable anchor ids.
func TestGolden_UserProvidedIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	runGoldenTest(t,
		"../../test/testdata/sites/user-index",
		"../../test/testdata/golden/user-index",
		*updateGolden,
	)
}

// TestGolden_PartialBuild tests a site where one document has a malformed
// metadata header.
// This test verifies:
// - A per-document failure never aborts the run
// - Healthy documents and index pages are still written
// - The failed document produces no output
// - The run reports a partial outcome with the partial exit code.
func TestGolden_PartialBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/partial")
	outputDir := filepath.Join(t.TempDir(), "public")

	res := runBuild(t, siteDir, outputDir, build.Options{})
	require.Equal(t, build.OutcomePartial, res.Outcome, "run should be partial")
	require.Equal(t, ferrors.ExitPartial, res.ExitCode, "partial runs map to the partial exit code")
	require.Equal(t, 1, res.Report.Failed, "exactly one document should fail")
	require.Equal(t, 1, res.Report.Rendered, "the healthy document should still render")

	verifyOutputTree(t, outputDir, "../../test/testdata/golden/partial", *updateGolden)
}

// TestGolden_GitSourceCheckout tests building from a synced git checkout.
// This test verifies:
// - The source syncer clones a repository and returns its content directory
// - A synced checkout builds to the same tree as a local source directory
// - Repository internals are not published.
func TestGolden_GitSourceCheckout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping golden test in short mode")
	}

	repoDir := setupTestRepo(t, "../../test/testdata/sites/basic")

	checkout, err := gitsource.NewSyncer(t.TempDir()).Sync(t.Context(), config.GitSource{
		URL:    repoDir,
		Name:   "basic",
		Branch: "main",
	})
	require.NoError(t, err, "failed to sync content source")

	outputDir := filepath.Join(t.TempDir(), "public")
	buildSite(t, checkout, outputDir)

	verifyOutputTree(t, outputDir, "../../test/testdata/golden/basic", *updateGolden)
}
