package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/build"
)

// TestIncremental_SecondRunRendersNothing tests rebuilding an unchanged
// source into the same output directory.
// This test verifies:
// - Every document renders on the first run
// - The second run reuses every output recorded in the manifest
// - Unchanged assets are not copied again
// - The output tree still matches the golden tree after the no-op run.
func TestIncremental_SecondRunRendersNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	first := buildSite(t, siteDir, outputDir)
	require.Equal(t, 2, first.Report.Rendered, "first run should render every document")
	require.Zero(t, first.Report.Skipped)
	require.Equal(t, 1, first.Report.AssetsCopied)

	second := buildSite(t, siteDir, outputDir)
	require.Zero(t, second.Report.Rendered, "unchanged source should render nothing")
	require.Equal(t, 2, second.Report.Skipped, "every document should be reused")
	require.Zero(t, second.Report.AssetsCopied, "unchanged assets should not be copied")

	verifyOutputTree(t, outputDir, "../../test/testdata/golden/basic", false)
}

// TestIncremental_EditedDocumentRerenders tests editing one document between
// two runs.
// This test verifies:
// - Only the changed document is re-rendered
// - Untouched documents are reused from the manifest
// - The rebuilt output carries the new content.
func TestIncremental_EditedDocumentRerenders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	buildSite(t, siteDir, outputDir)

	rewriteFile(t, filepath.Join(siteDir, "about.html"),
		"---\ntitle: About\nlayout: base\n---\n<p>About this site, revised.</p>\n")

	second := buildSite(t, siteDir, outputDir)
	require.Equal(t, 1, second.Report.Rendered, "only the edited document should re-render")
	require.Equal(t, 1, second.Report.Skipped)

	// #nosec G304 -- test utility reading from test output directory
	got, err := os.ReadFile(filepath.Join(outputDir, "about.html"))
	require.NoError(t, err, "failed to read rebuilt page")
	require.Contains(t, string(got), "About this site, revised.")
}

// TestIncremental_LayoutEditRerendersDependents tests editing a layout
// between two runs.
// This test verifies:
// - A layout change invalidates every document rendered through its chain
// - The rebuilt pages carry the new layout markup.
func TestIncremental_LayoutEditRerendersDependents(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	buildSite(t, siteDir, outputDir)

	// Both fixture documents render through base: one directly, one via the
	// post layout's parent.
	rewriteFile(t, filepath.Join(siteDir, "_layouts", "base.html"),
		"<!doctype html>\n<html>\n<head><meta charset=\"utf-8\"><title>{{title}} - {{site.title}}</title></head>\n<body>\n{{content}}\n</body>\n</html>\n")

	second := buildSite(t, siteDir, outputDir)
	require.Equal(t, 2, second.Report.Rendered, "layout change should invalidate both documents")
	require.Zero(t, second.Report.Skipped)

	// #nosec G304 -- test utility reading from test output directory
	got, err := os.ReadFile(filepath.Join(outputDir, "2024", "01", "first-post", "index.html"))
	require.NoError(t, err, "failed to read rebuilt page")
	require.Contains(t, string(got), `<meta charset="utf-8">`)
}

// TestIncremental_ForceRendersEverything tests the force option on an
// unchanged source.
// This test verifies:
// - Force bypasses manifest reuse entirely.
func TestIncremental_ForceRendersEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	buildSite(t, siteDir, outputDir)

	res := runBuild(t, siteDir, outputDir, build.Options{Force: true})
	require.Equal(t, build.OutcomeSuccess, res.Outcome)
	require.Equal(t, 2, res.Report.Rendered, "force should render unchanged documents")
	require.Zero(t, res.Report.Skipped)
}

// TestIncremental_DeletedSourcePrunes tests removing a source document
// between two runs.
// This test verifies:
// - The deleted document's manifest entry is pruned
// - Its stale output is removed from the output tree
// - The site index no longer lists the deleted page.
func TestIncremental_DeletedSourcePrunes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	buildSite(t, siteDir, outputDir)

	err := os.Remove(filepath.Join(siteDir, "about.html"))
	require.NoError(t, err, "failed to remove source document")

	second := buildSite(t, siteDir, outputDir)
	require.Equal(t, 1, second.Report.Pruned, "deleted source should prune its manifest entry")

	_, err = os.Stat(filepath.Join(outputDir, "about.html"))
	require.True(t, os.IsNotExist(err), "pruned output should be removed")

	// #nosec G304 -- test utility reading from test output directory
	index, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	require.NoError(t, err, "failed to read site index")
	require.NotContains(t, string(index), "/about.html", "index should drop the deleted page")
}

// TestBuild_DryRunWritesNothing tests planning a build without executing it.
// This test verifies:
// - A dry run plans every document
// - No output directory is created.
func TestBuild_DryRunWritesNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	siteDir := setupSiteFixture(t, "../../test/testdata/sites/basic")
	outputDir := filepath.Join(t.TempDir(), "public")

	res := runBuild(t, siteDir, outputDir, build.Options{DryRun: true})
	require.Equal(t, build.OutcomeSuccess, res.Outcome)
	require.Equal(t, 2, res.Report.Planned, "dry run should plan every document")
	require.Zero(t, res.Report.Rendered)

	_, err := os.Stat(outputDir)
	require.True(t, os.IsNotExist(err), "dry run should not create the output directory")
}
