package integration

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/build"
	"github.com/mkrogh/sitegen/internal/config"
)

// setupSiteFixture copies a fixture site into a temporary directory so tests
// can edit sources between runs without touching testdata.
func setupSiteFixture(t *testing.T, fixturePath string) string {
	t.Helper()

	tmpDir := t.TempDir()

	err := copyDir(fixturePath, tmpDir)
	require.NoError(t, err, "failed to copy fixture site")

	return tmpDir
}

// setupTestRepo turns a fixture site into a local git repository with an
// initial commit on main, usable as a clone URL for the source syncer.
func setupTestRepo(t *testing.T, fixturePath string) string {
	t.Helper()

	tmpDir := t.TempDir()

	err := copyDir(fixturePath, tmpDir)
	require.NoError(t, err, "failed to copy fixture site")

	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to add files to git")

	_, err = w.Commit("Initial test commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	// The syncer checks out 'main'; go-git initializes whatever Git's default
	// branch name is, so rename when they differ.
	headRef, err := repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	if headRef.Name().Short() != "main" {
		err = w.Checkout(&git.CheckoutOptions{
			Branch: "refs/heads/main",
			Create: true,
		})
		require.NoError(t, err, "failed to create main branch")

		_ = repo.Storer.RemoveReference(headRef.Name())
	}

	return tmpDir
}

// copyDir recursively copies a directory tree, skipping git internals.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if strings.Contains(relPath, ".git") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// loadSiteConfig loads a fixture's configuration the same way the CLI does.
func loadSiteConfig(t *testing.T, siteDir string) *config.Config {
	t.Helper()

	cfg, err := config.LoadOrDefault(siteDir)
	require.NoError(t, err, "failed to load site config")

	return cfg
}

// runBuild executes one build through the service without asserting on the
// outcome, so tests can inspect partial runs.
func runBuild(t *testing.T, siteDir, outputDir string, opts build.Options) *build.Result {
	t.Helper()

	cfg := loadSiteConfig(t, siteDir)

	res, err := build.NewService().Run(t.Context(), build.Request{
		Config:    cfg,
		SourceDir: siteDir,
		OutputDir: outputDir,
		Options:   opts,
	})
	require.NoError(t, err, "build run failed")

	return res
}

// buildSite runs one build and requires a fully clean run.
func buildSite(t *testing.T, siteDir, outputDir string) *build.Result {
	t.Helper()

	res := runBuild(t, siteDir, outputDir, build.Options{})
	require.Equal(t, build.OutcomeSuccess, res.Outcome, "build should succeed")

	return res
}

// rewriteFile replaces one file in an editable fixture copy.
func rewriteFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to rewrite %s", path)
}

// verifyOutputTree compares a generated output tree against a golden
// directory byte for byte, in both directions: every golden file must be
// reproduced exactly and no extra files may appear. With updateGolden set the
// golden tree is replaced by the actual output instead.
func verifyOutputTree(t *testing.T, outputDir, goldenDir string, updateGolden bool) {
	t.Helper()

	if updateGolden {
		err := os.RemoveAll(goldenDir)
		require.NoError(t, err, "failed to clear golden directory")

		err = os.MkdirAll(goldenDir, 0o750)
		require.NoError(t, err, "failed to create golden directory")

		err = copyDir(outputDir, goldenDir)
		require.NoError(t, err, "failed to write golden tree")

		t.Logf("Updated golden tree: %s", goldenDir)
		return
	}

	expected := listTree(t, goldenDir)
	actual := listTree(t, outputDir)
	require.Equal(t, expected, actual, "output tree layout mismatch")

	for _, rel := range expected {
		// #nosec G304 -- test utility reading golden files from testdata
		want, err := os.ReadFile(filepath.Join(goldenDir, filepath.FromSlash(rel)))
		require.NoError(t, err, "failed to read golden file: %s", rel)

		// #nosec G304 -- test utility reading from test output directory
		got, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(rel)))
		require.NoError(t, err, "failed to read output file: %s", rel)

		require.Equal(t, string(want), string(got), "content mismatch: %s", rel)
	}
}

// listTree returns the sorted slash-separated relative paths of every file
// under root.
func listTree(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(relPath))
		return nil
	})
	require.NoError(t, err, "failed to walk %s", root)

	sort.Strings(files)
	return files
}

// runGoldenTest executes a golden test with standard setup: fixture copy,
// one build through the service, and output tree verification.
func runGoldenTest(t *testing.T, fixturePath, goldenDirPath string, updateGolden bool) {
	t.Helper()

	siteDir := setupSiteFixture(t, fixturePath)
	outputDir := filepath.Join(t.TempDir(), "public")

	buildSite(t, siteDir, outputDir)

	verifyOutputTree(t, outputDir, goldenDirPath, updateGolden)
}
