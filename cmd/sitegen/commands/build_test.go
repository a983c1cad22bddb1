package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/config"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

func writeFixtureFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// buildFixture creates a minimal buildable site and returns its source and
// output directories.
func buildFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "site")
	out := filepath.Join(dir, "public")

	writeFixtureFile(t, src, "_layouts/base.html", "---\n---\n<html><body>{{content}}</body></html>\n")
	writeFixtureFile(t, src, "posts/hello.md", "---\ntitle: Hello\ndate: 2024-03-10\nlayout: base\n---\n# Hi\n")
	return src, out
}

func loadFixtureConfig(t *testing.T, src string) *config.Config {
	t.Helper()
	cfg, err := config.LoadOrDefault(src)
	require.NoError(t, err)
	return cfg
}

func TestRunBuild_SuccessWritesOutput(t *testing.T) {
	src, out := buildFixture(t)

	err := RunBuild(t.Context(), loadFixtureConfig(t, src), src, out, false, false)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "2024", "03", "hello", "index.html"))
}

func TestRunBuild_PartialFailureMapsToPartialExit(t *testing.T) {
	src, out := buildFixture(t)
	writeFixtureFile(t, src, "posts/bad.md", "---\ntitle: [unclosed\n---\nbody\n")

	err := RunBuild(t.Context(), loadFixtureConfig(t, src), src, out, false, false)
	require.Error(t, err)

	adapter := ferrors.NewCLIErrorAdapter(false, slog.Default())
	require.Equal(t, ferrors.ExitPartial, adapter.ExitCodeFor(err))

	// The healthy document still made it to the output tree.
	require.FileExists(t, filepath.Join(out, "2024", "03", "hello", "index.html"))
}

func TestRunBuild_LayoutCycleMapsToFatalExit(t *testing.T) {
	src, out := buildFixture(t)
	writeFixtureFile(t, src, "_layouts/a.html", "---\nlayout: b\n---\n{{content}}\n")
	writeFixtureFile(t, src, "_layouts/b.html", "---\nlayout: a\n---\n{{content}}\n")

	err := RunBuild(t.Context(), loadFixtureConfig(t, src), src, out, false, false)
	require.Error(t, err)

	adapter := ferrors.NewCLIErrorAdapter(false, slog.Default())
	require.Equal(t, ferrors.ExitFatal, adapter.ExitCodeFor(err))
}

func TestBuildCmd_ResolveSource_LocalDirectory(t *testing.T) {
	src, out := buildFixture(t)

	b := &BuildCmd{Source: src, Output: out}
	dir, cfg, err := b.resolveSource(t.Context(), &CLI{})
	require.NoError(t, err)
	require.Equal(t, src, dir)
	require.NotNil(t, cfg)
}

func TestBuildCmd_ResolveSource_UnknownSourceFails(t *testing.T) {
	b := &BuildCmd{Source: filepath.Join(t.TempDir(), "nope"), Output: "out"}
	_, _, err := b.resolveSource(t.Context(), &CLI{})
	require.Error(t, err)

	adapter := ferrors.NewCLIErrorAdapter(false, slog.Default())
	require.Equal(t, ferrors.ExitFatal, adapter.ExitCodeFor(err))
}

func TestRepoSubdir_NormalizesArgument(t *testing.T) {
	cases := map[string]string{
		".":      "",
		"":       "",
		"docs":   "docs",
		"./docs": "docs",
	}
	for arg, want := range cases {
		require.Equal(t, want, repoSubdir(arg), "arg %q", arg)
	}
}
