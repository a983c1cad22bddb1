package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoad_IndexesLayoutsByName(t *testing.T) {
	fsys := fstest.MapFS{
		"base.html":      {Data: []byte("<html>{{content}}</html>")},
		"post.html":      {Data: []byte("---\nlayout: base\n---\n<article>{{content}}</article>")},
		"blog/list.html": {Data: []byte("<ul>{{content}}</ul>")},
	}

	reg, err := Load(fsys)
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())
	require.Equal(t, []string{"base", "blog/list", "post"}, reg.Names())
}

func TestLoad_ParsesParentFromHeader(t *testing.T) {
	fsys := fstest.MapFS{
		"base.html": {Data: []byte("<html>{{content}}</html>")},
		"post.html": {Data: []byte("---\nlayout: base\n---\n<article>{{content}}</article>")},
	}

	reg, err := Load(fsys)
	require.NoError(t, err)

	post, err := reg.Get("post")
	require.NoError(t, err)
	require.Equal(t, "base", post.Parent)
	require.Equal(t, "<article>{{content}}</article>", string(post.Content))

	base, err := reg.Get("base")
	require.NoError(t, err)
	require.Empty(t, base.Parent)
}

func TestLoad_SkipsHiddenAndNonTemplateFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"base.html":    {Data: []byte("x")},
		".hidden.html": {Data: []byte("x")},
		"notes.txt":    {Data: []byte("x")},
	}

	reg, err := Load(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"base"}, reg.Names())
}

func TestLoadDir_MissingDir_YieldsEmptyRegistry(t *testing.T) {
	reg, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Equal(t, 0, reg.Len())
}

func TestLoadDir_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.html"), []byte("<b>{{content}}</b>"), 0o644))

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	require.True(t, reg.Has("base"))
}

func TestGet_UnknownLayout_ReturnsNotFound(t *testing.T) {
	reg, err := Load(fstest.MapFS{})
	require.NoError(t, err)

	_, err = reg.Get("missing")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Contains(t, err.Error(), "missing")
}

func TestLoad_UnclosedLayoutHeader_ReturnsError(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.html": {Data: []byte("---\nlayout: base\n<html>")},
	}

	_, err := Load(fsys)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.html")
}

func TestLayout_FingerprintCoversHeader(t *testing.T) {
	a := fstest.MapFS{"x.html": {Data: []byte("---\nlayout: base\n---\nbody")}}
	b := fstest.MapFS{"x.html": {Data: []byte("---\nlayout: other\n---\nbody")}}

	regA, err := Load(a)
	require.NoError(t, err)
	regB, err := Load(b)
	require.NoError(t, err)

	la, _ := regA.Get("x")
	lb, _ := regB.Get("x")
	require.NotEqual(t, la.Fingerprint, lb.Fingerprint, "reparenting must change the fingerprint")
}
