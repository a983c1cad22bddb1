package linkcheck

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func writePage(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestChecker_Run_InternalLinksResolve(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html",
		`<a href="/about.html">About</a>
		 <a href="/2024/03/hello/">Hello</a>
		 <a href="/about">Mirrored</a>
		 <a href="#top">Top</a>
		 <img src="css/style.css">`)
	writePage(t, out, "about.html", `<a href="/">Home</a>`)
	writePage(t, out, "2024/03/hello/index.html", `<a href="../../../about.html">Back</a>`)
	writePage(t, out, "css/style.css", "body {}")

	res, err := New(Options{BaseURL: "https://example.com/"}).Run(t.Context(), out)
	require.NoError(t, err)

	require.True(t, res.OK(), "broken: %+v", res.Broken)
	require.Equal(t, 3, res.Pages, "style.css is not an HTML page")
	require.Positive(t, res.Checked)
}

func TestChecker_Run_MissingTargetsReported(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html",
		`<a href="/nope.html">Gone</a>
		 <a href="/docs/">Dir</a>
		 <a href="../escape.html">Escape</a>`)
	require.NoError(t, os.MkdirAll(filepath.Join(out, "docs"), 0o755))

	res, err := New(Options{BaseURL: "https://example.com/"}).Run(t.Context(), out)
	require.NoError(t, err)

	require.Len(t, res.Broken, 3)
	// Sorted by page then URL.
	require.Equal(t, "../escape.html", res.Broken[0].URL)
	require.Equal(t, "escapes the output tree", res.Broken[0].Reason)
	require.Equal(t, "/docs/", res.Broken[1].URL)
	require.Equal(t, "directory without index.html", res.Broken[1].Reason)
	require.Equal(t, "/nope.html", res.Broken[2].URL)
	require.Equal(t, "target not found", res.Broken[2].Reason)
	for _, b := range res.Broken {
		require.True(t, b.Internal)
		require.Equal(t, "index.html", b.Page)
	}
}

func TestChecker_Run_ExternalDisabledByDefault(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html", `<a href="https://other.net/away">Away</a>`)

	var hits atomic.Int32
	c := New(Options{BaseURL: "https://example.com/"})
	c.client = &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		hits.Add(1)
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})}

	res, err := c.Run(t.Context(), out)
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Zero(t, hits.Load(), "external checks must be opt-in")
}

func TestChecker_Run_ExternalBrokenReportedPerPage(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html", `<a href="https://other.net/dead">Dead</a>`)
	writePage(t, out, "about.html", `<a href="https://other.net/dead">Dead too</a>`)

	var hits atomic.Int32
	c := New(Options{BaseURL: "https://example.com/", External: true})
	c.client = &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		hits.Add(1)
		return &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found", Body: http.NoBody}, nil
	})}

	res, err := c.Run(t.Context(), out)
	require.NoError(t, err)

	require.Equal(t, int32(1), hits.Load(), "each distinct URL is checked once")
	require.Len(t, res.Broken, 2, "every referencing page gets a record")
	require.Equal(t, "about.html", res.Broken[0].Page)
	require.Equal(t, "index.html", res.Broken[1].Page)
	require.Equal(t, 404, res.Broken[0].Status)
}

func TestChecker_Run_AuthGuardedCountsAsReachable(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html", `<a href="https://other.net/private">Private</a>`)

	c := New(Options{BaseURL: "https://example.com/", External: true})
	c.client = &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden", Body: http.NoBody}, nil
	})}

	res, err := c.Run(t.Context(), out)
	require.NoError(t, err)
	require.True(t, res.OK(), "auth-guarded targets exist, they just want credentials")
}

func TestChecker_Run_HeadSetsUserAgent(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html", `<a href="https://other.net/x">X</a>`)

	var method, agent string
	c := New(Options{External: true})
	c.client = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		method = r.Method
		agent = r.Header.Get("User-Agent")
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Body: http.NoBody}, nil
	})}

	_, err := c.Run(t.Context(), out)
	require.NoError(t, err)
	require.Equal(t, http.MethodHead, method)
	require.Equal(t, userAgent, agent)
}

func TestChecker_Run_CanceledContext(t *testing.T) {
	out := t.TempDir()
	writePage(t, out, "index.html", `<a href="/about.html">About</a>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Run(ctx, out)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_AppliesDefaults(t *testing.T) {
	c := New(Options{})
	require.Equal(t, defaultTimeout, c.opts.Timeout)
	require.Equal(t, defaultConcurrency, c.opts.Concurrency)
	require.Equal(t, defaultTimeout, c.client.Timeout)
}

func TestChecker_Run_MissingOutputDir(t *testing.T) {
	_, err := New(Options{}).Run(t.Context(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestResult_Summary(t *testing.T) {
	res := &Result{Pages: 2, Links: 10, Checked: 8, Broken: []*BrokenLink{{}}}
	require.Equal(t, "2 pages, 10 links, 8 checked, 1 broken", res.Summary())
	require.False(t, res.OK())
}
