package linkcheck

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

const (
	defaultConcurrency = 8
	defaultTimeout     = 10 * time.Second
	maxRedirects       = 10
	userAgent          = "sitegen-linkcheck/1.0"
)

// Options configures a Checker.
type Options struct {
	BaseURL     string        // site base URL; absolute links on its host count as internal
	External    bool          // verify external links over HTTP
	Concurrency int           // bounded workers for external checks
	Timeout     time.Duration // per-request timeout
}

// BrokenLink is one link that failed verification.
type BrokenLink struct {
	Page     string // output-relative page the link appeared on
	URL      string
	Internal bool
	Status   int    // HTTP status for external links, 0 otherwise
	Reason   string
}

// Result aggregates one check run.
type Result struct {
	Pages   int // HTML pages examined
	Links   int // links extracted
	Checked int // links actually verified
	Broken  []*BrokenLink
}

// OK reports whether every verified link resolved.
func (r *Result) OK() bool { return len(r.Broken) == 0 }

// Summary returns a one-line human summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d pages, %d links, %d checked, %d broken",
		r.Pages, r.Links, r.Checked, len(r.Broken))
}

// Checker verifies links in a rendered output tree.
type Checker struct {
	opts   Options
	client *http.Client
}

// New creates a checker. Zero option fields get bounded defaults.
func New(opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	// The default transport honors HTTP_PROXY / HTTPS_PROXY / NO_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Checker{opts: opts, client: client}
}

// Run walks outputDir, extracts links from every HTML page, and verifies
// them. Internal links are resolved against the output tree; external links
// are verified over HTTP when Options.External is set. Per-link failures
// land in the result; the returned error covers run-level problems only.
func (c *Checker) Run(ctx context.Context, outputDir string) (*Result, error) {
	pages, err := htmlPages(outputDir)
	if err != nil {
		return nil, err
	}

	res := &Result{Pages: len(pages)}
	ext := newExternalChecker(c.client, c.opts.Concurrency)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		links, err := ExtractFile(filepath.Join(outputDir, filepath.FromSlash(page)), c.opts.BaseURL)
		if err != nil {
			slog.Warn("Skipping unparseable page", logfields.Path(page), logfields.Error(err))
			continue
		}
		res.Links += len(links)

		for _, l := range links {
			if Skippable(l) {
				continue
			}
			switch {
			case l.Internal:
				res.Checked++
				if reason, ok := c.checkInternal(outputDir, page, l.URL); !ok {
					res.Broken = append(res.Broken, &BrokenLink{
						Page:     page,
						URL:      l.URL,
						Internal: true,
						Reason:   reason,
					})
				}
			case c.opts.External:
				res.Checked++
				ext.enqueue(ctx, page, l.URL)
			}
		}
	}

	res.Broken = append(res.Broken, ext.wait()...)

	sort.Slice(res.Broken, func(i, j int) bool {
		a, b := res.Broken[i], res.Broken[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.URL < b.URL
	})

	slog.Info("Link check finished",
		logfields.Output(outputDir),
		logfields.Count(res.Checked),
		slog.Int("broken", len(res.Broken)))
	return res, ctx.Err()
}

// htmlPages returns the slash-separated relative paths of every HTML file
// under root, sorted.
func htmlPages(root string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".html") {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			pages = append(pages, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walking output tree").
			WithContext("output", root).
			Build()
	}
	sort.Strings(pages)
	return pages, nil
}

// checkInternal resolves an internal link against the output tree. Links
// ending in "/" and extension-less links accept a directory index file.
func (c *Checker) checkInternal(outputDir, page, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "unparseable URL", false
	}
	target := u.Path
	if target == "" {
		// Pure fragment or query; nothing to resolve on disk.
		return "", true
	}

	var rel string
	if strings.HasPrefix(target, "/") {
		rel = strings.TrimPrefix(target, "/")
	} else {
		rel = path.Join(path.Dir(page), target)
	}
	rel = path.Clean(rel)
	if rel == "." {
		rel = ""
	}
	if strings.HasPrefix(rel, "..") {
		return "escapes the output tree", false
	}

	full := filepath.Join(outputDir, filepath.FromSlash(rel))
	st, err := os.Stat(full)
	if err == nil {
		if !st.IsDir() {
			return "", true
		}
		if _, err := os.Stat(filepath.Join(full, "index.html")); err == nil {
			return "", true
		}
		return "directory without index.html", false
	}

	// Extension-less targets may point at a mirrored .html page.
	if path.Ext(rel) == "" {
		if _, err := os.Stat(full + ".html"); err == nil {
			return "", true
		}
	}
	return "target not found", false
}

// externalChecker verifies external URLs with bounded concurrency, checking
// each distinct URL once per run.
type externalChecker struct {
	client *http.Client
	sem    chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	seen    map[string][]string // URL -> pages referencing it
	resolve map[string]*BrokenLink
}

func newExternalChecker(client *http.Client, concurrency int) *externalChecker {
	return &externalChecker{
		client:  client,
		sem:     make(chan struct{}, concurrency),
		seen:    make(map[string][]string),
		resolve: make(map[string]*BrokenLink),
	}
}

// enqueue records the reference and starts a check for first-seen URLs.
func (e *externalChecker) enqueue(ctx context.Context, page, rawURL string) {
	e.mu.Lock()
	_, started := e.seen[rawURL]
	e.seen[rawURL] = append(e.seen[rawURL], page)
	e.mu.Unlock()
	if started {
		return
	}

	select {
	case <-ctx.Done():
		return
	case e.sem <- struct{}{}:
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() { <-e.sem }()

		status, err := head(ctx, e.client, rawURL)
		if err == nil {
			return
		}
		e.mu.Lock()
		e.resolve[rawURL] = &BrokenLink{URL: rawURL, Status: status, Reason: err.Error()}
		e.mu.Unlock()
	}()
}

// wait blocks until every in-flight check finishes and expands failures to
// one broken-link record per referencing page.
func (e *externalChecker) wait() []*BrokenLink {
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	var broken []*BrokenLink
	for rawURL, failure := range e.resolve {
		for _, page := range e.seen[rawURL] {
			broken = append(broken, &BrokenLink{
				Page:   page,
				URL:    rawURL,
				Status: failure.Status,
				Reason: failure.Reason,
			})
		}
	}
	return broken
}

// head issues a HEAD request and reports the status. Auth-guarded responses
// count as reachable: the target exists, it just wants credentials.
func head(ctx context.Context, client *http.Client, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if authGuarded(resp.StatusCode) {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

func authGuarded(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return true
	}
	return false
}
