// Package linkcheck verifies links in rendered HTML output. Internal links
// are resolved against the output tree on disk; external links are verified
// over HTTP when enabled.
package linkcheck

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
)

// Link is one extracted link from a rendered page.
type Link struct {
	URL       string // raw attribute value
	Text      string // link text or alt text
	Tag       string // element name (a, img, script, link, ...)
	Attribute string // attribute carrying the link (href or src)
	Internal  bool   // resolves within the site
	Pos       int    // element ordinal in document order, a rough position hint
}

// ExtractFile extracts links from a rendered HTML file.
func ExtractFile(path, baseURL string) ([]*Link, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "opening rendered page").
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	return Extract(f, baseURL)
}

// Extract parses HTML from r and collects every linkable attribute.
func Extract(r io.Reader, baseURL string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryAssemble, "parsing rendered HTML").Build()
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, ferrors.ValidationError("invalid base URL").
			WithContext("base_url", baseURL).
			Build()
	}

	var links []*Link
	pos := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			pos++
			if l := elementLink(n, base, pos); l != nil {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// elementLink returns the link carried by n, or nil when the element has none.
func elementLink(n *html.Node, base *url.URL, pos int) *Link {
	var attr, text string
	switch n.Data {
	case "a":
		attr, text = "href", innerText(n)
	case "link":
		attr, text = "href", getAttr(n, "rel")
	case "img":
		attr, text = "src", getAttr(n, "alt")
	case "script", "source", "video", "audio":
		attr = "src"
	default:
		return nil
	}

	value := getAttr(n, attr)
	if value == "" {
		return nil
	}
	return &Link{
		URL:       value,
		Text:      text,
		Tag:       n.Data,
		Attribute: attr,
		Internal:  isInternal(value, base),
		Pos:       pos,
	}
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// innerText collects the trimmed text content of a node and its children.
func innerText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(innerText(c))
	}
	return strings.TrimSpace(b.String())
}

// isInternal reports whether a URL stays within the site. Scheme-less and
// relative URLs are internal; absolute URLs are internal when their host
// matches the site base URL.
func isInternal(raw string, base *url.URL) bool {
	if hasSpecialScheme(raw) || strings.HasPrefix(raw, "#") {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// Skippable reports whether a link is exempt from verification: fragments,
// non-HTTP schemes, and empty targets.
func Skippable(l *Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return true
	}
	return hasSpecialScheme(l.URL)
}

func hasSpecialScheme(raw string) bool {
	return strings.HasPrefix(raw, "mailto:") ||
		strings.HasPrefix(raw, "tel:") ||
		strings.HasPrefix(raw, "javascript:") ||
		strings.HasPrefix(raw, "data:")
}
