package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// newMarkdown builds the Markdown converter used for .md document bodies.
//
// Raw HTML passes through unescaped: document authors own their content, and
// layouts are stitched in as HTML anyway.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// convertMarkdown converts a Markdown body (metadata header already removed)
// to HTML.
func (r *Renderer) convertMarkdown(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown conversion failed: %w", err)
	}
	return buf.Bytes(), nil
}
