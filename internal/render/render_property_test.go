//go:build property
// +build property

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mkrogh/sitegen/internal/layout"
)

// TestRenderDeterminismProperties checks that rendering is a pure function of
// its inputs: repeat calls agree byte for byte and nothing is mutated.
func TestRenderDeterminismProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: rendering the same document through the same chain twice
	// yields identical bytes, on the same renderer and on a fresh one.
	properties.Property("rendering the same inputs twice is byte-identical", prop.ForAll(
		func(paragraphs []string, title string, pre string, post string, ext string) bool {
			body := []byte(strings.Join(paragraphs, "\n\n"))
			chain := []*layout.Layout{
				{Name: "inner", Content: []byte(pre + "{{content}}" + post)},
				{Name: "outer", Content: []byte("<title>{{title}}</title>\n{{content}}\n")},
			}
			fields := map[string]any{"title": title}

			r := New(Options{})
			first, err := r.Render(body, ext, chain, fields)
			if err != nil {
				return false
			}
			second, err := r.Render(body, ext, chain, fields)
			if err != nil {
				return false
			}
			if !bytes.Equal(first.HTML, second.HTML) {
				return false
			}
			if len(first.Unresolved) != len(second.Unresolved) {
				return false
			}

			// A fresh renderer must agree: no hidden state accumulates.
			third, err := New(Options{}).Render(body, ext, chain, fields)
			if err != nil {
				return false
			}
			return bytes.Equal(first.HTML, third.HTML)
		},
		gen.SliceOf(gen.RegexMatch(`[A-Za-z0-9 .,*_-]{0,30}`)),
		gen.RegexMatch(`[A-Za-z0-9 ]{0,16}`),
		gen.RegexMatch(`[A-Za-z0-9 <>/]{0,16}`),
		gen.RegexMatch(`[A-Za-z0-9 <>/]{0,16}`),
		gen.OneConstOf(".md", ".markdown", ".html", ".txt"),
	))

	// Property 2: Render never writes through to the caller's body, layout or
	// field map, and the reserved content binding never leaks out.
	properties.Property("render leaves its inputs untouched", prop.ForAll(
		func(paragraphs []string, title string) bool {
			body := []byte(strings.Join(paragraphs, "\n\n"))
			bodyBefore := append([]byte(nil), body...)

			chain := []*layout.Layout{{Name: "wrap", Content: []byte("<main>{{content}}</main>")}}
			layoutBefore := append([]byte(nil), chain[0].Content...)

			fields := map[string]any{"title": title}

			if _, err := New(Options{}).Render(body, ".md", chain, fields); err != nil {
				return false
			}

			if !bytes.Equal(body, bodyBefore) || !bytes.Equal(chain[0].Content, layoutBefore) {
				return false
			}
			if len(fields) != 1 {
				return false
			}
			got, ok := fields["title"].(string)
			return ok && got == title
		},
		gen.SliceOf(gen.RegexMatch(`[A-Za-z0-9 .,-]{0,30}`)),
		gen.RegexMatch(`[A-Za-z0-9 ]{0,16}`),
	))

	// Property 3: .html bodies with no placeholder tokens and no chain pass
	// through byte for byte.
	properties.Property("html bodies without placeholders pass through unchanged", prop.ForAll(
		func(lines []string) bool {
			body := []byte(strings.Join(lines, "\n"))

			res, err := New(Options{}).Render(body, ".html", nil, map[string]any{})
			if err != nil {
				return false
			}
			return bytes.Equal(res.HTML, body)
		},
		gen.SliceOf(gen.RegexMatch(`[A-Za-z0-9 <>/="'.-]{0,40}`)),
	))

	properties.TestingRun(t)
}
