// Package render turns a document body and its layout chain into final HTML.
//
// Rendering is pure: a Renderer holds only immutable configuration, inputs are
// never mutated, and the same inputs always produce the same bytes.
package render

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/mkrogh/sitegen/internal/layout"
)

// Options configures a Renderer.
type Options struct {
	// Strict turns unresolved placeholders into render errors instead of
	// visible markers with warnings.
	Strict bool
}

// Renderer renders document bodies through layout chains.
type Renderer struct {
	md     goldmark.Markdown
	strict bool
}

// Result is the outcome of rendering one document.
type Result struct {
	HTML       []byte
	Unresolved []Unresolved
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	return &Renderer{
		md:     newMarkdown(),
		strict: opts.Strict,
	}
}

// Render renders a document body through its layout chain, innermost first.
//
// Markdown bodies (.md, .markdown) are converted to HTML; .html bodies pass
// through. Placeholders in the body and each layout are substituted from
// fields. The rendered output of each step becomes the content placeholder of
// the next layout outward; the reserved content key is never read from fields.
//
// An empty chain yields the processed body alone.
func (r *Renderer) Render(body []byte, ext string, chain []*layout.Layout, fields map[string]any) (*Result, error) {
	scoped := scopeFields(fields)

	current, err := r.renderBody(body, ext)
	if err != nil {
		return nil, err
	}

	var unresolved []Unresolved

	current, bodyMissing := substitute(current, scoped, "body")
	unresolved = append(unresolved, bodyMissing...)

	for _, l := range chain {
		scoped[ContentKey] = string(current)
		wrapped, missing := substitute(l.Content, scoped, l.Name)
		delete(scoped, ContentKey)

		unresolved = append(unresolved, missing...)
		current = wrapped
	}

	if r.strict && len(unresolved) > 0 {
		return nil, fmt.Errorf("unresolved placeholders: %s", joinUnresolved(unresolved))
	}

	return &Result{HTML: current, Unresolved: unresolved}, nil
}

// renderBody processes the raw body according to its source extension.
func (r *Renderer) renderBody(body []byte, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return r.convertMarkdown(body)
	default:
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}
}

// scopeFields copies fields and strips the reserved content key so a metadata
// field can never masquerade as the rendered document.
func scopeFields(fields map[string]any) map[string]any {
	scoped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == ContentKey {
			continue
		}
		scoped[k] = v
	}
	return scoped
}

func joinUnresolved(unresolved []Unresolved) string {
	parts := make([]string, 0, len(unresolved))
	for _, u := range unresolved {
		parts = append(parts, u.String())
	}
	return strings.Join(parts, ", ")
}
