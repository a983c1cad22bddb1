package assemble

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	aerrors "github.com/mkrogh/sitegen/internal/assemble/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

//go:embed templates_defaults/index/*.tmpl
var embeddedIndexTemplates embed.FS

// IndexPage is a generated aggregate page. The orchestrator renders its body
// through the default layout chain like any source document.
type IndexPage struct {
	OutputPath string
	Title      string
	Body       []byte
	Fields     map[string]any
}

// TagSummary feeds the tag directory template.
type TagSummary struct {
	Name  string
	Slug  string
	URL   string
	Count int
}

// Indexes generates the aggregate pages: the site index (unless the source
// provides its own root index), one listing per tag, and the tag directory.
func (a *Assembler) Indexes(pages []*Page) ([]*IndexPage, error) {
	out := make([]*IndexPage, 0, 4)

	if hasUserIndex(pages) {
		slog.Debug("Using source-provided site index")
	} else {
		main, err := a.mainIndex(pages)
		if err != nil {
			return nil, err
		}
		out = append(out, main)
	}

	tagPages, err := a.tagIndexes(pages)
	if err != nil {
		return nil, err
	}
	out = append(out, tagPages...)

	slog.Debug("Generated aggregate pages", logfields.Count(len(out)))
	return out, nil
}

// hasUserIndex reports whether a source document already claims the site root.
func hasUserIndex(pages []*Page) bool {
	for _, p := range pages {
		if p.OutputPath == "index.html" {
			return true
		}
	}
	return false
}

func (a *Assembler) mainIndex(pages []*Page) (*IndexPage, error) {
	listed := Sorted(pages)
	body, err := a.executeIndexTemplate("main", a.templateContext(listed, map[string]any{}))
	if err != nil {
		return nil, err
	}

	title := a.site.Title
	if title == "" {
		title = "Index"
	}
	return &IndexPage{
		OutputPath: "index.html",
		Title:      title,
		Body:       body,
		Fields:     a.indexFields(title, "/"),
	}, nil
}

func (a *Assembler) tagIndexes(pages []*Page) ([]*IndexPage, error) {
	groups := make(map[string][]*Page)
	names := make(map[string]string)
	for _, p := range pages {
		for _, tag := range p.Tags {
			slug := Slugify(tag)
			if slug == "" {
				continue
			}
			if _, ok := names[slug]; !ok {
				names[slug] = tag
			}
			groups[slug] = append(groups[slug], p)
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	slugs := make([]string, 0, len(groups))
	for slug := range groups {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]*IndexPage, 0, len(slugs)+1)
	summaries := make([]TagSummary, 0, len(slugs))
	for _, slug := range slugs {
		group := Sorted(groups[slug])
		outPath := path.Join("tags", slug, "index.html")
		body, err := a.executeIndexTemplate("tag", a.templateContext(group, map[string]any{
			"Tag": names[slug],
		}))
		if err != nil {
			return nil, err
		}
		out = append(out, &IndexPage{
			OutputPath: outPath,
			Title:      names[slug],
			Body:       body,
			Fields:     a.indexFields(names[slug], PageURL(outPath)),
		})
		summaries = append(summaries, TagSummary{
			Name:  names[slug],
			Slug:  slug,
			URL:   PageURL(outPath),
			Count: len(group),
		})
	}

	body, err := a.executeIndexTemplate("tags", a.templateContext(nil, map[string]any{
		"Tags": summaries,
	}))
	if err != nil {
		return nil, err
	}
	out = append(out, &IndexPage{
		OutputPath: "tags/index.html",
		Title:      "Tags",
		Body:       body,
		Fields:     a.indexFields("Tags", "/tags/"),
	})
	return out, nil
}

func (a *Assembler) indexFields(title, url string) map[string]any {
	fields := map[string]any{"title": title, "url": url}
	addSiteFields(fields, a.site)
	return fields
}

// templateContext assembles the context index templates execute against:
// site metadata, the listed pages, and simple aggregate stats.
func (a *Assembler) templateContext(pages []*Page, extra map[string]any) map[string]any {
	ctx := map[string]any{
		"Site": map[string]any{
			"Title":       a.site.Title,
			"Description": a.site.Description,
			"BaseURL":     a.site.BaseURL,
		},
		"Pages": pages,
		"Now":   time.Now(),
		"Stats": map[string]any{"TotalPages": len(pages)},
	}
	for k, v := range extra {
		ctx[k] = v
	}
	return ctx
}

func (a *Assembler) executeIndexTemplate(kind string, ctx map[string]any) ([]byte, error) {
	funcs := template.FuncMap{
		"titleCase":  titleCase,
		"lower":      strings.ToLower,
		"replaceAll": strings.ReplaceAll,
		"slugify":    Slugify,
	}
	tpl, err := template.New(kind + "_index").Funcs(funcs).Parse(a.mustIndexTemplate(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s template: %w", aerrors.ErrIndexTemplateInvalid, kind, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", aerrors.ErrIndexGenerationFailed, kind, err)
	}
	return buf.Bytes(), nil
}

// loadIndexTemplate attempts to locate a template override for aggregate
// pages. Search order (first hit wins):
//  1. <layoutsDir>/index/<kind>.html.tmpl
//  2. <layoutsDir>/index/<kind>.tmpl
//
// Returns an error when no override exists (caller falls back to embedded).
func (a *Assembler) loadIndexTemplate(kind string) (string, error) {
	if a.layoutsDir == "" {
		return "", fmt.Errorf("no layouts directory for %s template override", kind)
	}
	candidates := []string{
		filepath.Join(a.layoutsDir, "index", kind+".html.tmpl"),
		filepath.Join(a.layoutsDir, "index", kind+".tmpl"),
	}
	for _, p := range candidates {
		// #nosec G304 - p is from predefined template paths under the layouts dir
		b, err := os.ReadFile(p)
		if err == nil {
			slog.Debug("Loaded index template override", logfields.Name(kind), logfields.Path(p))
			return string(b), nil
		}
	}
	return "", fmt.Errorf("no template override for kind %s", kind)
}

// mustIndexTemplate returns either a user override template body or the
// embedded default. Panics only if embedded defaults are missing (programmer
// error), not on user absence.
func (a *Assembler) mustIndexTemplate(kind string) string {
	if raw, err := a.loadIndexTemplate(kind); err == nil && strings.TrimSpace(raw) != "" {
		return raw
	}
	b, err := embeddedIndexTemplates.ReadFile("templates_defaults/index/" + kind + ".tmpl")
	if err != nil {
		panic(fmt.Sprintf("embedded default index template missing for kind %s: %v", kind, err))
	}
	return string(b)
}
