package assemble

import (
	"log/slog"
	"time"

	"github.com/mkrogh/sitegen/internal/config"
	"github.com/mkrogh/sitegen/internal/content"
	"github.com/mkrogh/sitegen/internal/frontmatter"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// Page is the assembler's view of one renderable document: derived title,
// slug and output location plus the fields aggregate pages order on.
type Page struct {
	RelPath string
	Section string
	Title   string
	Slug    string
	Layout  string // resolved layout name, never empty unless the site has no default
	Date    time.Time
	HasDate bool
	Tags    []string
	Draft   bool

	OutputPath string // slash-separated, relative to the output root
	URL        string // site-absolute link target

	Meta frontmatter.Metadata
}

// Assembler derives output locations, placeholder bindings and aggregate
// pages for a site.
type Assembler struct {
	site       config.SiteConfig
	layoutsDir string // absolute path; index template overrides live under it
}

// New returns an assembler for the given site. layoutsDir may be "" when the
// source carries no layouts directory.
func New(site config.SiteConfig, layoutsDir string) *Assembler {
	return &Assembler{site: site, layoutsDir: layoutsDir}
}

// PageFor derives the page identity for one parsed document. Title falls back
// to the file name, slug to the title, layout to the site default.
func (a *Assembler) PageFor(doc *content.Document) *Page {
	meta := doc.Meta

	title := meta.Title
	if title == "" {
		title = TitleFromName(doc.Name)
	}

	slug := Slugify(meta.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		slug = Slugify(doc.Name)
	}
	if slug == "" {
		slug = "untitled"
	}

	layoutName := meta.Layout
	if layoutName == "" {
		layoutName = a.site.DefaultLayout
	}

	p := &Page{
		RelPath: doc.RelPath,
		Section: doc.Section,
		Title:   title,
		Slug:    slug,
		Layout:  layoutName,
		Date:    meta.Date,
		HasDate: meta.HasDate(),
		Tags:    meta.Tags,
		Draft:   meta.Draft,
		Meta:    meta,
	}
	p.OutputPath = outputPath(p, doc.Name)
	p.URL = PageURL(p.OutputPath)
	return p
}

// Pages builds the assembler's view of the parsed renderable documents.
// Assets never become pages; drafts are dropped unless includeDrafts is set.
func (a *Assembler) Pages(docs []*content.Document, includeDrafts bool) []*Page {
	pages := make([]*Page, 0, len(docs))
	for _, doc := range docs {
		if doc.IsAsset {
			continue
		}
		p := a.PageFor(doc)
		if p.Draft && !includeDrafts {
			slog.Debug("Skipping draft document", logfields.Path(doc.RelPath))
			continue
		}
		pages = append(pages, p)
	}
	return pages
}

// Fields returns the placeholder bindings for rendering this page: header
// fields flattened, computed values layered on top, site.* keys last.
func (p *Page) Fields(site config.SiteConfig) map[string]any {
	fields := p.Meta.Fields()
	fields["title"] = p.Title
	fields["slug"] = p.Slug
	fields["url"] = p.URL
	if p.Section != "" {
		fields["section"] = p.Section
	}
	if p.HasDate {
		fields["date"] = p.Date.Format("2006-01-02")
	}
	addSiteFields(fields, site)
	return fields
}

// addSiteFields merges the site.* bindings every rendered page can reference.
func addSiteFields(fields map[string]any, site config.SiteConfig) {
	if site.Title != "" {
		fields["site.title"] = site.Title
	}
	if site.Description != "" {
		fields["site.description"] = site.Description
	}
	if site.BaseURL != "" {
		fields["site.baseurl"] = site.BaseURL
	}
}
