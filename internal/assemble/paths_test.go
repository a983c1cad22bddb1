package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/sitegen/internal/config"
	"github.com/mkrogh/sitegen/internal/content"
	"github.com/mkrogh/sitegen/internal/frontmatter"
)

func newTestAssembler() *Assembler {
	return New(config.SiteConfig{Title: "Test Site", DefaultLayout: "base"}, "")
}

func TestPageFor_DatedDocument_GetsPermalinkPath(t *testing.T) {
	a := newTestAssembler()
	doc := &content.Document{
		RelPath: "posts/hello-world.md",
		Section: "posts",
		Name:    "hello-world",
		Meta: frontmatter.Metadata{
			Title: "Hello World",
			Date:  time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	p := a.PageFor(doc)

	assert.Equal(t, "2018/02/hello-world/index.html", p.OutputPath)
	assert.Equal(t, "/2018/02/hello-world/", p.URL)
}

func TestPageFor_UndatedDocument_MirrorsSourceTree(t *testing.T) {
	a := newTestAssembler()
	doc := &content.Document{
		RelPath: "guides/setup.md",
		Section: "guides",
		Name:    "setup",
		Meta:    frontmatter.Metadata{Title: "Setup"},
	}

	p := a.PageFor(doc)

	assert.Equal(t, "guides/setup.html", p.OutputPath)
	assert.Equal(t, "/guides/setup.html", p.URL)
}

func TestPageFor_IndexDocument_StaysInPlaceEvenWhenDated(t *testing.T) {
	a := newTestAssembler()
	doc := &content.Document{
		RelPath: "index.md",
		Name:    "index",
		Meta: frontmatter.Metadata{
			Title: "Home",
			Date:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	p := a.PageFor(doc)

	assert.Equal(t, "index.html", p.OutputPath)
	assert.Equal(t, "/", p.URL)
}

func TestPageFor_HTMLDocument_KeepsExtension(t *testing.T) {
	a := newTestAssembler()
	doc := &content.Document{
		RelPath: "about.html",
		Name:    "about",
		Meta:    frontmatter.Metadata{Title: "About"},
	}

	p := a.PageFor(doc)

	assert.Equal(t, "about.html", p.OutputPath)
}

func TestPageURL_DirectoryIndexCollapses(t *testing.T) {
	assert.Equal(t, "/", PageURL("index.html"))
	assert.Equal(t, "/2018/02/hello/", PageURL("2018/02/hello/index.html"))
	assert.Equal(t, "/guides/setup.html", PageURL("guides/setup.html"))
}

func TestCheckCollisions_SameSlugSameMonth_Reported(t *testing.T) {
	a := newTestAssembler()
	date := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	first := a.PageFor(&content.Document{
		RelPath: "posts/a.md", Name: "a", Section: "posts",
		Meta: frontmatter.Metadata{Title: "Same Title", Date: date},
	})
	second := a.PageFor(&content.Document{
		RelPath: "posts/b.md", Name: "b", Section: "posts",
		Meta: frontmatter.Metadata{Title: "Same Title", Date: date},
	})

	collisions := CheckCollisions([]*Page{first, second})

	require.Len(t, collisions, 1)
	assert.Equal(t, "2021/06/same-title/index.html", collisions[0].OutputPath)
	assert.Equal(t, "posts/a.md", collisions[0].First)
	assert.Equal(t, "posts/b.md", collisions[0].Second)
}

func TestCheckCollisions_DistinctPaths_Empty(t *testing.T) {
	a := newTestAssembler()
	pages := []*Page{
		a.PageFor(&content.Document{RelPath: "a.md", Name: "a", Meta: frontmatter.Metadata{Title: "A"}}),
		a.PageFor(&content.Document{RelPath: "b.md", Name: "b", Meta: frontmatter.Metadata{Title: "B"}}),
	}
	assert.Empty(t, CheckCollisions(pages))
}
