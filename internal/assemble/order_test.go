package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datedPage(relPath string, date time.Time) *Page {
	return &Page{RelPath: relPath, Date: date, HasDate: true}
}

func TestSort_NewestFirst(t *testing.T) {
	pages := []*Page{
		datedPage("posts/old.md", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)),
		datedPage("posts/new.md", time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC)),
	}

	Sort(pages)

	assert.Equal(t, "posts/new.md", pages[0].RelPath)
	assert.Equal(t, "posts/old.md", pages[1].RelPath)
}

func TestSort_UndatedPagesListAfterDated(t *testing.T) {
	pages := []*Page{
		{RelPath: "about.md"},
		datedPage("posts/post.md", time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)),
	}

	Sort(pages)

	assert.Equal(t, "posts/post.md", pages[0].RelPath)
	assert.Equal(t, "about.md", pages[1].RelPath)
}

func TestSort_EqualDates_TieBrokenBySourcePath(t *testing.T) {
	date := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
	pages := []*Page{
		datedPage("posts/zebra.md", date),
		datedPage("posts/apple.md", date),
	}

	Sort(pages)

	assert.Equal(t, "posts/apple.md", pages[0].RelPath)
	assert.Equal(t, "posts/zebra.md", pages[1].RelPath)
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	pages := []*Page{
		datedPage("posts/old.md", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)),
		datedPage("posts/new.md", time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC)),
	}

	ordered := Sorted(pages)

	assert.Equal(t, "posts/new.md", ordered[0].RelPath)
	assert.Equal(t, "posts/old.md", pages[0].RelPath, "input order must be preserved")
}
