//go:build property
// +build property

package assemble

import (
	"fmt"
	"math/rand"
	"reflect"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// pageSample carries just the fields aggregate ordering consults.
type pageSample struct {
	RelPath string
	Days    int
	HasDate bool
}

func genPageSamples() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(pageSample{}), map[string]gopter.Gen{
		"RelPath": gen.RegexMatch(`[a-z]{1,6}/[a-z]{1,8}\.md`),
		"Days":    gen.IntRange(0, 1500),
		"HasDate": gen.Bool(),
	}))
}

func pagesFromSamples(samples []pageSample) []*Page {
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	pages := make([]*Page, 0, len(samples))
	for _, s := range samples {
		p := &Page{RelPath: s.RelPath, HasDate: s.HasDate}
		if s.HasDate {
			p.Date = base.AddDate(0, 0, s.Days)
		}
		pages = append(pages, p)
	}
	return pages
}

// orderKeys flattens a page sequence into comparable keys. Pages with equal
// keys are interchangeable as far as ordering is concerned.
func orderKeys(pages []*Page) []string {
	keys := make([]string, 0, len(pages))
	for _, p := range pages {
		keys = append(keys, fmt.Sprintf("%s|%t|%s", p.RelPath, p.HasDate, p.Date.Format("2006-01-02")))
	}
	return keys
}

// TestOrderingProperties checks that aggregate ordering is deterministic and
// matches the dated-first, newest-first contract.
func TestOrderingProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property 1: the sorted order does not depend on input order.
	properties.Property("sorted order is independent of input order", prop.ForAll(
		func(samples []pageSample, seed int64) bool {
			pages := pagesFromSamples(samples)
			a := Sorted(pages)

			shuffled := make([]*Page, len(pages))
			copy(shuffled, pages)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			b := Sorted(shuffled)

			return reflect.DeepEqual(orderKeys(a), orderKeys(b))
		},
		genPageSamples(),
		gen.Int64Range(0, 1<<32),
	))

	// Property 2: Sorted returns a permutation and never reorders its input.
	properties.Property("sorted is a permutation that leaves the input untouched", prop.ForAll(
		func(samples []pageSample) bool {
			pages := pagesFromSamples(samples)
			before := orderKeys(pages)

			out := Sorted(pages)

			if !reflect.DeepEqual(orderKeys(pages), before) {
				return false
			}

			want := append([]string(nil), before...)
			got := orderKeys(out)
			sort.Strings(want)
			sorted := append([]string(nil), got...)
			sort.Strings(sorted)
			return reflect.DeepEqual(sorted, want)
		},
		genPageSamples(),
	))

	// Property 3: dated pages precede undated ones, dates never increase, and
	// ties fall back to the source path.
	properties.Property("dated pages come first, newest first, ties by path", prop.ForAll(
		func(samples []pageSample) bool {
			out := Sorted(pagesFromSamples(samples))

			for i := 1; i < len(out); i++ {
				prev, cur := out[i-1], out[i]
				if !prev.HasDate && cur.HasDate {
					return false
				}
				if prev.HasDate && cur.HasDate {
					if prev.Date.Before(cur.Date) {
						return false
					}
					if prev.Date.Equal(cur.Date) && prev.RelPath > cur.RelPath {
						return false
					}
				}
				if !prev.HasDate && !cur.HasDate && prev.RelPath > cur.RelPath {
					return false
				}
			}
			return true
		},
		genPageSamples(),
	))

	properties.TestingRun(t)
}

// TestSlugProperties checks the slug and permalink derivations hold their
// shape for arbitrary titles.
func TestSlugProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	slugShape := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// Property 1: slugs are URL-safe path segments with no stray hyphens.
	properties.Property("slugify yields url-safe segments", prop.ForAll(
		func(title string) bool {
			slug := Slugify(title)
			if slug == "" {
				return true // callers fall back to another source
			}
			return slugShape.MatchString(slug)
		},
		gen.RegexMatch(`[A-Za-zÀ-ÿ0-9 _.!?'-]{0,24}`),
	))

	// Property 2: slugging an existing slug changes nothing.
	properties.Property("slugify is idempotent", prop.ForAll(
		func(title string) bool {
			slug := Slugify(title)
			return Slugify(slug) == slug
		},
		gen.RegexMatch(`[A-Za-zÀ-ÿ0-9 _.!?'-]{0,24}`),
	))

	// Property 3: dated permalinks land at YYYY/MM/slug/index.html and their
	// links collapse to the directory form.
	properties.Property("dated permalinks collapse to directory urls", prop.ForAll(
		func(slug string, days int) bool {
			p := &Page{
				RelPath: "posts/entry.md",
				Slug:    slug,
				HasDate: true,
				Date:    time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days),
			}
			out := outputPath(p, "entry")
			if !regexp.MustCompile(`^\d{4}/\d{2}/` + regexp.QuoteMeta(slug) + `/index\.html$`).MatchString(out) {
				return false
			}
			url := PageURL(out)
			return url == "/"+fmt.Sprintf("%04d/%02d", p.Date.Year(), int(p.Date.Month()))+"/"+slug+"/"
		},
		gen.RegexMatch(`[a-z0-9]+(-[a-z0-9]+){0,2}`),
		gen.IntRange(0, 1200),
	))

	properties.TestingRun(t)
}
