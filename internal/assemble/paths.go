package assemble

import (
	"fmt"
	"path"
	"strings"
)

// outputPath maps a page to its location under the output root. Dated
// documents get YYYY/MM/slug permalinks; undated documents mirror the source
// tree. Documents named "index" always keep their place in the tree, dated or
// not, so a source index cannot migrate into a permalink.
func outputPath(p *Page, name string) string {
	if name != "index" && p.HasDate {
		return path.Join(
			fmt.Sprintf("%04d", p.Date.Year()),
			fmt.Sprintf("%02d", int(p.Date.Month())),
			p.Slug,
			"index.html",
		)
	}
	return mirroredPath(p.RelPath)
}

// mirroredPath swaps the source extension for .html, keeping the tree shape.
func mirroredPath(relPath string) string {
	return strings.TrimSuffix(relPath, path.Ext(relPath)) + ".html"
}

// PageURL converts an output path into a site-absolute link. Directory index
// files collapse to the directory form.
func PageURL(outputPath string) string {
	if outputPath == "index.html" {
		return "/"
	}
	if dir, ok := strings.CutSuffix(outputPath, "/index.html"); ok {
		return "/" + dir + "/"
	}
	return "/" + outputPath
}

// Collision records two source documents that derived the same output path.
type Collision struct {
	OutputPath string
	First      string // RelPath of the page that keeps the output
	Second     string // RelPath of the page that loses it
}

// CheckCollisions reports pages whose derived output paths collide. Pages are
// examined in the order given, so with RelPath-sorted input the survivor is
// deterministic across runs.
func CheckCollisions(pages []*Page) []Collision {
	seen := make(map[string]string, len(pages))
	var collisions []Collision
	for _, p := range pages {
		if first, ok := seen[p.OutputPath]; ok {
			collisions = append(collisions, Collision{OutputPath: p.OutputPath, First: first, Second: p.RelPath})
			continue
		}
		seen[p.OutputPath] = p.RelPath
	}
	return collisions
}
