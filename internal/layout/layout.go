// Package layout loads layout templates and resolves document layout chains.
//
// A layout is an HTML file in the layouts directory. Its body contains
// placeholder tokens, including the content placeholder that receives the
// rendered inner document. A layout may name its own parent layout in a
// metadata header, forming a chain that is resolved innermost first.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkrogh/sitegen/internal/content"
	"github.com/mkrogh/sitegen/internal/frontmatter"
)

var (
	// ErrNotFound indicates a referenced layout does not exist in the registry.
	ErrNotFound = errors.New("layout not found")

	// ErrCycle indicates layout parent references form a cycle.
	ErrCycle = errors.New("layout cycle detected")
)

// Extensions accepted for layout template files.
var layoutExts = []string{".html", ".tmpl"}

// Layout is a single loaded layout template.
type Layout struct {
	Name        string // path within the layouts dir, extension stripped, slash-separated
	Parent      string // parent layout name from the metadata header, "" when outermost
	Content     []byte // template body after the metadata header
	Fingerprint string // fingerprint of the raw file bytes, header included
}

// Registry holds all layouts loaded from a layouts directory.
type Registry struct {
	layouts map[string]*Layout
}

// Load walks fsys and loads every layout template found.
//
// Hidden files and directories are skipped. A layout's metadata header may
// carry a `layout:` field naming its parent.
func Load(fsys fs.FS) (*Registry, error) {
	reg := &Registry{layouts: make(map[string]*Layout)}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories.
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !validExt(filepath.Ext(d.Name())) {
			return nil
		}

		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("error reading layout file '%s': %w", path, err)
		}

		l, err := parse(path, raw)
		if err != nil {
			return err
		}
		reg.layouts[l.Name] = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

// LoadDir loads layouts from a directory path. A missing directory yields an
// empty registry: sites without layouts render documents bare.
func LoadDir(dir string) (*Registry, error) {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return &Registry{layouts: make(map[string]*Layout)}, nil
	}
	return Load(os.DirFS(dir))
}

// parse builds a Layout from raw file bytes, reading the parent reference
// from the metadata header when present.
func parse(path string, raw []byte) (*Layout, error) {
	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("layout '%s': %w", path, err)
	}

	name := strings.TrimSuffix(filepath.ToSlash(path), filepath.Ext(path))
	return &Layout{
		Name:        name,
		Parent:      meta.Layout,
		Content:     body,
		Fingerprint: content.Fingerprint(raw),
	}, nil
}

// Get returns the named layout or ErrNotFound.
func (r *Registry) Get(name string) (*Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return l, nil
}

// Has reports whether the named layout exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.layouts[name]
	return ok
}

// Names returns all layout names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded layouts.
func (r *Registry) Len() int {
	return len(r.layouts)
}

func validExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range layoutExts {
		if e == ext {
			return true
		}
	}
	return false
}
