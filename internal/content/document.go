package content

import (
	"fmt"
	"os"

	cerrors "github.com/mkrogh/sitegen/internal/content/errors"
	"github.com/mkrogh/sitegen/internal/frontmatter"
)

// Document represents a discovered source file. Content is loaded on demand:
// Scan returns documents with paths and classification only, so large trees
// can be enumerated without reading every file.
type Document struct {
	SourcePath string // absolute path to the file
	RelPath    string // slash-separated path relative to the source root
	Section    string // directory portion of RelPath, "" at the root
	Name       string // file name without extension
	Extension  string // file extension including the dot
	IsAsset    bool   // true for files copied through without rendering

	Meta frontmatter.Metadata // populated by Parse
	Body []byte               // body bytes after the metadata header, populated by Parse

	raw    []byte
	parsed bool
}

// ID returns the document's stable identity: its slash-separated path
// relative to the source root. Manifest entries and index ordering key on it.
func (d *Document) ID() string {
	return d.RelPath
}

// Load reads the document's content from disk. Idempotent: a second call is a
// no-op once content is held.
func (d *Document) Load() error {
	if d.raw != nil {
		return nil
	}

	raw, err := os.ReadFile(d.SourcePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cerrors.ErrFileReadFailed, d.RelPath, err)
	}

	d.raw = raw
	return nil
}

// Raw returns the document's raw bytes, loading them if necessary.
func (d *Document) Raw() ([]byte, error) {
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d.raw, nil
}

// Parse loads the document and splits its metadata header from the body.
// Assets are never parsed. Idempotent.
func (d *Document) Parse() error {
	if d.parsed {
		return nil
	}
	if d.IsAsset {
		return fmt.Errorf("asset %s has no metadata header", d.RelPath)
	}
	if err := d.Load(); err != nil {
		return err
	}

	meta, body, err := frontmatter.Parse(d.raw)
	if err != nil {
		return fmt.Errorf("%s: %w", d.RelPath, err)
	}

	d.Meta = meta
	d.Body = body
	d.parsed = true
	return nil
}

// Fingerprint returns the content fingerprint of the document's raw bytes,
// loading them if necessary.
func (d *Document) Fingerprint() (string, error) {
	raw, err := d.Raw()
	if err != nil {
		return "", err
	}
	return Fingerprint(raw), nil
}
