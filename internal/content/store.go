package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cerrors "github.com/mkrogh/sitegen/internal/content/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// Store enumerates the source tree and hands out documents.
type Store struct {
	sourceDir    string
	extensions   map[string]struct{}
	exclude      map[string]struct{}
	excludeFiles map[string]struct{}
}

// Options configures a Store.
type Options struct {
	// Extensions lists the file extensions treated as renderable documents.
	// Anything else becomes an asset and is copied through unmodified.
	Extensions []string

	// ExcludeDirs lists top-level directory names skipped during the walk,
	// such as the layouts directory or a nested output tree.
	ExcludeDirs []string

	// ExcludeFiles lists source-relative file paths left out of the walk,
	// such as the site configuration file.
	ExcludeFiles []string
}

// NewStore creates a store rooted at sourceDir.
func NewStore(sourceDir string, opts Options) *Store {
	extensions := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}
	exclude := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		if dir != "" {
			exclude[filepath.ToSlash(dir)] = struct{}{}
		}
	}
	excludeFiles := make(map[string]struct{}, len(opts.ExcludeFiles))
	for _, file := range opts.ExcludeFiles {
		if file != "" {
			excludeFiles[filepath.ToSlash(file)] = struct{}{}
		}
	}
	return &Store{
		sourceDir:    sourceDir,
		extensions:   extensions,
		exclude:      exclude,
		excludeFiles: excludeFiles,
	}
}

// Scan walks the source tree and returns all documents, sorted by relative
// path for deterministic downstream ordering. Content is not read here.
//
// Hidden files and directories are skipped, as are excluded directories.
func (s *Store) Scan() ([]*Document, error) {
	if st, err := os.Stat(s.sourceDir); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", cerrors.ErrSourceNotFound, s.sourceDir)
	}

	var docs []*Document

	err := filepath.WalkDir(s.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %w", cerrors.ErrSourceWalkFailed, path, err)
		}

		relPath, relErr := filepath.Rel(s.sourceDir, path)
		if relErr != nil {
			return fmt.Errorf("%w: %w", cerrors.ErrInvalidRelativePath, relErr)
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == s.sourceDir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if _, excluded := s.exclude[relPath]; excluded {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, excluded := s.excludeFiles[relPath]; excluded {
			return nil
		}

		docs = append(docs, s.newDocument(path, relPath, d.Name()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelPath < docs[j].RelPath })

	slog.Debug("Source tree scanned",
		logfields.Path(s.sourceDir),
		logfields.Count(len(docs)))

	return docs, nil
}

// newDocument classifies a walked file into a renderable document or asset.
func (s *Store) newDocument(path, relPath, name string) *Document {
	ext := strings.ToLower(filepath.Ext(name))
	_, renderable := s.extensions[ext]

	section := ""
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		section = relPath[:idx]
	}

	return &Document{
		SourcePath: path,
		RelPath:    relPath,
		Section:    section,
		Name:       strings.TrimSuffix(name, filepath.Ext(name)),
		Extension:  filepath.Ext(name),
		IsAsset:    !renderable,
	}
}

// Renderable filters a scan result down to the documents that pass through
// the render pipeline.
func Renderable(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if !d.IsAsset {
			out = append(out, d)
		}
	}
	return out
}

// Assets filters a scan result down to the files copied through unmodified.
func Assets(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if d.IsAsset {
			out = append(out, d)
		}
	}
	return out
}
