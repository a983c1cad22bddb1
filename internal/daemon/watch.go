package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/logfields"
)

// setupWatcher creates a recursive watch over the source tree. Directories
// under a skip prefix are never watched, which keeps the output tree and the
// manifest directory from feeding their own writes back into the debouncer.
func setupWatcher(sourceDir string, skip []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "create file watcher").Build()
	}
	if err := addDirsRecursive(watcher, sourceDir, skip); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string, skip []string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if underAny(path, skip) {
			return filepath.SkipDir
		}
		if base := filepath.Base(path); path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// underAny reports whether path equals or lives beneath one of the prefixes.
func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds: hidden files, editor swap files, and OS litter.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}
	return false
}
