package build

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mkrogh/sitegen/internal/logfields"
)

// staging builds a clean output tree beside the real one and promotes it
// atomically once the run succeeds. Readers of the output directory never see
// a half-written site.
type staging struct {
	finalDir string
	stageDir string
	prevDir  string
	active   bool
}

// beginStaging prepares an empty staging directory next to the output tree.
// A stale staging directory from an interrupted run is removed first.
func beginStaging(outputDir string) (*staging, error) {
	s := &staging{
		finalDir: outputDir,
		stageDir: outputDir + "_stage",
		prevDir:  outputDir + "_prev",
	}

	if err := os.RemoveAll(s.stageDir); err != nil {
		return nil, fmt.Errorf("removing stale staging directory: %w", err)
	}
	if err := os.MkdirAll(s.stageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	s.active = true
	return s, nil
}

// finalize swaps the staged tree into place. The previous output is moved
// aside first so the swap is two renames, then cleaned up in the background.
func (s *staging) finalize() error {
	if !s.active {
		return nil
	}

	if err := os.RemoveAll(s.prevDir); err != nil {
		return fmt.Errorf("removing stale previous output: %w", err)
	}

	if _, err := os.Stat(s.finalDir); err == nil {
		if err := os.Rename(s.finalDir, s.prevDir); err != nil {
			return fmt.Errorf("moving previous output aside: %w", err)
		}
	}

	if err := os.Rename(s.stageDir, s.finalDir); err != nil {
		// Try to put the previous output back so the site stays serveable.
		if _, statErr := os.Stat(s.prevDir); statErr == nil {
			_ = os.Rename(s.prevDir, s.finalDir)
		}
		return fmt.Errorf("promoting staged output: %w", err)
	}

	s.active = false

	go func(prev string) {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Previous output cleanup failed",
				logfields.Path(prev),
				logfields.Error(err))
		}
	}(s.prevDir)

	return nil
}

// abort discards the staged tree. Safe to call after finalize or repeatedly.
func (s *staging) abort() {
	if s == nil || !s.active {
		return
	}
	s.active = false
	if err := os.RemoveAll(s.stageDir); err != nil {
		slog.Warn("Staging cleanup failed",
			logfields.Path(s.stageDir),
			logfields.Error(err))
	}
}
