package manifest

import "context"

// Store defines the interface for persisting document build state.
type Store interface {
	// Get retrieves the entry for a document, or nil when none exists.
	Get(ctx context.Context, relPath string) (*Entry, error)

	// All retrieves every entry keyed by RelPath.
	All(ctx context.Context) (map[string]*Entry, error)

	// Put inserts or replaces the entry for a document.
	Put(ctx context.Context, entry Entry) error

	// Delete removes the entry for a document. Missing entries are not an error.
	Delete(ctx context.Context, relPath string) error

	// RecordRun appends a run summary to the runs ledger.
	RecordRun(ctx context.Context, run Run) error

	// Runs retrieves the most recent run summaries, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}
