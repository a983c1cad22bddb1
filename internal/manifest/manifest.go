// Package manifest persists per-document build state between runs. The build
// planner compares manifest entries against current fingerprints to decide
// which documents actually need re-rendering.
package manifest

import "time"

// Entry records the rendered state of one source document.
type Entry struct {
	RelPath     string    // slash-separated path relative to the source root
	ContentHash string    // fingerprint of the document's raw bytes
	ChainHash   string    // fingerprint of its resolved layout chain
	OutputPath  string    // slash-separated path relative to the output root
	RenderedAt  time.Time // when the document was last rendered
}

// Matches reports whether the entry still covers the given fingerprints. A
// false result means the document or its layout chain changed since the entry
// was written.
func (e *Entry) Matches(contentHash, chainHash string) bool {
	return e != nil && e.ContentHash == contentHash && e.ChainHash == chainHash
}

// Run summarizes one completed build in the runs ledger.
type Run struct {
	ID         string // build run UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Rendered   int
	Skipped    int
	Failed     int
}
