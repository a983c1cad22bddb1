// Package build runs the site generation pipeline.
//
// A build is a fixed sequence of stages executed against a shared BuildState:
// prepare the output tree, scan the source, parse metadata, resolve layout
// chains, plan which documents are stale, render them through a worker pool,
// write outputs, assemble index pages, copy assets, and finalize the manifest.
// Per-document problems are recorded as issues and the run continues; fatal
// problems abort the remaining stages. Every run produces a BuildReport.
//
// All execution paths (CLI, daemon, tests) should route through Service.
package build
