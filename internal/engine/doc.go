// Package engine orchestrates one validation run: manifests are loaded
// and checked in parallel, cross-referencing waits on that barrier, skill
// compliance runs alongside it, and everything merges into a single
// report with deterministic ordering.
package engine
