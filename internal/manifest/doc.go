// Package manifest loads plugin and marketplace catalog manifests into
// typed, immutable structs. Loading isolates failures per document: a
// manifest that cannot be read stops checks for that document only, never
// the run. After JSON syntax parses, documents get a structural pre-pass
// against embedded JSON Schemas that pins down field types; the domain
// rules (naming grammar, semver, license identifiers) live in
// internal/check. Untyped maps never leave this package.
package manifest
