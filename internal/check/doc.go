// Package check implements the domain validation rules for plugin and
// catalog manifests: naming grammar, semantic versioning, author shape,
// license identifiers, declared-path integrity, and the cross-document
// consistency checks between the catalog and the plugins it references.
//
// Every check is a pure function returning a slice of findings; checks
// accumulate everything they see and never stop at the first violation.
// Merging findings into a verdict is the report package's job.
package check
