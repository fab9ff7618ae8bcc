// Package skill discovers skill directories under a plugin and aggregates
// third-party structural compliance verdicts for them. The structural
// validator itself is an external collaborator reached through the
// Validator interface; the production implementation shells out to
// skills-ref with a per-call timeout, and any tool failure is captured as
// a fail result rather than propagated.
package skill
