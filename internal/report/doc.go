// Package report merges manifest findings and skill verdicts into one
// ordered report, derives the overall status and exit code, and renders
// the report as human-readable text or the machine-readable JSON other
// tooling consumes.
package report
