// Package issue defines the validation finding types shared across the
// validator. It sits at the bottom of the dependency graph and must not
// import any other internal package.
package issue

// Severity classifies a finding. Errors block an overall pass; warnings
// are informational and do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one atomic validation finding. Issues are value objects:
// created by a check, never mutated, merged into the final report.
type Issue struct {
	SubjectPath  string   // file or directory the finding is about
	Field        string   // offending attribute, empty for document-level findings
	Severity     Severity
	Message      string
	SuggestedFix string // optional human-readable remediation
}

// Error constructs an error-severity issue.
func Error(subject, field, message string) Issue {
	return Issue{SubjectPath: subject, Field: field, Severity: SeverityError, Message: message}
}

// Warning constructs a warning-severity issue.
func Warning(subject, field, message string) Issue {
	return Issue{SubjectPath: subject, Field: field, Severity: SeverityWarning, Message: message}
}

// WithFix returns a copy of the issue carrying a remediation hint.
func (i Issue) WithFix(fix string) Issue {
	i.SuggestedFix = fix
	return i
}

// HasErrors reports whether any issue in the slice is error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any issue in the slice is warning severity.
func HasWarnings(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
