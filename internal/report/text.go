package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/skill"
)

var (
	passColor = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
	boldColor = color.New(color.Bold)
)

// RenderText writes the human-readable report. Verbose mode additionally
// prints per-skill issue detail and remediation hints for passing skills.
func RenderText(w io.Writer, r *Report, verbose bool) {
	boldColor.Fprintln(w, "Validating plugin marketplace...")

	for _, key := range r.Keys() {
		issues := r.PluginIssues[key]
		fmt.Fprintln(w)
		statusLine(w, statusOf(issues), key)
		for _, is := range issues {
			printIssue(w, is, verbose)
		}
	}

	if len(r.SkillResults) > 0 {
		fmt.Fprintln(w)
		boldColor.Fprintln(w, "Skills")
		for _, res := range r.SkillResults {
			statusLine(w, Status(res.Status), res.SkillPath)
			if verbose || res.Status != skill.StatusPass {
				for _, is := range res.Issues {
					printIssue(w, is, verbose)
				}
			}
		}
	}

	fmt.Fprintln(w)
	printSummary(w, r)
}

func statusLine(w io.Writer, s Status, label string) {
	switch s {
	case StatusPass:
		passColor.Fprintf(w, "✓ %s\n", label)
	case StatusWarning:
		warnColor.Fprintf(w, "! %s\n", label)
	default:
		failColor.Fprintf(w, "✗ %s\n", label)
	}
}

func printIssue(w io.Writer, is issue.Issue, verbose bool) {
	c := failColor
	if is.Severity == issue.SeverityWarning {
		c = warnColor
	}
	if is.Field != "" {
		c.Fprintf(w, "  %s: %s (%s)\n", is.Severity, is.Message, is.Field)
	} else {
		c.Fprintf(w, "  %s: %s\n", is.Severity, is.Message)
	}
	if is.SuggestedFix != "" {
		dimColor.Fprintf(w, "    fix: %s\n", is.SuggestedFix)
	}
	if verbose && is.SubjectPath != "" {
		dimColor.Fprintf(w, "    at: %s\n", is.SubjectPath)
	}
}

func printSummary(w io.Writer, r *Report) {
	var passed, warned, failed int
	for _, issues := range r.PluginIssues {
		switch statusOf(issues) {
		case StatusPass:
			passed++
		case StatusWarning:
			warned++
		default:
			failed++
		}
	}

	boldColor.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  %d passed, %d with warnings, %d failed, %d skills validated\n",
		passed, warned, failed, len(r.SkillResults))

	switch r.OverallStatus() {
	case StatusPass:
		passColor.Fprintln(w, "  overall: pass")
	case StatusWarning:
		warnColor.Fprintln(w, "  overall: warning")
	default:
		failColor.Fprintln(w, "  overall: fail")
	}
}
