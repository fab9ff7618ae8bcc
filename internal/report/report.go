package report

import (
	"sort"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/skill"
)

// Status is the overall verdict of a validation run.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Report aggregates every finding of one validation run. It is built
// once, rendered, and discarded; the engine keeps no state across runs.
type Report struct {
	// PluginIssues groups manifest findings by report key: the plugin
	// name, or check.CatalogKey for catalog document findings.
	PluginIssues map[string][]issue.Issue

	// SkillResults holds one entry per validated skill directory.
	SkillResults []skill.Result

	// StrictWarnings promotes an overall warning to a fail. It is a
	// reporting toggle, not a new severity level.
	StrictWarnings bool
}

// New returns an empty report.
func New() *Report {
	return &Report{PluginIssues: make(map[string][]issue.Issue)}
}

// Add appends findings under a report key. Empty slices register the key
// so a clean plugin still shows up in the report.
func (r *Report) Add(key string, issues ...issue.Issue) {
	if _, ok := r.PluginIssues[key]; !ok {
		r.PluginIssues[key] = []issue.Issue{}
	}
	r.PluginIssues[key] = append(r.PluginIssues[key], issues...)
}

// AddSkillResults appends skill verdicts.
func (r *Report) AddSkillResults(results ...skill.Result) {
	r.SkillResults = append(r.SkillResults, results...)
}

// OverallStatus derives the run verdict from the contained findings. It
// is always recomputed, never stored: fail if anything is an error or a
// failed skill, else warning if anything warned, else pass.
func (r *Report) OverallStatus() Status {
	status := StatusPass
	for _, issues := range r.PluginIssues {
		if issue.HasErrors(issues) {
			return r.strict(StatusFail)
		}
		if issue.HasWarnings(issues) {
			status = StatusWarning
		}
	}
	for _, res := range r.SkillResults {
		switch res.Status {
		case skill.StatusFail:
			return r.strict(StatusFail)
		case skill.StatusWarning:
			status = StatusWarning
		}
	}
	return r.strict(status)
}

func (r *Report) strict(s Status) Status {
	if r.StrictWarnings && s == StatusWarning {
		return StatusFail
	}
	return s
}

// ExitCode maps the overall status to the process exit code: 0 for a
// clean pass, 1 whenever any issue is present. Fatal environment errors
// use a distinct code chosen by the caller.
func (r *Report) ExitCode() int {
	if r.OverallStatus() == StatusPass {
		return 0
	}
	return 1
}

// Keys returns the plugin report keys in sorted order.
func (r *Report) Keys() []string {
	keys := make([]string, 0, len(r.PluginIssues))
	for k := range r.PluginIssues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// statusOf derives a per-document status from its findings.
func statusOf(issues []issue.Issue) Status {
	switch {
	case issue.HasErrors(issues):
		return StatusFail
	case issue.HasWarnings(issues):
		return StatusWarning
	default:
		return StatusPass
	}
}
