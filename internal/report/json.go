package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/marketvet-labs/marketvet/internal/issue"
)

// Wire shapes for the machine-readable report. Serialization is a pure
// formatting step over the report value: same report, same bytes.
type jsonIssue struct {
	Field    string  `json:"field"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Fix      *string `json:"fix"`
}

type jsonSkill struct {
	SkillPath string      `json:"skillPath"`
	Status    string      `json:"status"`
	Issues    []jsonIssue `json:"issues"`
}

type jsonReport struct {
	OverallStatus string                 `json:"overallStatus"`
	Plugins       map[string][]jsonIssue `json:"plugins"`
	Skills        []jsonSkill            `json:"skills"`
}

// RenderJSON writes the structured report. Output is deterministic for an
// unchanged tree: map keys are emitted sorted and every slice has a
// defined order, so two runs produce byte-identical documents.
func RenderJSON(w io.Writer, r *Report) error {
	doc := jsonReport{
		OverallStatus: string(r.OverallStatus()),
		Plugins:       make(map[string][]jsonIssue, len(r.PluginIssues)),
		Skills:        make([]jsonSkill, 0, len(r.SkillResults)),
	}

	for key, issues := range r.PluginIssues {
		doc.Plugins[key] = toJSONIssues(issues)
	}
	for _, res := range r.SkillResults {
		doc.Skills = append(doc.Skills, jsonSkill{
			SkillPath: res.SkillPath,
			Status:    string(res.Status),
			Issues:    toJSONIssues(res.Issues),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func toJSONIssues(issues []issue.Issue) []jsonIssue {
	out := make([]jsonIssue, 0, len(issues))
	for _, is := range issues {
		ji := jsonIssue{
			Field:    is.Field,
			Severity: string(is.Severity),
			Message:  is.Message,
		}
		if is.SuggestedFix != "" {
			fix := is.SuggestedFix
			ji.Fix = &fix
		}
		out = append(out, ji)
	}
	return out
}
