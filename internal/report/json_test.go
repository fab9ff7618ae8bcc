package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/skill"
)

func sampleReport() *Report {
	r := New()
	r.Add("marketplace")
	r.Add("alpha", issue.Warning("alpha", "license", "missing license field").
		WithFix(`add an SPDX identifier or "Proprietary"`))
	r.Add("beta", issue.Error("beta", "version", "invalid semantic version \"1.0\""))
	r.AddSkillResults(
		skill.Result{SkillPath: "plugins/alpha/skills/demo", Status: skill.StatusPass},
		skill.Result{
			SkillPath: "plugins/beta/skills/broken",
			Status:    skill.StatusFail,
			Issues:    []issue.Issue{issue.Error("plugins/beta/skills/broken", "", "skills-ref validation failed (exit 2)")},
		},
	)
	return r
}

func TestRenderJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		OverallStatus string `json:"overallStatus"`
		Plugins       map[string][]struct {
			Field    string  `json:"field"`
			Severity string  `json:"severity"`
			Message  string  `json:"message"`
			Fix      *string `json:"fix"`
		} `json:"plugins"`
		Skills []struct {
			SkillPath string `json:"skillPath"`
			Status    string `json:"status"`
		} `json:"skills"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	if doc.OverallStatus != "fail" {
		t.Errorf("overallStatus = %q, want fail", doc.OverallStatus)
	}
	if len(doc.Plugins) != 3 {
		t.Errorf("expected 3 plugin keys, got %d", len(doc.Plugins))
	}
	if issues, ok := doc.Plugins["marketplace"]; !ok || len(issues) != 0 {
		t.Errorf("clean catalog key should be present with no issues, got %v", issues)
	}

	alpha := doc.Plugins["alpha"]
	if len(alpha) != 1 || alpha[0].Severity != "warning" || alpha[0].Fix == nil {
		t.Errorf("unexpected alpha issues: %+v", alpha)
	}
	beta := doc.Plugins["beta"]
	if len(beta) != 1 || beta[0].Fix != nil {
		t.Errorf("issue without a fix should serialize fix as null, got %+v", beta)
	}

	if len(doc.Skills) != 2 || doc.Skills[0].SkillPath != "plugins/alpha/skills/demo" {
		t.Errorf("unexpected skills section: %+v", doc.Skills)
	}
}

func TestRenderJSON_NullFixIsExplicit(t *testing.T) {
	r := New()
	r.Add("alpha", issue.Error("alpha", "name", "bad name"))

	var buf bytes.Buffer
	if err := RenderJSON(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"fix": null`)) {
		t.Errorf("expected explicit null fix key, got:\n%s", buf.String())
	}
}

func TestRenderJSON_Deterministic(t *testing.T) {
	r := sampleReport()

	var first, second bytes.Buffer
	if err := RenderJSON(&first, r); err != nil {
		t.Fatal(err)
	}
	if err := RenderJSON(&second, r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first.String(), second.String()); diff != "" {
		t.Errorf("repeated renders differ (-first +second):\n%s", diff)
	}
}

func TestRenderJSON_EndsWithNewline(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, New()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Error("report should end with a newline")
	}
}
