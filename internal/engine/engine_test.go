package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/marketvet-labs/marketvet/internal/check"
	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/report"
	"github.com/marketvet-labs/marketvet/internal/skill"
)

// passValidator approves every skill without spawning a subprocess.
type passValidator struct{ calls atomic.Int64 }

func (v *passValidator) Validate(_ context.Context, u skill.Unit) skill.Result {
	v.calls.Add(1)
	return skill.Result{SkillPath: u.Path, Status: skill.StatusPass}
}

// failValidator rejects every skill.
type failValidator struct{}

func (failValidator) Validate(_ context.Context, u skill.Unit) skill.Result {
	return skill.Result{
		SkillPath: u.Path,
		Status:    skill.StatusFail,
		Issues:    []issue.Issue{issue.Error(u.Path, "", "skill structure invalid")},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writePluginManifest(t *testing.T, root, name, version string) {
	t.Helper()
	body := fmt.Sprintf(`{
  "name": %q,
  "version": %q,
  "description": "A demo plugin",
  "author": {"name": "Dev"},
  "license": "MIT"
}`, name, version)
	writeFile(t, filepath.Join(root, "plugins", name, ".claude-plugin", "plugin.json"), body)
}

func writeCatalogManifest(t *testing.T, root string, entries ...string) {
	t.Helper()
	body := fmt.Sprintf(`{
  "name": "demo-marketplace",
  "owner": {"name": "Owner"},
  "plugins": [%s]
}`, strings.Join(entries, ", "))
	writeFile(t, filepath.Join(root, ".claude-plugin", "marketplace.json"), body)
}

func catalogEntry(name, version string) string {
	return fmt.Sprintf(`{"name": %q, "source": "./plugins/%s", "version": %q}`, name, name, version)
}

func writeSkill(t *testing.T, root, plugin, skillName string) {
	t.Helper()
	content := "---\nname: " + skillName + "\ndescription: A skill\n---\n\n# Skill\n"
	writeFile(t, filepath.Join(root, "plugins", plugin, "skills", skillName, "SKILL.md"), content)
}

// cleanTree builds a repository that validates without findings: one
// plugin, a matching catalog entry, one skill.
func cleanTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")
	writeSkill(t, root, "alpha", "demo")
	writeCatalogManifest(t, root, catalogEntry("alpha", "1.0.0"))
	return root
}

func allIssues(r *report.Report) []issue.Issue {
	var all []issue.Issue
	for _, issues := range r.PluginIssues {
		all = append(all, issues...)
	}
	return all
}

func containsMessage(issues []issue.Issue, substrs ...string) bool {
	for _, is := range issues {
		ok := true
		for _, s := range substrs {
			if !strings.Contains(is.Message, s) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestRun_CleanPass(t *testing.T) {
	root := cleanTree(t)
	v := &passValidator{}

	r, err := Run(context.Background(), Options{Root: root, Validator: v})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusPass {
		t.Fatalf("status = %s, want pass; issues: %+v", got, allIssues(r))
	}
	if r.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", r.ExitCode())
	}

	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != check.CatalogKey {
		t.Errorf("unexpected report keys %v", keys)
	}
	if len(r.SkillResults) != 1 || r.SkillResults[0].SkillPath != "plugins/alpha/skills/demo" {
		t.Errorf("unexpected skill results %+v", r.SkillResults)
	}
	if got := v.calls.Load(); got != 1 {
		t.Errorf("validator ran %d times, want 1", got)
	}
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Root:      filepath.Join(t.TempDir(), "nope"),
		Validator: &passValidator{},
	})
	if err == nil {
		t.Fatal("expected an error for a missing repository root")
	}
}

func TestRun_VersionMismatch(t *testing.T) {
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")
	writeCatalogManifest(t, root, catalogEntry("alpha", "1.0.1"))

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusFail {
		t.Fatalf("status = %s, want fail", got)
	}
	if !containsMessage(r.PluginIssues["alpha"], "1.0.0", "1.0.1") {
		t.Errorf("mismatch issue should name both versions: %+v", r.PluginIssues["alpha"])
	}
}

func TestRun_DuplicateCatalogEntries(t *testing.T) {
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")
	writeCatalogManifest(t, root,
		catalogEntry("alpha", "1.0.0"),
		catalogEntry("alpha", "1.0.0"))

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusFail {
		t.Fatalf("status = %s, want fail", got)
	}
	if !containsMessage(allIssues(r), "duplicate catalog entry", "plugins[0]", "plugins[1]") {
		t.Errorf("expected a duplicate-entry issue naming both locations: %+v", allIssues(r))
	}
}

func TestRun_LicenseWarningOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "plugins", "alpha", ".claude-plugin", "plugin.json"), `{
  "name": "alpha",
  "version": "1.0.0",
  "description": "A demo plugin"
}`)
	writeCatalogManifest(t, root, catalogEntry("alpha", "1.0.0"))

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusWarning {
		t.Fatalf("status = %s, want warning; issues: %+v", got, allIssues(r))
	}
	if r.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", r.ExitCode())
	}

	strict, err := Run(context.Background(), Options{Root: root, SkipSkills: true, StrictWarnings: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := strict.OverallStatus(); got != report.StatusFail {
		t.Errorf("strict status = %s, want fail", got)
	}
}

func TestRun_OrphanPlugin(t *testing.T) {
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")
	writePluginManifest(t, root, "hidden", "1.0.0")
	writeCatalogManifest(t, root, catalogEntry("alpha", "1.0.0"))

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusWarning {
		t.Fatalf("status = %s, want warning; issues: %+v", got, allIssues(r))
	}
	if !containsMessage(r.PluginIssues["hidden"], "not published") {
		t.Errorf("expected an orphan warning under the plugin's key: %+v", r.PluginIssues["hidden"])
	}
}

func TestRun_MissingCatalogIsWarning(t *testing.T) {
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusWarning {
		t.Fatalf("status = %s, want warning", got)
	}
	if !containsMessage(r.PluginIssues[check.CatalogKey], "catalog manifest not found") {
		t.Errorf("expected a missing-catalog warning: %+v", r.PluginIssues[check.CatalogKey])
	}
}

func TestRun_SkipSkills(t *testing.T) {
	root := cleanTree(t)
	v := &passValidator{}

	r, err := Run(context.Background(), Options{Root: root, SkipSkills: true, Validator: v})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.SkillResults) != 0 {
		t.Errorf("expected no skill results, got %+v", r.SkillResults)
	}
	if got := v.calls.Load(); got != 0 {
		t.Errorf("validator ran %d times, want 0", got)
	}
}

func TestRun_SinglePluginMode(t *testing.T) {
	root := cleanTree(t)

	r, err := Run(context.Background(), Options{
		Root:      root,
		PluginDir: filepath.Join(root, "plugins", "alpha"),
		Validator: &passValidator{},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusPass {
		t.Fatalf("status = %s, want pass; issues: %+v", got, allIssues(r))
	}
	keys := r.Keys()
	if len(keys) != 1 || keys[0] != "alpha" {
		t.Errorf("single-plugin mode should report only the plugin, got %v", keys)
	}
}

func TestRun_FailedSkillFailsRun(t *testing.T) {
	root := cleanTree(t)

	r, err := Run(context.Background(), Options{Root: root, Validator: failValidator{}})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.OverallStatus(); got != report.StatusFail {
		t.Fatalf("status = %s, want fail", got)
	}
	if len(r.SkillResults) != 1 || r.SkillResults[0].Status != skill.StatusFail {
		t.Errorf("unexpected skill results %+v", r.SkillResults)
	}
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	writePluginManifest(t, root, "alpha", "1.0.0")
	writePluginManifest(t, root, "beta", "2.1.0")
	writeSkill(t, root, "alpha", "demo")
	writeSkill(t, root, "beta", "one")
	writeSkill(t, root, "beta", "two")
	writeCatalogManifest(t, root,
		catalogEntry("alpha", "1.0.0"),
		catalogEntry("beta", "2.0.0"), // mismatch, on purpose
		catalogEntry("ghost", "1.0.0"))

	render := func() string {
		r, err := Run(context.Background(), Options{Root: root, Validator: &passValidator{}, Concurrency: 4})
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := report.RenderJSON(&buf, r); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}

	first := render()
	second := render()
	if first != second {
		t.Errorf("repeated runs produced different reports:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}
