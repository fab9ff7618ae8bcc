package check

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/manifest"
)

// ResolvePaths verifies every declared path-like field of a plugin
// manifest: paths must be relative to the plugin directory, must exist on
// disk, and after following symlinks must stay inside the repository root.
func ResolvePaths(m *manifest.PluginManifest, repoRoot string) []issue.Issue {
	var issues []issue.Issue

	// Symlinked repository roots (e.g. /tmp on macOS) are resolved once
	// so the boundary comparison is against real paths.
	resolvedRoot, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		resolvedRoot = repoRoot
	}

	fields := []struct {
		name  string
		paths manifest.StringList
	}{
		{"commands", m.Commands},
		{"agents", m.Agents},
		{"skills", m.SkillPaths},
	}

	for _, f := range fields {
		for _, p := range f.paths {
			issues = append(issues, resolveOne(m, f.name, p, resolvedRoot)...)
		}
	}
	return issues
}

// resolveOne checks a single declared path. The absolute-path rule fires
// first; boundary and existence checks are skipped for absolute paths.
func resolveOne(m *manifest.PluginManifest, field, p, resolvedRoot string) []issue.Issue {
	var issues []issue.Issue
	subject := m.Path

	if filepath.IsAbs(p) {
		return []issue.Issue{issue.Error(subject, field,
			fmt.Sprintf("path %q must be relative, not absolute", p))}
	}

	if !strings.HasPrefix(p, "./") {
		issues = append(issues, issue.Warning(subject, field,
			fmt.Sprintf("path %q should start with ./", p)).
			WithFix(fmt.Sprintf("write it as %q", "./"+p)))
	}

	full := filepath.Join(m.Dir, p)
	if _, err := os.Stat(full); err != nil {
		issues = append(issues, issue.Error(subject, field,
			fmt.Sprintf("path %q does not exist", p)))
		return issues
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		issues = append(issues, issue.Error(subject, field,
			fmt.Sprintf("resolving path %q: %v", p, err)))
		return issues
	}
	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		issues = append(issues, issue.Error(subject, field,
			fmt.Sprintf("path %q escapes repository boundary", p)))
	}
	return issues
}
