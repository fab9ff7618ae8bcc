package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/marketvet-labs/marketvet/internal/manifest"
)

// skillsDirName is the conventional skill collection inside a plugin.
const skillsDirName = "skills"

// Discover returns the skill directories of a plugin: every declared
// skill path that exists as a directory, plus every skills/<name>/
// directory holding a SKILL.md. The result is de-duplicated and sorted by
// display path so downstream processing is deterministic.
func Discover(m *manifest.PluginManifest, repoRoot string) []Unit {
	seen := make(map[string]bool)
	var units []Unit

	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] {
			return
		}
		seen[dir] = true
		units = append(units, Unit{Dir: dir, Path: displayPath(repoRoot, dir)})
	}

	for _, p := range m.SkillPaths {
		if filepath.IsAbs(p) {
			continue // reported by the path resolver
		}
		dir := filepath.Join(m.Dir, p)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			add(dir)
		}
	}

	// Conventional layout: skills/<name>/SKILL.md under the plugin root.
	entries, err := os.ReadDir(filepath.Join(m.Dir, skillsDirName))
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(m.Dir, skillsDirName, e.Name())
			if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); err == nil {
				add(dir)
			}
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	return units
}

// displayPath renders dir relative to the repository root with forward
// slashes, falling back to the raw path when dir lies outside the root.
func displayPath(repoRoot, dir string) string {
	rel, err := filepath.Rel(repoRoot, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

// Frontmatter is the YAML metadata block at the top of a SKILL.md. It is
// display metadata only; structural compliance belongs to the external
// validator.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Metadata parses the SKILL.md frontmatter of a skill directory.
func Metadata(dir string) (*Frontmatter, error) {
	data, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
	if err != nil {
		return nil, err
	}

	block, err := frontmatterBlock(string(data))
	if err != nil {
		return nil, err
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, fmt.Errorf("parsing SKILL.md frontmatter: %w", err)
	}
	return &fm, nil
}

// frontmatterBlock extracts the YAML between the leading "---" fences.
func frontmatterBlock(content string) (string, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", fmt.Errorf("SKILL.md has no frontmatter block")
	}
	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", fmt.Errorf("SKILL.md frontmatter is not terminated")
	}
	return rest[:end], nil
}
