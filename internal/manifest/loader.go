package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketvet-labs/marketvet/internal/issue"
)

// Well-known document locations inside a plugin or marketplace tree.
const (
	MetaDir         = ".claude-plugin"
	PluginFileName  = "plugin.json"
	CatalogFileName = "marketplace.json"
)

// PluginManifestPath returns the plugin manifest location for a plugin directory.
func PluginManifestPath(dir string) string {
	return filepath.Join(dir, MetaDir, PluginFileName)
}

// CatalogManifestPath returns the catalog manifest location for a marketplace root.
func CatalogManifestPath(root string) string {
	return filepath.Join(root, MetaDir, CatalogFileName)
}

// LoadPlugin reads and parses a plugin manifest from dir. A missing file,
// malformed JSON, or non-object top level yields a nil manifest and a
// single error issue; the caller skips downstream checks for this document
// only. Structural (type-shape) violations are reported as issues while
// still producing a typed manifest so the remaining fields can be checked.
func LoadPlugin(dir string) (*PluginManifest, []issue.Issue) {
	path := PluginManifestPath(dir)
	raw, data, fatal := loadDocument(path)
	if fatal != nil {
		return nil, []issue.Issue{*fatal}
	}

	if err := compileSchemas(); err != nil {
		return nil, []issue.Issue{issue.Error(path, "", err.Error())}
	}
	issues := validateShape(path, data, pluginSchema)

	dropMistypedScalars(raw, "name", "version", "description", "license", "repository")

	var m PluginManifest
	if err := decodeInto(raw, &m); err != nil {
		return nil, append(issues, issue.Error(path, "", fmt.Sprintf("decoding manifest: %v", err)))
	}
	m.Path = path
	m.Dir = dir
	return &m, issues
}

// LoadCatalog reads and parses the marketplace catalog manifest from root,
// with the same failure isolation semantics as LoadPlugin.
func LoadCatalog(root string) (*CatalogManifest, []issue.Issue) {
	path := CatalogManifestPath(root)
	raw, data, fatal := loadDocument(path)
	if fatal != nil {
		return nil, []issue.Issue{*fatal}
	}

	if err := compileSchemas(); err != nil {
		return nil, []issue.Issue{issue.Error(path, "", err.Error())}
	}
	issues := validateShape(path, data, catalogSchema)

	dropMistypedScalars(raw, "name")
	if entries, ok := raw["plugins"].([]any); ok {
		for _, e := range entries {
			if entry, ok := e.(map[string]any); ok {
				dropMistypedScalars(entry, "name", "source", "version", "description", "license")
			}
		}
	} else {
		delete(raw, "plugins")
	}
	if _, ok := raw["owner"]; ok {
		switch raw["owner"].(type) {
		case map[string]any, string:
		default:
			delete(raw, "owner")
		}
	}

	var c CatalogManifest
	if err := decodeInto(raw, &c); err != nil {
		return nil, append(issues, issue.Error(path, "", fmt.Sprintf("decoding manifest: %v", err)))
	}
	c.Path = path
	c.Root = root
	return &c, issues
}

// loadDocument reads path and parses it as a JSON object. The three
// unrecoverable per-document failures (missing file, bad syntax, non-object
// top level) come back as a single error issue.
func loadDocument(path string) (map[string]any, []byte, *issue.Issue) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			is := issue.Error(path, "", "manifest not found")
			return nil, nil, &is
		}
		is := issue.Error(path, "", fmt.Sprintf("reading manifest: %v", err))
		return nil, nil, &is
	}

	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		msg := fmt.Sprintf("invalid JSON: %v", err)
		if syn, ok := err.(*json.SyntaxError); ok {
			msg = fmt.Sprintf("invalid JSON at line %d: %v", lineAt(data, syn.Offset), err)
		}
		is := issue.Error(path, "", msg)
		return nil, nil, &is
	}

	raw, ok := top.(map[string]any)
	if !ok {
		is := issue.Error(path, "", "top-level value must be a JSON object")
		return nil, nil, &is
	}
	return raw, data, nil
}

// dropMistypedScalars removes fields whose value is not a string so the
// typed decode cannot fail on them. The shape pre-pass has already
// reported each removed field.
func dropMistypedScalars(raw map[string]any, fields ...string) {
	for _, f := range fields {
		if v, ok := raw[f]; ok {
			if _, isStr := v.(string); !isStr {
				delete(raw, f)
			}
		}
	}
}

// decodeInto round-trips the sanitized document through JSON into a typed struct.
func decodeInto(raw map[string]any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// lineAt returns the 1-based line number containing byte offset.
func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + bytes.Count(data[:offset], []byte{'\n'})
}
