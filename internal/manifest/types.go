package manifest

import "encoding/json"

// PluginManifest is one plugin's declared identity, parsed from
// .claude-plugin/plugin.json. Immutable once loaded; owned by the
// validation run that loaded it.
type PluginManifest struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Author      *Author    `json:"author,omitempty"`
	License     *string    `json:"license,omitempty"`
	Repository  string     `json:"repository,omitempty"`
	Keywords    StringList `json:"keywords,omitempty"`
	Commands    StringList `json:"commands,omitempty"`
	Agents      StringList `json:"agents,omitempty"`
	SkillPaths  StringList `json:"skills,omitempty"`

	// Set by the loader, not part of the document.
	Path string `json:"-"` // manifest file path
	Dir  string `json:"-"` // plugin root directory
}

// CatalogManifest is the marketplace-wide document, parsed from
// .claude-plugin/marketplace.json.
type CatalogManifest struct {
	Name    string         `json:"name"`
	Owner   *Author        `json:"owner,omitempty"`
	Entries []CatalogEntry `json:"plugins"`

	Path string `json:"-"` // manifest file path
	Root string `json:"-"` // marketplace root directory
}

// CatalogEntry is one published plugin listed in the catalog.
type CatalogEntry struct {
	Name        string  `json:"name"`
	SourcePath  string  `json:"source"`
	Version     string  `json:"version,omitempty"`
	Description string  `json:"description,omitempty"`
	License     *string `json:"license,omitempty"`
	Author      *Author `json:"author,omitempty"`
}

// Author is a structured person/organization reference. The document
// format requires an object with at least a "name" field, but a bare
// string is the most common authoring mistake, so unmarshaling accepts
// it and records the shape for the schema checks to report.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`

	// BareString is true when the JSON value was a plain string
	// rather than an object.
	BareString bool `json:"-"`
}

// UnmarshalJSON accepts both {"name": ...} objects and bare strings.
// Other shapes are left zero-valued; the structural pre-pass reports them.
func (a *Author) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Name = s
		a.BareString = true
		return nil
	}

	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	*a = Author(p)
	return nil
}

// StringList accepts either a single string or an array of strings,
// matching how path fields are written in plugin manifests in the wild.
// Non-string elements are dropped here; the structural pre-pass reports them.
type StringList []string

// UnmarshalJSON decodes a scalar string as a one-element list.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{s}
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(StringList, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}
