package manifest

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/marketvet-labs/marketvet/internal/issue"
)

//go:embed schema/plugin.schema.json schema/marketplace.schema.json
var schemaFS embed.FS

const (
	pluginSchemaName  = "plugin.schema.json"
	catalogSchemaName = "marketplace.schema.json"
)

var (
	compileOnce   sync.Once
	compileErr    error
	pluginSchema  *jsonschema.Schema
	catalogSchema *jsonschema.Schema
	printer       = message.NewPrinter(language.English)
)

// compileSchemas compiles both embedded JSON schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for _, name := range []string{pluginSchemaName, catalogSchemaName} {
			data, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				compileErr = fmt.Errorf("reading embedded schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshaling schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("adding schema resource %s: %w", name, err)
				return
			}
		}
		if pluginSchema, compileErr = c.Compile(pluginSchemaName); compileErr != nil {
			compileErr = fmt.Errorf("compiling %s: %w", pluginSchemaName, compileErr)
			return
		}
		if catalogSchema, compileErr = c.Compile(catalogSchemaName); compileErr != nil {
			compileErr = fmt.Errorf("compiling %s: %w", catalogSchemaName, compileErr)
		}
	})
	return compileErr
}

// validateShape checks raw manifest bytes against one of the embedded
// schemas and converts schema violations into issues attributed to the
// manifest file. The schemas are deliberately open: they pin down field
// types only, so unknown fields pass through (forward-compatible) and the
// domain rules in internal/check own the grammar-level decisions.
func validateShape(path string, data []byte, schema *jsonschema.Schema) []issue.Issue {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		// The caller has already parsed the same bytes; unreachable
		// in practice but never silently dropped.
		return []issue.Issue{issue.Error(path, "", fmt.Sprintf("preparing document for validation: %v", err))}
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []issue.Issue{issue.Error(path, "", err.Error())}
	}
	return extractIssues(path, ve)
}

// extractIssues walks the validation error tree and returns leaf-level
// issues. anyOf branches produce overlapping errors, so results are
// deduplicated by field and message.
func extractIssues(path string, ve *jsonschema.ValidationError) []issue.Issue {
	var leaves []issue.Issue
	collectLeaves(path, ve, &leaves)

	if len(leaves) == 0 {
		return []issue.Issue{issue.Error(path, "", ve.Error())}
	}

	seen := make(map[string]bool, len(leaves))
	var out []issue.Issue
	for _, is := range leaves {
		key := is.Field + "|" + is.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, is)
		}
	}
	return out
}

// collectLeaves recursively walks the error tree to find leaf errors with
// specific property information.
func collectLeaves(path string, ve *jsonschema.ValidationError, out *[]issue.Issue) {
	if len(ve.Causes) == 0 {
		keyword := ""
		if ve.ErrorKind != nil {
			kwPath := ve.ErrorKind.KeywordPath()
			if len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
		}

		// Skip generic container errors that aren't informative.
		if keyword == "anyOf" || keyword == "oneOf" || keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return
		}

		msg := ""
		if ve.ErrorKind != nil {
			msg = ve.ErrorKind.LocalizedString(printer)
		}

		*out = append(*out, issue.Error(path, fieldFromLocation(ve.InstanceLocation), msg))
		return
	}

	for _, cause := range ve.Causes {
		collectLeaves(path, cause, out)
	}
}

// fieldFromLocation renders an instance location as a field reference,
// e.g. ["plugins", "0", "name"] → "plugins[0].name".
func fieldFromLocation(loc []string) string {
	var b strings.Builder
	for _, seg := range loc {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
