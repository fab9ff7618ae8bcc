package check

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/manifest"
)

// CrossReference validates the relationships between the catalog and the
// plugin manifests it references. It runs strictly after all documents
// have been loaded and reads only immutable data.
//
// loaded maps a cleaned absolute plugin directory to its successfully
// loaded manifest; collection holds the manifests found in the
// repository's plugin collection, used for orphan detection.
//
// Findings come back grouped by report key: the referenced plugin's name
// where one applies, CatalogKey for document-level findings.
func CrossReference(cat *manifest.CatalogManifest, collection []*manifest.PluginManifest, loaded map[string]*manifest.PluginManifest) map[string][]issue.Issue {
	out := make(map[string][]issue.Issue)
	add := func(key string, iss ...issue.Issue) {
		if key == "" {
			key = CatalogKey
		}
		out[key] = append(out[key], iss...)
	}

	// Collect every index per name up front so duplicate reporting lists
	// all conflicting locations and is deterministic regardless of
	// enumeration order.
	indexByName := make(map[string][]int)
	for i, entry := range cat.Entries {
		if entry.Name != "" {
			indexByName[entry.Name] = append(indexByName[entry.Name], i)
		}
	}

	reportedDup := make(map[string]bool)
	for _, entry := range cat.Entries {
		idxs := indexByName[entry.Name]
		if entry.Name == "" || len(idxs) < 2 || reportedDup[entry.Name] {
			continue
		}
		reportedDup[entry.Name] = true
		locs := make([]string, len(idxs))
		for j, idx := range idxs {
			locs[j] = fmt.Sprintf("plugins[%d]", idx)
		}
		add(entry.Name, issue.Error(cat.Path, "name",
			fmt.Sprintf("duplicate catalog entry name %q at %s", entry.Name, strings.Join(locs, ", "))))
	}

	for i, entry := range cat.Entries {
		if entry.SourcePath == "" {
			continue // reported by ValidateCatalog
		}
		sourceField := fmt.Sprintf("plugins[%d].source", i)

		dir := entrySourceDir(cat.Root, entry.SourcePath)
		m, ok := loaded[dir]
		if !ok {
			add(entry.Name, issue.Error(cat.Path, sourceField,
				fmt.Sprintf("source path %q does not contain a loadable plugin manifest", entry.SourcePath)))
			continue
		}

		if entry.Name != "" && m.Name != "" && entry.Name != m.Name {
			add(entry.Name, issue.Error(cat.Path, fmt.Sprintf("plugins[%d].name", i),
				fmt.Sprintf("name mismatch: catalog entry %q references %s which declares name %q", entry.Name, m.Path, m.Name)))
		}

		if entry.Version != "" && m.Version != "" && !versionsEqual(entry.Version, m.Version) {
			add(entry.Name, issue.Error(cat.Path, fmt.Sprintf("plugins[%d].version", i),
				fmt.Sprintf("version mismatch for %q: catalog declares %q but %s declares %q",
					entry.Name, entry.Version, m.Path, m.Version)))
		}
	}

	// Orphans: plugins in the collection that the catalog never mentions.
	// Draft plugins are a valid state, so this is a warning.
	for _, m := range collection {
		if m.Name == "" {
			continue
		}
		if _, published := indexByName[m.Name]; !published {
			add(m.Name, issue.Warning(m.Path, "",
				fmt.Sprintf("plugin %q is not published to the catalog", m.Name)).
				WithFix(fmt.Sprintf("add an entry for %q to %s", m.Name, manifest.CatalogFileName)))
		}
	}

	return out
}

// EntrySourceDir resolves a catalog entry's source path against the
// marketplace root.
func EntrySourceDir(root, source string) string {
	return entrySourceDir(root, source)
}

func entrySourceDir(root, source string) string {
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	return filepath.Join(root, source)
}

// versionsEqual compares two version strings on their normalized semver
// form, falling back to raw string equality when either does not parse.
func versionsEqual(a, b string) bool {
	va, errA := semver.StrictNewVersion(a)
	vb, errB := semver.StrictNewVersion(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return va.String() == vb.String()
}
