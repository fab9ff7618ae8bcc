package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/marketvet-labs/marketvet/internal/check"
	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/manifest"
	"github.com/marketvet-labs/marketvet/internal/report"
	"github.com/marketvet-labs/marketvet/internal/skill"
)

// pluginsDirName is the repository's plugin collection directory.
const pluginsDirName = "plugins"

// Options configures one validation run.
type Options struct {
	// Root is the marketplace repository root.
	Root string

	// PluginDir restricts the run to a single plugin directory. Catalog
	// cross-referencing is skipped in this mode.
	PluginDir string

	// SkipSkills disables skill compliance checks.
	SkipSkills bool

	// StrictWarnings promotes an overall warning verdict to fail.
	StrictWarnings bool

	// Concurrency bounds both worker pools; 0 means GOMAXPROCS.
	Concurrency int

	// SkillTimeout bounds one external validator call.
	SkillTimeout time.Duration

	// SkillsRefCommand is the external structural validator binary.
	SkillsRefCommand string

	// Validator overrides the subprocess skill validator; used by tests.
	Validator skill.Validator
}

// document is one loaded-and-checked manifest.
type document struct {
	dir      string
	manifest *manifest.PluginManifest
	issues   []issue.Issue
}

// Run executes one full validation pass over the on-disk tree and builds
// the report. Every failure mode is captured as report data; the returned
// error covers only the single fatal class, an unusable repository root
// (or --plugin directory), where there is nothing to validate.
//
// The engine is stateless: no cache, no persisted index, nothing shared
// between invocations.
func Run(ctx context.Context, opts Options) (*report.Report, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	r := report.New()
	r.StrictWarnings = opts.StrictWarnings

	// The plugin collection: either the single requested plugin or every
	// directory under plugins/.
	collectionDirs, err := collectPluginDirs(root, opts.PluginDir)
	if err != nil {
		return nil, err
	}

	// The catalog is only consulted for whole-repository runs.
	var cat *manifest.CatalogManifest
	var catalogIssues []issue.Issue
	if opts.PluginDir == "" {
		cat, catalogIssues = loadCatalog(root)
	}

	// Every directory that needs a loaded manifest: the collection, the
	// catalog's source paths, and a root-level plugin manifest if the
	// marketplace itself ships one.
	dirs := manifestDirs(root, collectionDirs, cat)

	docs := loadAndCheck(dirs, root, opts.Concurrency)

	loadedByDir := make(map[string]*manifest.PluginManifest, len(docs))
	for _, d := range docs {
		if d.manifest != nil {
			loadedByDir[d.dir] = d.manifest
		}
	}
	var collection []*manifest.PluginManifest
	for _, dir := range collectionDirs {
		if m, ok := loadedByDir[filepath.Clean(dir)]; ok {
			collection = append(collection, m)
		}
	}

	// Skill compliance runs concurrently with cross-referencing: both
	// read only immutable loaded data and the on-disk tree.
	skillDone := make(chan []skill.Result, 1)
	if opts.SkipSkills {
		skillDone <- nil
	} else {
		validator := opts.Validator
		if validator == nil {
			validator = &skill.RefValidator{Command: opts.SkillsRefCommand, Timeout: opts.SkillTimeout}
		}
		var units []skill.Unit
		for _, m := range collection {
			units = append(units, skill.Discover(m, root)...)
		}
		go func() {
			skillDone <- skill.Aggregate(ctx, units, validator, opts.Concurrency)
		}()
	}

	var crossref map[string][]issue.Issue
	if cat != nil {
		crossref = check.CrossReference(cat, collection, loadedByDir)
	}

	skillResults := <-skillDone

	// Merge in a fixed order so reports are reproducible.
	for _, d := range docs {
		r.Add(docKey(d), d.issues...)
	}
	if cat != nil {
		catalogIssues = append(catalogIssues, check.ValidateCatalog(cat)...)
	}
	if len(catalogIssues) > 0 || cat != nil {
		r.Add(check.CatalogKey, catalogIssues...)
	}
	crossKeys := make([]string, 0, len(crossref))
	for k := range crossref {
		crossKeys = append(crossKeys, k)
	}
	sort.Strings(crossKeys)
	for _, k := range crossKeys {
		r.Add(k, crossref[k]...)
	}
	r.AddSkillResults(skillResults...)

	return r, nil
}

// collectPluginDirs enumerates the plugin collection.
func collectPluginDirs(root, pluginDir string) ([]string, error) {
	if pluginDir != "" {
		dir, err := filepath.Abs(pluginDir)
		if err != nil {
			return nil, fmt.Errorf("resolving plugin directory: %w", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("plugin directory %s is not a directory", dir)
		}
		return []string{dir}, nil
	}

	entries, err := os.ReadDir(filepath.Join(root, pluginsDirName))
	if err != nil {
		return nil, nil // no plugin collection is a valid (empty) state
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, pluginsDirName, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// loadCatalog loads the marketplace catalog when present. A repository
// without one gets a warning, not an error: plugins can still be checked.
func loadCatalog(root string) (*manifest.CatalogManifest, []issue.Issue) {
	path := manifest.CatalogManifestPath(root)
	if _, err := os.Stat(path); err != nil {
		return nil, []issue.Issue{issue.Warning(path, "",
			"marketplace catalog manifest not found; cross-reference checks skipped")}
	}
	return manifest.LoadCatalog(root)
}

// manifestDirs returns the sorted, de-duplicated set of directories whose
// plugin manifests this run must load.
func manifestDirs(root string, collectionDirs []string, cat *manifest.CatalogManifest) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	if _, err := os.Stat(manifest.PluginManifestPath(root)); err == nil {
		add(root)
	}
	for _, d := range collectionDirs {
		add(d)
	}
	if cat != nil {
		for _, entry := range cat.Entries {
			if entry.SourcePath != "" {
				add(check.EntrySourceDir(root, entry.SourcePath))
			}
		}
	}

	sort.Strings(dirs)
	return dirs
}

// loadAndCheck loads each manifest and runs the per-document checks on a
// bounded worker pool. Documents are independent units: each reads only
// its own files and the read-only tree, so no locking is needed.
func loadAndCheck(dirs []string, root string, workers int) []document {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	docs := make([]document, len(dirs))
	p := pool.New().WithMaxGoroutines(workers)
	for i, dir := range dirs {
		i, dir := i, dir
		p.Go(func() {
			m, issues := manifest.LoadPlugin(dir)
			if m != nil {
				issues = append(issues, check.ValidatePlugin(m)...)
				issues = append(issues, check.ResolvePaths(m, root)...)
			}
			docs[i] = document{dir: dir, manifest: m, issues: issues}
		})
	}
	p.Wait()
	return docs
}

// docKey chooses the report key for a document: the declared plugin name
// when one loaded, otherwise the directory name.
func docKey(d document) string {
	if d.manifest != nil && d.manifest.Name != "" {
		return d.manifest.Name
	}
	return filepath.Base(d.dir)
}
