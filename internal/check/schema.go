package check

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/marketvet-labs/marketvet/internal/issue"
	"github.com/marketvet-labs/marketvet/internal/manifest"
)

// CatalogKey is the report key for findings about the catalog document
// itself, as opposed to findings attributable to a named plugin.
const CatalogKey = "marketplace"

var (
	// nameRE is the kebab-case grammar for plugin and catalog names.
	nameRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// spdxRE is the SPDX short-identifier grammar: letters, digits,
	// dots and hyphens, with an optional trailing "+" (e.g. GPL-2.0+).
	spdxRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.-]*\+?$`)
)

const (
	maxNameLen         = 64
	licenseProprietary = "Proprietary"
)

// ValidatePlugin checks every schema rule on a loaded plugin manifest and
// returns all violations found. It never halts on the first failure.
func ValidatePlugin(m *manifest.PluginManifest) []issue.Issue {
	var issues []issue.Issue
	subject := m.Path

	issues = append(issues, checkName(subject, "name", m.Name)...)

	switch {
	case m.Version == "":
		issues = append(issues, issue.Error(subject, "version", "missing required field: version"))
	default:
		issues = append(issues, checkVersion(subject, "version", m.Version)...)
	}

	if m.Description == "" {
		issues = append(issues, issue.Error(subject, "description", "missing required field: description"))
	}

	issues = append(issues, checkAuthor(subject, "author", m.Author)...)

	if m.License == nil {
		issues = append(issues, issue.Warning(subject, "license", "license not declared").
			WithFix(`add an SPDX identifier or "Proprietary"`))
	} else {
		issues = append(issues, checkLicense(subject, "license", *m.License)...)
	}

	if m.Repository != "" && !strings.HasPrefix(m.Repository, "http://") && !strings.HasPrefix(m.Repository, "https://") {
		issues = append(issues, issue.Warning(subject, "repository",
			fmt.Sprintf("repository %q should be an http(s) URL", m.Repository)))
	}

	return issues
}

// ValidateCatalog checks the catalog document's own schema rules. The
// relationships between catalog entries and plugin manifests are the
// Cross-Reference Checker's job.
func ValidateCatalog(c *manifest.CatalogManifest) []issue.Issue {
	var issues []issue.Issue
	subject := c.Path

	if c.Name == "" {
		issues = append(issues, issue.Error(subject, "name", "missing required field: name"))
	}

	switch {
	case c.Owner == nil:
		issues = append(issues, issue.Error(subject, "owner", "missing required field: owner"))
	case c.Owner.BareString:
		issues = append(issues, issue.Error(subject, "owner",
			fmt.Sprintf(`owner must be an object with a "name" field, not the string %q`, c.Owner.Name)).
			WithFix(fmt.Sprintf(`wrap in {"name": %q}`, c.Owner.Name)))
	case c.Owner.Name == "":
		issues = append(issues, issue.Error(subject, "owner", `owner object must have a non-empty "name" field`))
	}

	if c.Entries == nil {
		issues = append(issues, issue.Error(subject, "plugins", "missing required field: plugins"))
		return issues
	}

	for i, entry := range c.Entries {
		field := func(name string) string { return fmt.Sprintf("plugins[%d].%s", i, name) }

		if entry.Name == "" {
			issues = append(issues, issue.Error(subject, field("name"),
				fmt.Sprintf("catalog entry at plugins[%d] missing required field: name", i)))
		}
		if entry.SourcePath == "" {
			issues = append(issues, issue.Error(subject, field("source"),
				fmt.Sprintf("catalog entry at plugins[%d] missing required field: source", i)))
		}
		if entry.Version != "" {
			issues = append(issues, checkVersion(subject, field("version"), entry.Version)...)
		}
		if entry.Author != nil && entry.Author.BareString {
			issues = append(issues, issue.Error(subject, field("author"),
				fmt.Sprintf(`author must be an object with a "name" field, not the string %q`, entry.Author.Name)).
				WithFix(fmt.Sprintf(`wrap in {"name": %q}`, entry.Author.Name)))
		}
		if entry.License != nil {
			issues = append(issues, checkLicense(subject, field("license"), *entry.License)...)
		}
	}

	return issues
}

// checkName enforces the kebab-case naming grammar, length 1-64.
func checkName(subject, field, name string) []issue.Issue {
	if name == "" {
		return []issue.Issue{issue.Error(subject, field, "missing required field: name")}
	}
	if len(name) > maxNameLen || !nameRE.MatchString(name) {
		return []issue.Issue{issue.Error(subject, field,
			fmt.Sprintf("name %q must be kebab-case (lowercase letters, digits, single hyphens), at most %d characters", name, maxNameLen)).
			WithFix(`use a name like "my-plugin"`)}
	}
	return nil
}

// checkVersion enforces strict MAJOR.MINOR.PATCH semver: three numeric
// components, no leading zeros. Prerelease and build metadata are accepted.
func checkVersion(subject, field, version string) []issue.Issue {
	if _, err := semver.StrictNewVersion(version); err != nil {
		return []issue.Issue{issue.Error(subject, field,
			fmt.Sprintf("version %q must follow semantic versioning (MAJOR.MINOR.PATCH)", version))}
	}
	return nil
}

// checkAuthor enforces the structured-author rule. A bare string is the
// most common authoring mistake, so it gets an explicit fix suggestion.
// A manifest without any author is accepted.
func checkAuthor(subject, field string, a *manifest.Author) []issue.Issue {
	switch {
	case a == nil:
		return nil
	case a.BareString:
		return []issue.Issue{issue.Error(subject, field,
			fmt.Sprintf(`author must be an object with a "name" field, not the string %q`, a.Name)).
			WithFix(fmt.Sprintf(`wrap in {"name": %q}`, a.Name))}
	case a.Name == "":
		return []issue.Issue{issue.Error(subject, field, `author object must have a non-empty "name" field`)}
	}
	return nil
}

// checkLicense accepts a syntactically valid SPDX identifier or the
// literal "Proprietary". Anything else present is an error: a clearly
// wrong license is worse than a clearly absent one.
func checkLicense(subject, field, license string) []issue.Issue {
	if license == licenseProprietary || spdxRE.MatchString(license) {
		return nil
	}
	return []issue.Issue{issue.Error(subject, field,
		fmt.Sprintf(`license %q is not a valid SPDX identifier or "Proprietary"`, license))}
}
