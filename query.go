package main

import (
	"fmt"
	"sort"
	"strings"

	semver "github.com/blang/semver/v4"
	"go.uber.org/zap"
)

// WithDefaults fills the unset OS and Arch from defaults. Variant needs no defaulting since its
// zero value is the default build, and an unset Version matches every version.
func (q Query) WithDefaults(defaults Query) Query {
	if q.OS == "" {
		q.OS = defaults.OS
	}
	if q.Arch == "" {
		q.Arch = defaults.Arch
	}
	return q
}

// String renders the query for log lines and error messages, e.g. {arch: x86_64, os: linux, variant: }.
func (q Query) String() string {
	parts := []string{
		"arch: " + q.Arch,
		"os: " + q.OS,
		"variant: " + q.Variant,
	}
	if q.Version != "" {
		parts = append(parts, "version: "+q.Version)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseVersionRange parses an exact version or a range expression. On top of what
// blang/semver understands natively (comparison operators, x wildcards, || and conjunctions),
// caret and tilde comparators are accepted and expanded into plain bounds.
func ParseVersionRange(expr string) (semver.Range, error) {
	expanded, err := expandVersionRange(expr)
	if err != nil {
		return nil, err
	}
	r, err := semver.ParseRange(expanded)
	if err != nil {
		return nil, fmt.Errorf("invalid version range %q: %w", expr, err)
	}
	return r, nil
}

func expandVersionRange(expr string) (string, error) {
	alternatives := strings.Split(expr, "||")
	for i, alt := range alternatives {
		fields := strings.Fields(alt)
		for j, f := range fields {
			var err error
			switch {
			case strings.HasPrefix(f, "^"):
				fields[j], err = expandCaret(strings.TrimPrefix(f, "^"))
			case strings.HasPrefix(f, "~") && !strings.HasPrefix(f, "~>"):
				fields[j], err = expandTilde(strings.TrimPrefix(f, "~"))
			}
			if err != nil {
				return "", fmt.Errorf("invalid version range %q: %w", expr, err)
			}
		}
		alternatives[i] = strings.Join(fields, " ")
	}
	return strings.Join(alternatives, " || "), nil
}

// parsePartialVersion parses a version that may leave out trailing components or give them as
// x, X or *. It returns the version with the missing components zeroed and how many were given.
func parsePartialVersion(v string) (semver.Version, int, error) {
	parts := strings.SplitN(strings.TrimLeft(v, "v="), ".", 3)
	given := 0
	for _, p := range parts {
		if p == "" || p == "x" || p == "X" || p == "*" {
			break
		}
		given++
	}
	if given == 0 {
		return semver.Version{}, 0, fmt.Errorf("%q has no major version", v)
	}
	if given == 3 {
		version, err := semver.ParseTolerant(v)
		return version, given, err
	}
	padded := append(parts[:given:given], "0", "0", "0")
	version, err := semver.Parse(strings.Join(padded[:3], "."))
	return version, given, err
}

// ^1.2.3 := >=1.2.3 <2.0.0, ^0.2.3 := >=0.2.3 <0.3.0, ^0.0.3 := >=0.0.3 <0.0.4
// ^1.x := >=1.0.0 <2.0.0, ^0.x := >=0.0.0 <1.0.0, ^0.0 := >=0.0.0 <0.1.0
func expandCaret(v string) (string, error) {
	lower, given, err := parsePartialVersion(v)
	if err != nil {
		return "", err
	}
	var upper semver.Version
	switch {
	case given == 1 || lower.Major > 0:
		upper = semver.Version{Major: lower.Major + 1}
	case given == 2 || lower.Minor > 0:
		upper = semver.Version{Major: lower.Major, Minor: lower.Minor + 1}
	default:
		upper = semver.Version{Major: lower.Major, Minor: lower.Minor, Patch: lower.Patch + 1}
	}
	return fmt.Sprintf(">=%s <%s", lower, upper), nil
}

// ~1.2.3 := >=1.2.3 <1.3.0, ~1.2 := >=1.2.0 <1.3.0, ~1 := >=1.0.0 <2.0.0
func expandTilde(v string) (string, error) {
	lower, given, err := parsePartialVersion(v)
	if err != nil {
		return "", err
	}
	var upper semver.Version
	if given == 1 {
		upper = semver.Version{Major: lower.Major + 1}
	} else {
		upper = semver.Version{Major: lower.Major, Minor: lower.Minor + 1}
	}
	return fmt.Sprintf(">=%s <%s", lower, upper), nil
}

type rankedEntry struct {
	entry   CatalogEntry
	version semver.Version
}

// Rank returns the entries of catalog named name that satisfy query, highest version first.
// query is expected to be fully defaulted already. Entries with equal versions keep their
// catalog order.
func Rank(catalog *Catalog, name string, query Query, sugar *zap.SugaredLogger) ([]CatalogEntry, error) {
	sugar.Debugf("looking for %s binary matching %s", name, query)

	var versionRange semver.Range
	if query.Version != "" {
		var err error
		versionRange, err = ParseVersionRange(query.Version)
		if err != nil {
			return nil, err
		}
	}
	arch := NormalizeArch(query.Arch)

	var matches []rankedEntry
	for _, entry := range catalog.Entries {
		if entry.Name != name {
			continue
		}
		if entry.Variant != query.Variant || entry.OS != query.OS || entry.Arch != arch {
			continue
		}
		version, err := semver.ParseTolerant(entry.Version)
		if err != nil {
			sugar.Debugf("skipping %s, cannot parse version %s as semver: %v", entry.Filename, entry.Version, err)
			continue
		}
		if versionRange != nil && !versionRange(version) {
			continue
		}
		matches = append(matches, rankedEntry{entry: entry, version: version})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].version.GT(matches[j].version)
	})

	retval := make([]CatalogEntry, 0, len(matches))
	for _, m := range matches {
		retval = append(retval, m.entry)
	}
	return retval, nil
}
