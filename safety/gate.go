/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package safety validates a change set against configurable limits and
// forbidden or sensitive path patterns before anything touches disk or git
// history. Every rule is evaluated independently; a verdict lists all
// violations at once.
package safety

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"chainguard.dev/prsmith/changes"
)

// Limits are the numeric thresholds a change set is checked against.
type Limits struct {
	MaxFilesToChange int
	MaxLinesChanged  int
}

// Overrides downgrade specific limit errors to warnings. Validation errors
// (forbidden filenames, path traversal, absolute paths) are never
// overridable.
type Overrides struct {
	AllowLargeDiff    bool
	AllowMissingTests bool
}

// Verdict is the outcome of evaluating a change set. Passed is true iff no
// error was produced; warnings never affect Passed.
type Verdict struct {
	Passed   bool
	Errors   []string
	Warnings []string
}

// forbiddenBasenames are the tool's own persisted-configuration files. A
// generated change may never target them, overrides notwithstanding, since
// they are where operators keep secrets.
var forbiddenBasenames = map[string]struct{}{
	".env":          {},
	".env.local":    {},
	".prsmith.yaml": {},
	".prsmith.yml":  {},
}

// sensitiveExtensions flag key material by file extension.
var sensitiveExtensions = map[string]struct{}{
	".pem": {},
	".key": {},
	".p12": {},
	".pfx": {},
}

// Evaluate checks the change set against all safety rules. repoFiles is the
// full file listing of the target tree, used to pin each operation to the
// tree's actual state and for the test-coverage advisory.
func Evaluate(cs *changes.ChangeSet, repoFiles []string, limits Limits, overrides Overrides) Verdict {
	var v Verdict

	inTree := make(map[string]struct{}, len(repoFiles))
	for _, f := range repoFiles {
		inTree[f] = struct{}{}
	}

	// Rule 1: file-count limit.
	if limits.MaxFilesToChange > 0 && len(cs.Changes) > limits.MaxFilesToChange {
		msg := fmt.Sprintf("change set touches %d files, limit is %d", len(cs.Changes), limits.MaxFilesToChange)
		if overrides.AllowLargeDiff {
			v.Warnings = append(v.Warnings, msg+" (allowed by override)")
		} else {
			v.Errors = append(v.Errors, msg)
		}
	}

	// Rule 2: line-count limit.
	if total := cs.TotalLines(); limits.MaxLinesChanged > 0 && total > limits.MaxLinesChanged {
		msg := fmt.Sprintf("change set adds %d lines, limit is %d", total, limits.MaxLinesChanged)
		if overrides.AllowLargeDiff {
			v.Warnings = append(v.Warnings, msg+" (allowed by override)")
		} else {
			v.Errors = append(v.Errors, msg)
		}
	}

	for _, fc := range cs.Changes {
		base := path.Base(filepath.ToSlash(fc.Path))

		// Rule 3: forbidden filenames, never overridable.
		if _, forbidden := forbiddenBasenames[base]; forbidden {
			v.Errors = append(v.Errors, fmt.Sprintf("%s: refusing to modify tool configuration file", fc.Path))
		}

		// Rule 4: path traversal.
		if hasTraversal(fc.Path) {
			v.Errors = append(v.Errors, fmt.Sprintf("%s: path traversal is not allowed", fc.Path))
		}

		// Rule 5: absolute paths.
		if isAbsolute(fc.Path) {
			v.Errors = append(v.Errors, fmt.Sprintf("%s: absolute paths are not allowed", fc.Path))
		}

		// Rule 6: sensitive-looking filenames, advisory only.
		if isSensitiveName(base) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("%s: filename looks like it may contain secrets, review carefully", fc.Path))
		}

		// Rule 7: operations must match tree existence, never overridable. A
		// create of an existing path would silently overwrite it, and a
		// modify or delete of a missing path signals the collaborator worked
		// from a stale view of the tree.
		switch fc.Op {
		case changes.OpCreate:
			if _, exists := inTree[fc.Path]; exists {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: create targets a path that already exists", fc.Path))
			}
		case changes.OpModify, changes.OpDelete:
			if _, exists := inTree[fc.Path]; !exists {
				v.Errors = append(v.Errors, fmt.Sprintf("%s: %s references a path that does not exist", fc.Path, fc.Op))
			}
		}
	}

	// Rule 8: test-coverage advisory.
	if warn := missingTestsWarning(cs, repoFiles, overrides); warn != "" {
		v.Warnings = append(v.Warnings, warn)
	}

	v.Passed = len(v.Errors) == 0
	return v
}

func hasTraversal(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// isAbsolute catches rooted paths on any platform. The drive check requires a
// separator after the colon so relative names like "a:b.txt" stay legal.
func isAbsolute(p string) bool {
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) {
		return true
	}
	if len(p) > 2 && p[1] == ':' && (p[2] == '/' || p[2] == '\\') {
		c := p[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

func isSensitiveName(base string) bool {
	lower := strings.ToLower(base)
	for _, pattern := range []string{"secret", "credential", "password", "private_key", "apikey", "api_key"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	if _, ok := sensitiveExtensions[strings.ToLower(path.Ext(base))]; ok {
		return true
	}
	return strings.HasPrefix(lower, "id_rsa") || strings.HasPrefix(lower, "id_ed25519")
}

// missingTestsWarning emits one warning when the repository is known to
// contain tests, the change set touches behavioral files, and no test file is
// changed. Documentation, configuration, and lockfiles do not count as
// behavioral.
func missingTestsWarning(cs *changes.ChangeSet, repoFiles []string, overrides Overrides) string {
	if overrides.AllowMissingTests {
		return ""
	}

	repoHasTests := false
	for _, f := range repoFiles {
		if isTestFile(f) {
			repoHasTests = true
			break
		}
	}
	if !repoHasTests {
		return ""
	}

	touchesBehavioral := false
	for _, fc := range cs.Changes {
		if isTestFile(fc.Path) {
			return "" // Change set already includes test changes.
		}
		if isBehavioralFile(fc.Path) {
			touchesBehavioral = true
		}
	}

	if touchesBehavioral {
		return "change set modifies behavioral files but includes no test changes"
	}
	return ""
}

func isTestFile(p string) bool {
	slash := filepath.ToSlash(p)
	base := strings.ToLower(path.Base(slash))

	if strings.Contains(base, "_test.") || strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	if strings.HasPrefix(base, "test_") {
		return true
	}
	for _, dir := range []string{"test/", "tests/", "__tests__/"} {
		if strings.HasPrefix(slash, dir) || strings.Contains(slash, "/"+dir) {
			return true
		}
	}
	return false
}

// nonBehavioralExtensions are documentation and configuration formats that do
// not warrant test coverage on their own.
var nonBehavioralExtensions = map[string]struct{}{
	".md":   {},
	".txt":  {},
	".rst":  {},
	".yaml": {},
	".yml":  {},
	".toml": {},
	".json": {},
	".ini":  {},
	".cfg":  {},
	".lock": {},
}

func isBehavioralFile(p string) bool {
	base := strings.ToLower(path.Base(filepath.ToSlash(p)))
	if base == "go.sum" || base == "go.mod" || base == "license" || base == ".gitignore" {
		return false
	}
	if strings.HasSuffix(base, ".lock") || strings.HasSuffix(base, "-lock.json") {
		return false
	}
	if _, ok := nonBehavioralExtensions[path.Ext(base)]; ok {
		return false
	}
	return true
}
