/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package diffview computes and renders line-level diffs between two text
// bodies. The diff is based on the longest common subsequence of the line
// sequences, computed with the classic O(m*n) dynamic-programming table.
// It is intended for source-file-sized inputs, not whole-repository diffing.
package diffview

import "strings"

// Kind classifies a diff line.
type Kind int

const (
	Context Kind = iota
	Add
	Remove
	// Separator marks a run of elided unchanged lines in a collapsed diff.
	Separator
)

// Line is one element of a rendered diff.
type Line struct {
	Kind Kind
	Text string
	// Elided is the number of unchanged lines this separator stands in for.
	// Only set when Kind is Separator.
	Elided int
}

// Diff computes a minimal line-level edit script between oldText and newText.
// When a removal and an insertion meet at the same anchor, the removal is
// emitted first.
func Diff(oldText, newText string) []Line {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	m, n := len(oldLines), len(newLines)

	// LCS length table: lcs[i][j] is the LCS length of oldLines[:i] and
	// newLines[:j].
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				lcs[i][j] = lcs[i-1][j-1] + 1
			} else {
				lcs[i][j] = max(lcs[i-1][j], lcs[i][j-1])
			}
		}
	}

	// Backtrack from the bottom-right cell. The walk emits lines in reverse,
	// so preferring the insertion branch here yields removals before
	// insertions once the result is flipped.
	var out []Line
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLines[i-1] == newLines[j-1]:
			out = append(out, Line{Kind: Context, Text: oldLines[i-1]})
			i--
			j--
		case j > 0 && (i == 0 || lcs[i][j-1] >= lcs[i-1][j]):
			out = append(out, Line{Kind: Add, Text: newLines[j-1]})
			j--
		default:
			out = append(out, Line{Kind: Remove, Text: oldLines[i-1]})
			i--
		}
	}

	for a, b := 0, len(out)-1; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// HasChanges reports whether the diff contains any add or remove lines.
func HasChanges(lines []Line) bool {
	for _, l := range lines {
		if l.Kind == Add || l.Kind == Remove {
			return true
		}
	}
	return false
}

// splitLines splits text into lines. Empty text yields no lines so that an
// empty old side renders the new side entirely as additions (and vice versa).
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
