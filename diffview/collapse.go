/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package diffview

// Collapse reduces a full diff to the lines within window lines of any
// changed line, replacing each elided run of unchanged lines with a single
// Separator line carrying the count. Adjacent and overlapping windows merge
// into one contiguous shown region. Add and Remove lines are never elided.
func Collapse(lines []Line, window int) []Line {
	if len(lines) == 0 {
		return nil
	}

	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Kind != Add && l.Kind != Remove {
			continue
		}
		lo := max(0, i-window)
		hi := min(len(lines)-1, i+window)
		for k := lo; k <= hi; k++ {
			keep[k] = true
		}
	}

	out := make([]Line, 0, len(lines))
	elided := 0
	flush := func() {
		if elided > 0 {
			out = append(out, Line{Kind: Separator, Elided: elided})
			elided = 0
		}
	}

	for i, l := range lines {
		if keep[i] {
			flush()
			out = append(out, l)
		} else {
			elided++
		}
	}
	flush()

	return out
}
