/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package diffview

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want []Line
	}{{
		name: "single line substitution",
		old:  "x\nold\nz",
		new:  "x\nnew\nz",
		want: []Line{
			{Kind: Context, Text: "x"},
			{Kind: Remove, Text: "old"},
			{Kind: Add, Text: "new"},
			{Kind: Context, Text: "z"},
		},
	}, {
		name: "identical inputs are all context",
		old:  "a\nb\nc",
		new:  "a\nb\nc",
		want: []Line{
			{Kind: Context, Text: "a"},
			{Kind: Context, Text: "b"},
			{Kind: Context, Text: "c"},
		},
	}, {
		name: "empty old side is all additions",
		old:  "",
		new:  "a\nb",
		want: []Line{
			{Kind: Add, Text: "a"},
			{Kind: Add, Text: "b"},
		},
	}, {
		name: "empty new side is all removals",
		old:  "a\nb",
		new:  "",
		want: []Line{
			{Kind: Remove, Text: "a"},
			{Kind: Remove, Text: "b"},
		},
	}, {
		name: "both sides empty",
		old:  "",
		new:  "",
		want: nil,
	}, {
		name: "pure insertion",
		old:  "a\nc",
		new:  "a\nb\nc",
		want: []Line{
			{Kind: Context, Text: "a"},
			{Kind: Add, Text: "b"},
			{Kind: Context, Text: "c"},
		},
	}, {
		name: "pure deletion",
		old:  "a\nb\nc",
		new:  "a\nc",
		want: []Line{
			{Kind: Context, Text: "a"},
			{Kind: Remove, Text: "b"},
			{Kind: Context, Text: "c"},
		},
	}, {
		name: "removals come before additions at the same anchor",
		old:  "a\nb\nc\nd",
		new:  "a\nx\ny\nd",
		want: []Line{
			{Kind: Context, Text: "a"},
			{Kind: Remove, Text: "b"},
			{Kind: Remove, Text: "c"},
			{Kind: Add, Text: "x"},
			{Kind: Add, Text: "y"},
			{Kind: Context, Text: "d"},
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestDiffReplay verifies that replaying the edit script reconstructs both
// sides: context plus additions yield the new text, context plus removals
// yield the old text.
func TestDiffReplay(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{{
		name: "interleaved changes",
		old:  "package main\n\nfunc main() {\n\tprintln(1)\n}",
		new:  "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(1)\n}",
	}, {
		name: "disjoint edits far apart",
		old:  "a\nb\nc\nd\ne\nf\ng",
		new:  "a\nB\nc\nd\ne\nf\nG",
	}, {
		name: "complete rewrite",
		old:  "one\ntwo",
		new:  "three\nfour\nfive",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Diff(tt.old, tt.new)

			var oldSide, newSide []string
			for _, l := range lines {
				switch l.Kind {
				case Context:
					oldSide = append(oldSide, l.Text)
					newSide = append(newSide, l.Text)
				case Remove:
					oldSide = append(oldSide, l.Text)
				case Add:
					newSide = append(newSide, l.Text)
				}
			}

			if got := strings.Join(oldSide, "\n"); got != tt.old {
				t.Errorf("old side replay: got = %q, wanted = %q", got, tt.old)
			}
			if got := strings.Join(newSide, "\n"); got != tt.new {
				t.Errorf("new side replay: got = %q, wanted = %q", got, tt.new)
			}
		})
	}
}

func TestHasChanges(t *testing.T) {
	if HasChanges(Diff("same\ntext", "same\ntext")) {
		t.Error("HasChanges() = true for identical inputs, wanted = false")
	}
	if !HasChanges(Diff("a", "b")) {
		t.Error("HasChanges() = false for differing inputs, wanted = true")
	}
	if HasChanges(nil) {
		t.Error("HasChanges(nil) = true, wanted = false")
	}
}
