/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changes

import (
	"strings"
	"testing"
)

func TestLineCount(t *testing.T) {
	tests := []struct {
		name string
		fc   FileChange
		want int
	}{{
		name: "single line",
		fc:   FileChange{Op: OpCreate, Content: "hello"},
		want: 1,
	}, {
		name: "multiple lines",
		fc:   FileChange{Op: OpModify, Content: "a\nb\nc"},
		want: 3,
	}, {
		name: "trailing newline counts a final empty line",
		fc:   FileChange{Op: OpCreate, Content: "a\nb\n"},
		want: 3,
	}, {
		name: "delete counts zero regardless of content",
		fc:   FileChange{Op: OpDelete, Content: "a\nb\nc"},
		want: 0,
	}, {
		name: "empty content counts zero",
		fc:   FileChange{Op: OpModify, Content: ""},
		want: 0,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fc.LineCount(); got != tt.want {
				t.Errorf("LineCount() = %d, wanted = %d", got, tt.want)
			}
		})
	}
}

func TestTotalLines(t *testing.T) {
	cs := &ChangeSet{Changes: []FileChange{
		{Path: "a.go", Op: OpCreate, Content: "a\nb"},
		{Path: "b.go", Op: OpModify, Content: "x\ny\nz"},
		{Path: "c.go", Op: OpDelete},
	}}
	if got := cs.TotalLines(); got != 5 {
		t.Errorf("TotalLines() = %d, wanted = 5", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *ChangeSet {
		return &ChangeSet{
			Changes: []FileChange{
				{Path: "main.go", Op: OpModify, Content: "package main"},
				{Path: "old.go", Op: OpDelete},
			},
			Explanation:   "e",
			BranchName:    "b",
			CommitMessage: "c",
			PRTitle:       "t",
			PRBody:        "b",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ChangeSet)
		wantErr string
	}{{
		name:   "valid change set",
		mutate: func(*ChangeSet) {},
	}, {
		name:    "no changes",
		mutate:  func(cs *ChangeSet) { cs.Changes = nil },
		wantErr: "no changes",
	}, {
		name:    "missing path",
		mutate:  func(cs *ChangeSet) { cs.Changes[0].Path = "" },
		wantErr: "missing path",
	}, {
		name:    "duplicate path",
		mutate:  func(cs *ChangeSet) { cs.Changes[1].Path = "main.go" },
		wantErr: "duplicate path",
	}, {
		name:    "create without content",
		mutate:  func(cs *ChangeSet) { cs.Changes[0].Op = OpCreate; cs.Changes[0].Content = "" },
		wantErr: "requires content",
	}, {
		name:    "modify without content",
		mutate:  func(cs *ChangeSet) { cs.Changes[0].Content = "" },
		wantErr: "requires content",
	}, {
		name: "create with explicitly empty content is fine",
		mutate: func(cs *ChangeSet) {
			cs.Changes[0].Op = OpCreate
			cs.Changes[0].Content = ""
			cs.Changes[0].ContentSet = true
		},
	}, {
		name: "modify with explicitly empty content is fine",
		mutate: func(cs *ChangeSet) {
			cs.Changes[0].Content = ""
			cs.Changes[0].ContentSet = true
		},
	}, {
		name:    "unknown operation",
		mutate:  func(cs *ChangeSet) { cs.Changes[0].Op = "rename" },
		wantErr: "unknown operation",
	}, {
		name:   "delete without content is fine",
		mutate: func(cs *ChangeSet) { cs.Changes[1].Content = "" },
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := valid()
			tt.mutate(cs)

			err := cs.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, wanted = nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, wanted an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, wanted error containing %q", err, tt.wantErr)
			}
		})
	}
}
