/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op identifies what a FileChange does to its target path.
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// FileChange is a single proposed file operation within a ChangeSet.
type FileChange struct {
	// Path is the file path relative to the repository root.
	Path string `json:"path" jsonschema:"required,description=File path relative to the repository root"`

	// Op is one of create, modify, or delete.
	Op Op `json:"operation" jsonschema:"required,enum=create,enum=modify,enum=delete,description=The operation to perform on the file"`

	// Content is the complete new file content. Required unless Op is delete.
	Content string `json:"content,omitempty" jsonschema:"description=The complete new content of the file (omit for delete)"`

	// OriginalContent optionally carries the content the change was computed
	// against, used for diff previews without re-reading the tree.
	OriginalContent string `json:"originalContent,omitempty" jsonschema:"description=The original content the change was based on"`

	// ContentSet records whether the payload carried a content key at all,
	// distinguishing an intentionally empty file from omitted content.
	ContentSet bool `json:"-"`
}

// UnmarshalJSON decodes a file change and notes content-key presence, so an
// explicit empty string survives validation.
func (fc *FileChange) UnmarshalJSON(data []byte) error {
	type plain FileChange
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, p.ContentSet = keys["content"]

	*fc = FileChange(p)
	return nil
}

// LineCount returns the number of lines in the proposed content.
// Delete operations count as zero.
func (fc FileChange) LineCount() int {
	if fc.Op == OpDelete || fc.Content == "" {
		return 0
	}
	return strings.Count(fc.Content, "\n") + 1
}

// ChangeSet is the full proposed edit produced by the generative
// collaborator: ordered file changes plus branch, commit, and PR metadata.
type ChangeSet struct {
	Changes       []FileChange `json:"changes" jsonschema:"required,description=The ordered list of file changes"`
	Explanation   string       `json:"explanation" jsonschema:"required,description=A human-readable explanation of the change set"`
	BranchName    string       `json:"branchName" jsonschema:"required,description=The git branch name to create"`
	CommitMessage string       `json:"commitMessage" jsonschema:"required,description=The commit message"`
	PRTitle       string       `json:"prTitle" jsonschema:"required,description=The pull request title"`
	PRBody        string       `json:"prBody" jsonschema:"required,description=The pull request body"`
}

// TotalLines sums the proposed line counts across all non-delete changes.
func (cs *ChangeSet) TotalLines() int {
	total := 0
	for _, fc := range cs.Changes {
		total += fc.LineCount()
	}
	return total
}

// Validate checks the structural invariants of a change set: changes must be
// non-empty, paths unique, every change needs a path and a known operation,
// and every non-delete change needs content.
func (cs *ChangeSet) Validate() error {
	if len(cs.Changes) == 0 {
		return fmt.Errorf("change set contains no changes")
	}

	seen := make(map[string]struct{}, len(cs.Changes))
	for i, fc := range cs.Changes {
		if fc.Path == "" {
			return fmt.Errorf("change %d: missing path", i)
		}
		if _, dup := seen[fc.Path]; dup {
			return fmt.Errorf("change %d: duplicate path %q", i, fc.Path)
		}
		seen[fc.Path] = struct{}{}

		switch fc.Op {
		case OpCreate, OpModify:
			if fc.Content == "" && !fc.ContentSet {
				return fmt.Errorf("change %d (%s): %s requires content", i, fc.Path, fc.Op)
			}
		case OpDelete:
			// Content is ignored for deletes.
		default:
			return fmt.Errorf("change %d (%s): unknown operation %q", i, fc.Path, fc.Op)
		}
	}

	return nil
}
