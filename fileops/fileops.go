/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package fileops provides the file and version-control backends the review
// flow drives. The Local backend works against a real git working tree and
// supports a two-stage apply-then-commit review; the Remote backend speaks
// the GitHub git-data API and lands each change set as exactly one commit.
package fileops

import (
	"context"
	"errors"

	"chainguard.dev/prsmith/changes"
)

// ErrUnsupported is returned when a Local-only operation is invoked on a
// backend that does not support local review. Reaching it indicates a wiring
// bug: callers are expected to consult SupportsLocalReview first.
var ErrUnsupported = errors.New("operation not supported by this backend")

// PullRequestSpec describes the pull request to open once a change set has
// landed on its branch.
type PullRequestSpec struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// PullRequest is the created pull request.
type PullRequest struct {
	URL    string
	Number int
}

// StagedChange is one applied file change together with its captured
// pre-image, used to restore the working tree on discard. The pre-image
// lives on the change record itself rather than in a side map.
type StagedChange struct {
	Change   changes.FileChange
	PreImage string
	// Existed reports whether the path existed before the change was staged.
	// Newly created paths are deleted on discard instead of rewritten.
	Existed bool
}

// Adapter is the uniform capability set over both backends. The last four
// operations are only available when SupportsLocalReview reports true;
// invoking them on a remote backend fails with ErrUnsupported.
type Adapter interface {
	// ListFiles returns all file paths in the target tree, relative to root.
	ListFiles(ctx context.Context) ([]string, error)

	// ReadFile returns the content of a file in the target tree.
	ReadFile(ctx context.Context, path string) (string, error)

	// PRTemplate returns the repository's pull request template, or an empty
	// string when none exists.
	PRTemplate(ctx context.Context) (string, error)

	// CheckReady reports whether the backend is ready to receive changes.
	// The local backend requires a clean working tree.
	CheckReady(ctx context.Context) error

	// CreateBranch creates a branch at the current tip of the base ref.
	CreateBranch(ctx context.Context, name string) error

	// ApplyAndCommit lands the change set on the named branch as a single
	// commit, pushing or updating the remote ref.
	ApplyAndCommit(ctx context.Context, branch string, cs *changes.ChangeSet) error

	// CreatePullRequest opens a pull request for a pushed branch.
	CreatePullRequest(ctx context.Context, spec PullRequestSpec) (*PullRequest, error)

	// SupportsLocalReview reports whether the apply/discard/commit-and-push
	// staging operations are available.
	SupportsLocalReview() bool

	// ApplyLocally stages the change set onto the working tree without
	// committing, capturing a pre-image per path. Local backends only.
	ApplyLocally(ctx context.Context, cs *changes.ChangeSet) error

	// Discard restores every staged path from its captured pre-image and
	// clears the staged records. Local backends only.
	Discard(ctx context.Context) error

	// CommitAndPush commits content already staged by ApplyLocally onto the
	// named branch and pushes it. Local backends only.
	CommitAndPush(ctx context.Context, branch, message string) error

	// Staged returns the currently staged change records, or nil when
	// nothing is staged. Local backends only.
	Staged() []StagedChange
}
