/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package fileops

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/prsmith/changes"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// excludedTreePrefixes are build and VCS directories omitted from remote
// file listings.
var excludedTreePrefixes = []string{
	".git/",
	"vendor/",
	"node_modules/",
	"dist/",
	"build/",
	"target/",
}

// Remote operates purely through the GitHub API against a base branch,
// without any local clone. Change sets land as exactly one commit: blobs and
// a tree are created first, then a single commit, then a fast-forward ref
// update, so a failure partway leaves the branch ref unmoved.
type Remote struct {
	gh       *github.Client
	owner    string
	repoName string
	base     string
}

var _ Adapter = (*Remote)(nil)

// NewRemote constructs a Remote adapter targeting the given base branch.
func NewRemote(gh *github.Client, owner, repoName, base string) *Remote {
	return &Remote{gh: gh, owner: owner, repoName: repoName, base: base}
}

// ListFiles walks the base branch's root tree recursively, filtered to blobs
// and excluding standard build and VCS directories.
func (r *Remote) ListFiles(ctx context.Context) ([]string, error) {
	sha, err := r.baseSHA(ctx)
	if err != nil {
		return nil, err
	}

	commit, _, err := r.gh.Git.GetCommit(ctx, r.owner, r.repoName, sha)
	if err != nil {
		return nil, fmt.Errorf("getting commit %s: %w", sha, err)
	}

	tree, _, err := r.gh.Git.GetTree(ctx, r.owner, r.repoName, commit.GetTree().GetSHA(), true)
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if excludedTreePath(entry.GetPath()) {
			continue
		}
		paths = append(paths, entry.GetPath())
	}

	if tree.GetTruncated() {
		clog.FromContext(ctx).Warnf("Tree listing for %s/%s was truncated by the API", r.owner, r.repoName)
	}

	return paths, nil
}

func excludedTreePath(p string) bool {
	for _, prefix := range excludedTreePrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// ReadFile fetches file content from the base branch.
func (r *Remote) ReadFile(ctx context.Context, path string) (string, error) {
	fc, _, _, err := r.gh.Repositories.GetContents(ctx, r.owner, r.repoName, path, &github.RepositoryContentGetOptions{
		Ref: r.base,
	})
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if fc == nil {
		return "", fmt.Errorf("reading %s: path is a directory", path)
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

// PRTemplate looks for a pull request template in the conventional locations.
func (r *Remote) PRTemplate(ctx context.Context) (string, error) {
	return findPRTemplate(ctx, r)
}

// CheckReady always reports ready: there is no working tree to dirty.
func (r *Remote) CheckReady(context.Context) error { return nil }

// CreateBranch points a new ref at the base branch's current commit SHA.
func (r *Remote) CreateBranch(ctx context.Context, name string) error {
	sha, err := r.baseSHA(ctx)
	if err != nil {
		return err
	}

	_, _, err = r.gh.Git.CreateRef(ctx, r.owner, r.repoName, github.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: sha,
	})
	if err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}

	clog.FromContext(ctx).Infof("Created branch %s at %s", name, sha)
	return nil
}

// ApplyAndCommit lands the change set on the branch as one atomic commit:
// a blob per non-delete file, a new tree with those blobs (and null-SHA
// entries for deletions) layered over the branch tip's tree, one commit with
// the tip as sole parent, then a fast-forward ref update.
func (r *Remote) ApplyAndCommit(ctx context.Context, branch string, cs *changes.ChangeSet) error {
	log := clog.FromContext(ctx)

	ref, _, err := r.gh.Git.GetRef(ctx, r.owner, r.repoName, "refs/heads/"+branch)
	if err != nil {
		return fmt.Errorf("getting branch ref %s: %w", branch, err)
	}
	tipSHA := ref.GetObject().GetSHA()

	tipCommit, _, err := r.gh.Git.GetCommit(ctx, r.owner, r.repoName, tipSHA)
	if err != nil {
		return fmt.Errorf("getting tip commit: %w", err)
	}

	entries := make([]*github.TreeEntry, 0, len(cs.Changes))
	for _, fc := range cs.Changes {
		if fc.Op == changes.OpDelete {
			// A nil SHA marks the entry for deletion in the new tree.
			entries = append(entries, &github.TreeEntry{
				Path: github.Ptr(fc.Path),
				Mode: github.Ptr("100644"),
				Type: github.Ptr("blob"),
			})
			continue
		}

		blob, _, err := r.gh.Git.CreateBlob(ctx, r.owner, r.repoName, github.Blob{
			Content:  github.Ptr(fc.Content),
			Encoding: github.Ptr("utf-8"),
		})
		if err != nil {
			return fmt.Errorf("creating blob for %s: %w", fc.Path, err)
		}

		entries = append(entries, &github.TreeEntry{
			Path: github.Ptr(fc.Path),
			Mode: github.Ptr("100644"),
			Type: github.Ptr("blob"),
			SHA:  blob.SHA,
		})
	}

	tree, _, err := r.gh.Git.CreateTree(ctx, r.owner, r.repoName, tipCommit.GetTree().GetSHA(), entries)
	if err != nil {
		return fmt.Errorf("creating tree: %w", err)
	}

	commit, _, err := r.gh.Git.CreateCommit(ctx, r.owner, r.repoName, github.Commit{
		Message: github.Ptr(cs.CommitMessage),
		Tree:    tree,
		Parents: []*github.Commit{{SHA: github.Ptr(tipSHA)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("creating commit: %w", err)
	}

	if _, _, err := r.gh.Git.UpdateRef(ctx, r.owner, r.repoName, "refs/heads/"+branch, github.UpdateRef{
		SHA:   commit.GetSHA(),
		Force: github.Ptr(false),
	}); err != nil {
		return fmt.Errorf("updating branch ref: %w", err)
	}

	log.Infof("Committed %d changes to %s as %s", len(cs.Changes), branch, commit.GetSHA())
	return nil
}

// CreatePullRequest opens a pull request through the GitHub API.
func (r *Remote) CreatePullRequest(ctx context.Context, spec PullRequestSpec) (*PullRequest, error) {
	return createPullRequest(ctx, r.gh, r.owner, r.repoName, spec)
}

// SupportsLocalReview reports false: there is no working tree to stage onto.
func (r *Remote) SupportsLocalReview() bool { return false }

// ApplyLocally is unimplemented by contract on the remote backend.
func (r *Remote) ApplyLocally(context.Context, *changes.ChangeSet) error {
	return fmt.Errorf("%w: apply-locally requires the local backend", ErrUnsupported)
}

// Discard is unimplemented by contract on the remote backend.
func (r *Remote) Discard(context.Context) error {
	return fmt.Errorf("%w: discard requires the local backend", ErrUnsupported)
}

// CommitAndPush is unimplemented by contract on the remote backend.
func (r *Remote) CommitAndPush(context.Context, string, string) error {
	return fmt.Errorf("%w: commit-and-push requires the local backend", ErrUnsupported)
}

// Staged returns nil: the remote backend never stages.
func (r *Remote) Staged() []StagedChange { return nil }

func (r *Remote) baseSHA(ctx context.Context) (string, error) {
	ref, _, err := r.gh.Git.GetRef(ctx, r.owner, r.repoName, "refs/heads/"+r.base)
	if err != nil {
		return "", fmt.Errorf("getting base ref %s: %w", r.base, err)
	}
	return ref.GetObject().GetSHA(), nil
}
