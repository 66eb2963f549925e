/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package fileops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chainguard.dev/prsmith/changes"
	"github.com/chainguard-dev/clog"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// readinessIgnored are paths that never count against working-tree
// cleanliness: the tool's own persisted configuration and .gitignore itself.
var readinessIgnored = map[string]struct{}{
	".prsmith.yaml": {},
	".prsmith.yml":  {},
	".env":          {},
	".env.local":    {},
	".gitignore":    {},
}

// Local operates on a git working tree on disk. Pull requests are still
// opened through the GitHub API, but file reads, staging, commits, and
// pushes all happen against the local clone.
type Local struct {
	root     string
	repo     *git.Repository
	gh       *github.Client
	owner    string
	repoName string
	identity string
	tokens   oauth2.TokenSource

	staged []StagedChange
}

var _ Adapter = (*Local)(nil)

// NewLocal opens the git repository rooted at root.
func NewLocal(root, owner, repoName, identity string, gh *github.Client, tokens oauth2.TokenSource) (*Local, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	return &Local{
		root:     root,
		repo:     repo,
		gh:       gh,
		owner:    owner,
		repoName: repoName,
		identity: identity,
		tokens:   tokens,
	}, nil
}

// validatePath ensures path doesn't escape the working tree root.
func (l *Local) validatePath(path string) (string, error) {
	fullPath := filepath.Join(l.root, filepath.Clean(path))
	rel, err := filepath.Rel(l.root, fullPath)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes working tree", path)
	}
	return fullPath, nil
}

// ListFiles lists the files tracked at HEAD.
func (l *Local) ListFiles(_ context.Context) ([]string, error) {
	head, err := l.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	commit, err := l.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	var paths []string
	if err := tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("walking tree: %w", err)
	}

	return paths, nil
}

// ReadFile reads a file from the working tree.
func (l *Local) ReadFile(_ context.Context, path string) (string, error) {
	fullPath, err := l.validatePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PRTemplate looks for a pull request template in the conventional locations.
func (l *Local) PRTemplate(ctx context.Context) (string, error) {
	return findPRTemplate(ctx, l)
}

// CheckReady reports not-ready unless the working tree is clean, ignoring
// the tool's own configuration files when computing cleanliness.
func (l *Local) CheckReady(_ context.Context) error {
	wt, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("getting worktree status: %w", err)
	}

	var dirty []string
	for path, st := range status {
		if _, ignored := readinessIgnored[path]; ignored {
			continue
		}
		if st.Worktree != git.Unmodified || st.Staging != git.Unmodified {
			dirty = append(dirty, path)
		}
	}

	if len(dirty) > 0 {
		return fmt.Errorf("working tree is not clean (%s)", strings.Join(dirty, ", "))
	}
	return nil
}

// CreateBranch creates a branch at HEAD and checks it out, keeping any
// content already staged on the working tree.
func (l *Local) CreateBranch(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("branch name cannot be empty")
	}

	head, err := l.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(name)
	branchRef := plumbing.NewHashReference(refName, head.Hash())
	if err := l.repo.Storer.SetReference(branchRef); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}

	wt, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: refName, Keep: true}); err != nil {
		return fmt.Errorf("checking out branch %s: %w", name, err)
	}

	clog.FromContext(ctx).Infof("Created branch %s at %s", name, head.Hash())
	return nil
}

// ApplyLocally writes the change set onto the working tree without
// committing, capturing a pre-image per path so the changes can be
// discarded. A write failure is fatal since the tree may be left partially
// modified.
func (l *Local) ApplyLocally(ctx context.Context, cs *changes.ChangeSet) error {
	log := clog.FromContext(ctx)

	for _, fc := range cs.Changes {
		fullPath, err := l.validatePath(fc.Path)
		if err != nil {
			return err
		}

		record := StagedChange{Change: fc}
		if data, err := os.ReadFile(fullPath); err == nil {
			record.PreImage = string(data)
			record.Existed = true
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("snapshotting %s: %w", fc.Path, err)
		}
		l.staged = append(l.staged, record)

		switch fc.Op {
		case changes.OpDelete:
			if err := os.Remove(fullPath); err != nil {
				return fmt.Errorf("deleting %s: %w", fc.Path, err)
			}
			log.Infof("Deleted %s", fc.Path)
		default:
			if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
				return fmt.Errorf("creating directories for %s: %w", fc.Path, err)
			}
			if err := os.WriteFile(fullPath, []byte(fc.Content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", fc.Path, err)
			}
			log.Infof("Wrote %s (%d bytes)", fc.Path, len(fc.Content))
		}
	}

	return nil
}

// Discard restores every staged path from its captured pre-image: newly
// created paths are deleted, everything else is rewritten byte-exact.
// Individual removal failures are swallowed (a file that was never created
// cannot fail to delete), but a restore-write failure is propagated.
func (l *Local) Discard(ctx context.Context) error {
	log := clog.FromContext(ctx)

	for i := len(l.staged) - 1; i >= 0; i-- {
		rec := l.staged[i]
		fullPath, err := l.validatePath(rec.Change.Path)
		if err != nil {
			return err
		}

		if !rec.Existed {
			if err := os.Remove(fullPath); err != nil {
				log.Warnf("Removing %s during discard: %v", rec.Change.Path, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return fmt.Errorf("restoring directories for %s: %w", rec.Change.Path, err)
		}
		if err := os.WriteFile(fullPath, []byte(rec.PreImage), 0o644); err != nil {
			return fmt.Errorf("restoring %s: %w", rec.Change.Path, err)
		}
	}

	log.Infof("Discarded %d staged changes", len(l.staged))
	l.staged = nil
	return nil
}

// Staged returns the staged change records.
func (l *Local) Staged() []StagedChange {
	return l.staged
}

// CommitAndPush stages everything, commits with the supplied message, and
// pushes the branch with upstream tracking. Content is expected to already
// be on the working tree (via ApplyLocally).
func (l *Local) CommitAndPush(ctx context.Context, branch, message string) error {
	if message == "" {
		return errors.New("commit message cannot be empty")
	}

	wt, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}

	email := l.identity
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@chainguard.dev", email)
	}

	commit, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  l.identity,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(branch)

	// Record the upstream so later git invocations track origin/<branch>.
	if err := l.repo.CreateBranch(&gitconfig.Branch{
		Name:   branch,
		Remote: "origin",
		Merge:  refName,
	}); err != nil && !errors.Is(err, git.ErrBranchExists) {
		return fmt.Errorf("configuring branch tracking: %w", err)
	}

	auth, err := l.pushAuth()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", refName, refName))
	clog.FromContext(ctx).Infof("Pushing %s (commit %s)", refSpec, commit)

	if err := l.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing branch: %w", err)
	}

	l.staged = nil
	return nil
}

// ApplyAndCommit is the one-shot compound of write, commit, and push used
// when skipping local review.
func (l *Local) ApplyAndCommit(ctx context.Context, branch string, cs *changes.ChangeSet) error {
	if err := l.ApplyLocally(ctx, cs); err != nil {
		return err
	}
	return l.CommitAndPush(ctx, branch, cs.CommitMessage)
}

// CreatePullRequest opens a pull request through the GitHub API.
func (l *Local) CreatePullRequest(ctx context.Context, spec PullRequestSpec) (*PullRequest, error) {
	return createPullRequest(ctx, l.gh, l.owner, l.repoName, spec)
}

// SupportsLocalReview reports true: the two-stage apply/commit flow is
// available on a working tree.
func (l *Local) SupportsLocalReview() bool { return true }

func (l *Local) pushAuth() (*githttp.BasicAuth, error) {
	token, err := l.tokens.Token()
	if err != nil {
		return nil, err
	}
	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}

// createPullRequest is shared between the two backends.
func createPullRequest(ctx context.Context, gh *github.Client, owner, repo string, spec PullRequestSpec) (*PullRequest, error) {
	log := clog.FromContext(ctx)
	log.Infof("Creating PR with head %s and base %s", spec.Head, spec.Base)

	pr, _, err := gh.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(spec.Title),
		Body:  github.Ptr(spec.Body),
		Head:  github.Ptr(spec.Head),
		Base:  github.Ptr(spec.Base),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}

	log.Infof("Created PR #%d: %s", pr.GetNumber(), pr.GetHTMLURL())
	return &PullRequest{URL: pr.GetHTMLURL(), Number: pr.GetNumber()}, nil
}

// prTemplatePaths are the conventional pull request template locations, in
// lookup order.
var prTemplatePaths = []string{
	".github/pull_request_template.md",
	".github/PULL_REQUEST_TEMPLATE.md",
	"pull_request_template.md",
	"docs/pull_request_template.md",
}

func findPRTemplate(ctx context.Context, a Adapter) (string, error) {
	for _, p := range prTemplatePaths {
		content, err := a.ReadFile(ctx, p)
		if err == nil && content != "" {
			return content, nil
		}
	}
	return "", nil
}
