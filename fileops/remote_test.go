/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package fileops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"chainguard.dev/prsmith/changes"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v75/github"
)

// gitDataServer fakes the slice of the GitHub git-data API the Remote
// backend drives, recording the write requests it receives.
type gitDataServer struct {
	mux *http.ServeMux

	blobBodies   []map[string]any
	treeBody     map[string]any
	commitBody   map[string]any
	refUpdates   []map[string]any
	refCreations []map[string]any
}

func newGitDataServer(t *testing.T) (*gitDataServer, *github.Client) {
	t.Helper()

	s := &gitDataServer{mux: http.NewServeMux()}

	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}
	record := func(r *http.Request) map[string]any {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		return body
	}

	s.mux.HandleFunc("GET /repos/octo/demo/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "base-sha", "type": "commit"}})
	})
	s.mux.HandleFunc("GET /repos/octo/demo/git/ref/heads/feature-x", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"ref": "refs/heads/feature-x", "object": map[string]any{"sha": "base-sha", "type": "commit"}})
	})
	s.mux.HandleFunc("GET /repos/octo/demo/git/commits/base-sha", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"sha": "base-sha", "tree": map[string]any{"sha": "tip-tree-sha"}})
	})
	s.mux.HandleFunc("GET /repos/octo/demo/git/trees/tip-tree-sha", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"sha": "tip-tree-sha",
			"tree": []map[string]any{
				{"path": "main.go", "type": "blob"},
				{"path": "README.md", "type": "blob"},
				{"path": "vendor/dep/dep.go", "type": "blob"},
				{"path": "node_modules/x/index.js", "type": "blob"},
				{"path": "pkg", "type": "tree"},
			},
			"truncated": false,
		})
	})
	s.mux.HandleFunc("POST /repos/octo/demo/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		s.blobBodies = append(s.blobBodies, record(r))
		reply(w, map[string]any{"sha": fmt.Sprintf("blob-sha-%d", len(s.blobBodies))})
	})
	s.mux.HandleFunc("POST /repos/octo/demo/git/trees", func(w http.ResponseWriter, r *http.Request) {
		s.treeBody = record(r)
		reply(w, map[string]any{"sha": "new-tree-sha"})
	})
	s.mux.HandleFunc("POST /repos/octo/demo/git/commits", func(w http.ResponseWriter, r *http.Request) {
		s.commitBody = record(r)
		reply(w, map[string]any{"sha": "new-commit-sha"})
	})
	s.mux.HandleFunc("PATCH /repos/octo/demo/git/refs/heads/feature-x", func(w http.ResponseWriter, r *http.Request) {
		s.refUpdates = append(s.refUpdates, record(r))
		reply(w, map[string]any{"ref": "refs/heads/feature-x", "object": map[string]any{"sha": "new-commit-sha"}})
	})
	s.mux.HandleFunc("POST /repos/octo/demo/git/refs", func(w http.ResponseWriter, r *http.Request) {
		s.refCreations = append(s.refCreations, record(r))
		w.WriteHeader(http.StatusCreated)
		reply(w, map[string]any{"ref": "refs/heads/feature-x", "object": map[string]any{"sha": "base-sha"}})
	})

	srv := httptest.NewServer(s.mux)
	t.Cleanup(srv.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	gh.BaseURL = base

	return s, gh
}

func TestRemoteListFiles(t *testing.T) {
	_, gh := newGitDataServer(t)
	r := NewRemote(gh, "octo", "demo", "main")

	got, err := r.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	want := []string{"main.go", "README.md"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteCreateBranch(t *testing.T) {
	s, gh := newGitDataServer(t)
	r := NewRemote(gh, "octo", "demo", "main")

	if err := r.CreateBranch(context.Background(), "feature-x"); err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}

	if len(s.refCreations) != 1 {
		t.Fatalf("ref creations: got = %d, wanted = 1", len(s.refCreations))
	}
	created := s.refCreations[0]
	if created["ref"] != "refs/heads/feature-x" {
		t.Errorf("created ref: got = %v, wanted = refs/heads/feature-x", created["ref"])
	}
	if created["sha"] != "base-sha" {
		t.Errorf("created ref sha: got = %v, wanted = base-sha", created["sha"])
	}
}

func TestRemoteApplyAndCommit(t *testing.T) {
	s, gh := newGitDataServer(t)
	r := NewRemote(gh, "octo", "demo", "main")

	cs := &changes.ChangeSet{
		Changes: []changes.FileChange{
			{Path: "main.go", Op: changes.OpModify, Content: "package main\n"},
			{Path: "README.md", Op: changes.OpDelete},
		},
		CommitMessage: "Update main",
	}

	if err := r.ApplyAndCommit(context.Background(), "feature-x", cs); err != nil {
		t.Fatalf("ApplyAndCommit() error = %v", err)
	}

	// One blob for the single non-delete change.
	if len(s.blobBodies) != 1 {
		t.Fatalf("blob creations: got = %d, wanted = 1", len(s.blobBodies))
	}
	if s.blobBodies[0]["content"] != "package main\n" {
		t.Errorf("blob content: got = %v", s.blobBodies[0]["content"])
	}

	// The tree is layered over the tip tree and marks the deletion with a
	// null SHA entry.
	if s.treeBody["base_tree"] != "tip-tree-sha" {
		t.Errorf("base_tree: got = %v, wanted = tip-tree-sha", s.treeBody["base_tree"])
	}
	entries, ok := s.treeBody["tree"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("tree entries: got = %v, wanted 2 entries", s.treeBody["tree"])
	}
	deletion := entries[1].(map[string]any)
	if deletion["path"] != "README.md" {
		t.Errorf("deletion path: got = %v, wanted = README.md", deletion["path"])
	}
	if sha, present := deletion["sha"]; !present || sha != nil {
		t.Errorf("deletion sha: got = %v (present %v), wanted explicit null", sha, present)
	}

	// Exactly one parent: the branch tip.
	parents, ok := s.commitBody["parents"].([]any)
	if !ok || len(parents) != 1 {
		t.Fatalf("commit parents: got = %v, wanted 1 parent", s.commitBody["parents"])
	}
	if s.commitBody["message"] != "Update main" {
		t.Errorf("commit message: got = %v, wanted = Update main", s.commitBody["message"])
	}

	// The ref update is a fast-forward, not a force push.
	if len(s.refUpdates) != 1 {
		t.Fatalf("ref updates: got = %d, wanted = 1", len(s.refUpdates))
	}
	update := s.refUpdates[0]
	if update["sha"] != "new-commit-sha" {
		t.Errorf("ref update sha: got = %v, wanted = new-commit-sha", update["sha"])
	}
	if force, ok := update["force"].(bool); ok && force {
		t.Error("ref update requested a force push")
	}
}

func TestRemoteLocalOnlyOperations(t *testing.T) {
	r := NewRemote(github.NewClient(nil), "octo", "demo", "main")
	ctx := context.Background()

	if r.SupportsLocalReview() {
		t.Error("SupportsLocalReview() = true, wanted = false")
	}
	if err := r.CheckReady(ctx); err != nil {
		t.Errorf("CheckReady() error = %v, wanted = nil", err)
	}
	if got := r.Staged(); got != nil {
		t.Errorf("Staged() = %v, wanted = nil", got)
	}

	if err := r.ApplyLocally(ctx, &changes.ChangeSet{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ApplyLocally() error = %v, wanted ErrUnsupported", err)
	}
	if err := r.Discard(ctx); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Discard() error = %v, wanted ErrUnsupported", err)
	}
	if err := r.CommitAndPush(ctx, "b", "m"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("CommitAndPush() error = %v, wanted ErrUnsupported", err)
	}
}

func TestExcludedTreePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"main.go", false},
		{"vendor/dep/dep.go", true},
		{"node_modules/x/index.js", true},
		{"dist/bundle.js", true},
		{"internal/vendor.go", false},
		{"build/output", true},
		{".git/config", true},
	}
	for _, tt := range tests {
		if got := excludedTreePath(tt.path); got != tt.want {
			t.Errorf("excludedTreePath(%q) = %v, wanted = %v", tt.path, got, tt.want)
		}
	}
}
