/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tickets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v75/github"
)

func TestParseAcceptanceCriteria(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{{
		name: "checklist items anywhere in the body",
		body: "Fix the thing.\n\n- [ ] build passes\n- [x] tests added\n* [X] docs updated",
		want: []string{"build passes", "tests added", "docs updated"},
	}, {
		name: "bullets under an acceptance criteria heading",
		body: "Some context.\n\n## Acceptance Criteria\n- returns 404 for unknown ids\n* logs the request\n\n## Notes\n- unrelated bullet",
		want: []string{"returns 404 for unknown ids", "logs the request"},
	}, {
		name: "checklists win over heading bullets",
		body: "## Acceptance criteria\n- plain bullet\n\n- [ ] checked item",
		want: []string{"checked item"},
	}, {
		name: "heading match is case insensitive",
		body: "### ACCEPTANCE CRITERIA\n- works",
		want: []string{"works"},
	}, {
		name: "no criteria",
		body: "Just a description with\n- some bullets\nbut no criteria section.",
		want: nil,
	}, {
		name: "empty body",
		body: "",
		want: nil,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAcceptanceCriteria(tt.body)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseAcceptanceCriteria() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func issueServer(t *testing.T, issue map[string]any) *github.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/demo/issues/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(issue); err != nil {
			t.Errorf("encoding issue: %v", err)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	gh.BaseURL = base
	return gh
}

func TestFetch(t *testing.T) {
	gh := issueServer(t, map[string]any{
		"number": 42,
		"title":  "Fix login timeout",
		"body":   "Users get logged out.\n\n- [ ] session lasts 24h",
	})
	s := NewGitHubSource(gh, "octo", "demo")

	for _, key := range []string{"42", "#42", " #42 "} {
		ticket, err := s.Fetch(context.Background(), key)
		if err != nil {
			t.Fatalf("Fetch(%q) error = %v", key, err)
		}
		if ticket.Key != "#42" {
			t.Errorf("Key: got = %q, wanted = %q", ticket.Key, "#42")
		}
		if ticket.Summary != "Fix login timeout" {
			t.Errorf("Summary: got = %q", ticket.Summary)
		}
		if len(ticket.AcceptanceCriteria) != 1 || ticket.AcceptanceCriteria[0] != "session lasts 24h" {
			t.Errorf("AcceptanceCriteria: got = %v", ticket.AcceptanceCriteria)
		}
	}
}

func TestFetchRejectsPullRequests(t *testing.T) {
	gh := issueServer(t, map[string]any{
		"number":       42,
		"title":        "Some PR",
		"pull_request": map[string]any{"url": "https://api.github.com/repos/octo/demo/pulls/42"},
	})
	s := NewGitHubSource(gh, "octo", "demo")

	_, err := s.Fetch(context.Background(), "42")
	if err == nil {
		t.Fatal("Fetch() error = nil, wanted an error for a pull request")
	}
	if !strings.Contains(err.Error(), "pull request") {
		t.Errorf("Fetch() error = %v, wanted it to mention pull request", err)
	}
}

func TestFetchRejectsNonNumericKeys(t *testing.T) {
	s := NewGitHubSource(github.NewClient(nil), "octo", "demo")

	for _, key := range []string{"", "abc", "PROJ-123"} {
		if _, err := s.Fetch(context.Background(), key); err == nil {
			t.Errorf("Fetch(%q) error = nil, wanted an error", key)
		}
	}
}
