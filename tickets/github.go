/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tickets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
)

// GitHubSource fetches tickets from GitHub issues.
type GitHubSource struct {
	gh    *github.Client
	owner string
	repo  string
}

var _ Source = (*GitHubSource)(nil)

// NewGitHubSource constructs a source for the given repository.
func NewGitHubSource(gh *github.Client, owner, repo string) *GitHubSource {
	return &GitHubSource{gh: gh, owner: owner, repo: repo}
}

// Fetch resolves a ticket key of the form "123" or "#123" to a GitHub issue.
func (s *GitHubSource) Fetch(ctx context.Context, key string) (*Ticket, error) {
	number, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(key), "#"))
	if err != nil {
		return nil, fmt.Errorf("ticket key %q is not an issue number: %w", key, err)
	}

	issue, _, err := s.gh.Issues.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching issue #%d: %w", number, err)
	}

	if issue.IsPullRequest() {
		return nil, fmt.Errorf("issue #%d is a pull request, not a ticket", number)
	}

	body := issue.GetBody()
	criteria := parseAcceptanceCriteria(body)

	clog.FromContext(ctx).Infof("Fetched issue #%d (%d acceptance criteria)", number, len(criteria))

	return &Ticket{
		Key:                fmt.Sprintf("#%d", number),
		Summary:            issue.GetTitle(),
		Description:        body,
		AcceptanceCriteria: criteria,
	}, nil
}

var checklistItem = regexp.MustCompile(`^\s*[-*]\s*\[[ xX]\]\s*(.+)$`)

// parseAcceptanceCriteria extracts acceptance criteria from an issue body.
// Checklist items anywhere in the body count; failing that, bullet items
// under an "acceptance criteria" heading do.
func parseAcceptanceCriteria(body string) []string {
	var criteria []string
	for _, line := range strings.Split(body, "\n") {
		if m := checklistItem.FindStringSubmatch(line); m != nil {
			criteria = append(criteria, strings.TrimSpace(m[1]))
		}
	}
	if len(criteria) > 0 {
		return criteria
	}

	inSection := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			inSection = strings.Contains(strings.ToLower(trimmed), "acceptance criteria")
			continue
		}
		if !inSection {
			continue
		}
		if item, ok := strings.CutPrefix(trimmed, "- "); ok {
			criteria = append(criteria, strings.TrimSpace(item))
		} else if item, ok := strings.CutPrefix(trimmed, "* "); ok {
			criteria = append(criteria, strings.TrimSpace(item))
		}
	}
	return criteria
}
