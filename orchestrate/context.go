/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chainguard.dev/prsmith/generate"
	"chainguard.dev/prsmith/tickets"
	"github.com/chainguard-dev/clog"
)

// gatherContext assembles the generation request: ticket, relevant files
// (capped by count and total bytes), project instructions, and the PR
// template.
func (o *Orchestrator) gatherContext(ctx context.Context, ticket *tickets.Ticket, repoFiles []string) (*generate.Request, error) {
	log := clog.FromContext(ctx)

	selected := selectRelevantFiles(ticket, repoFiles, o.Cfg.ContextFileLimit)

	var files []generate.ContextFile
	budget := o.Cfg.ContextByteLimit
	for _, path := range selected {
		content, err := o.Adapter.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if len(content) > budget {
			log.Debugf("Skipping %s: exceeds remaining context budget", path)
			continue
		}
		budget -= len(content)
		files = append(files, generate.ContextFile{Path: path, Content: content})
	}

	// Project instructions are optional; a missing file is not an error.
	instructions, err := o.Adapter.ReadFile(ctx, instructionsFile)
	if err != nil {
		instructions = ""
	}

	template, err := o.Adapter.PRTemplate(ctx)
	if err != nil {
		return nil, fmt.Errorf("looking up PR template: %w", err)
	}

	log.Infof("Gathered %d context files (%d candidates)", len(files), len(repoFiles))

	return &generate.Request{
		Ticket:       ticket,
		Files:        files,
		Instructions: instructions,
		PRTemplate:   template,
	}, nil
}

// selectRelevantFiles ranks repository paths against the ticket text and
// returns up to limit of the best matches. Paths mentioned verbatim in the
// ticket always rank first.
func selectRelevantFiles(ticket *tickets.Ticket, repoFiles []string, limit int) []string {
	text := strings.ToLower(ticket.Summary + "\n" + ticket.Description)

	type scored struct {
		path  string
		score int
	}
	ranked := make([]scored, 0, len(repoFiles))

	for _, path := range repoFiles {
		s := 0
		if strings.Contains(text, strings.ToLower(path)) {
			s += 100
		}
		for _, token := range pathTokens(path) {
			if len(token) >= 3 && strings.Contains(text, token) {
				s++
			}
		}
		if s > 0 {
			ranked = append(ranked, scored{path: path, score: s})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].path < ranked[j].path
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.path
	}
	return out
}

// pathTokens splits a path into lowercase name fragments for matching.
func pathTokens(path string) []string {
	return strings.FieldsFunc(strings.ToLower(path), func(r rune) bool {
		switch r {
		case '/', '.', '_', '-':
			return true
		}
		return false
	})
}
