/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package generate is the generative-collaborator boundary: it turns a
// ticket plus repository context into a structured change set. The core
// guards only the mechanics of applying and publishing that content; it
// makes no correctness guarantee about what the collaborator produces.
package generate

import (
	"context"

	"chainguard.dev/prsmith/changes"
	"chainguard.dev/prsmith/tickets"
)

// ContextFile is one repository file included in the generation prompt.
type ContextFile struct {
	Path    string
	Content string
}

// Request carries everything the collaborator needs to generate a change
// set for a ticket.
type Request struct {
	Ticket       *tickets.Ticket
	Files        []ContextFile
	Instructions string
	PRTemplate   string
}

// Generator produces change sets. Regenerate uses the prior change set and
// operator feedback as additional context for the retry flow.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*changes.ChangeSet, error)
	Regenerate(ctx context.Context, prior *changes.ChangeSet, feedback string) (*changes.ChangeSet, error)
}
