/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package tickets is the issue-tracker boundary: the core only needs
// key/summary/description/acceptance-criteria shaped values to drive
// generation and regeneration prompts.
package tickets

import "context"

// Ticket is the unit of work a change set is generated for.
type Ticket struct {
	Key                string
	Summary            string
	Description        string
	AcceptanceCriteria []string
}

// Source fetches tickets by key.
type Source interface {
	Fetch(ctx context.Context, key string) (*Ticket, error)
}
