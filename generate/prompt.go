/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"chainguard.dev/prsmith/changes"
)

const systemInstructions = `You are a software engineer producing a complete, reviewable change set for a ticket.
Respond with a single JSON object matching the provided schema, inside a ` + "```json" + ` code fence.
Every create or modify change must carry the complete new file content. Never touch files you were not shown unless the ticket requires a new file.`

// buildPrompt renders the generation prompt: ticket, acceptance criteria,
// project instructions, PR template, the payload schema, and the selected
// repository files.
func buildPrompt(req *Request) (string, error) {
	schema, err := changes.PayloadSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("reflecting payload schema: %w", err)
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# Ticket %s: %s\n\n%s\n", req.Ticket.Key, req.Ticket.Summary, req.Ticket.Description)

	if len(req.Ticket.AcceptanceCriteria) > 0 {
		sb.WriteString("\n## Acceptance criteria\n")
		for _, c := range req.Ticket.AcceptanceCriteria {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	if req.Instructions != "" {
		fmt.Fprintf(&sb, "\n## Project instructions\n%s\n", req.Instructions)
	}

	if req.PRTemplate != "" {
		fmt.Fprintf(&sb, "\n## Pull request template\nUse this structure for the prBody field:\n%s\n", req.PRTemplate)
	}

	fmt.Fprintf(&sb, "\n## Response schema\n```json\n%s\n```\n", schema)

	if len(req.Files) > 0 {
		sb.WriteString("\n## Repository files\n")
		for _, f := range req.Files {
			fmt.Fprintf(&sb, "\n### %s\n```\n%s\n```\n", f.Path, f.Content)
		}
	}

	return sb.String(), nil
}

// buildRetryPrompt extends the original prompt with the prior change set and
// the operator's feedback.
func buildRetryPrompt(req *Request, prior *changes.ChangeSet, feedback string) (string, error) {
	base, err := buildPrompt(req)
	if err != nil {
		return "", err
	}

	priorJSON, err := json.MarshalIndent(prior, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling prior change set: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(base)
	fmt.Fprintf(&sb, "\n## Previous attempt\nYou previously produced this change set:\n```json\n%s\n```\n", priorJSON)
	fmt.Fprintf(&sb, "\n## Operator feedback\n%s\n\nProduce a corrected change set addressing the feedback.\n", feedback)
	return sb.String(), nil
}
