/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"strings"
	"testing"

	"chainguard.dev/prsmith/changes"
	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClaudeOptions(t *testing.T) {
	var deltas []string
	g := NewClaude(anthropic.Client{},
		WithModel("claude-opus-4@20250514"),
		WithMaxTokens(4096),
		WithProgress(func(s string) { deltas = append(deltas, s) }),
	)

	if g.modelName != "claude-opus-4@20250514" {
		t.Errorf("modelName: got = %q", g.modelName)
	}
	if g.maxTokens != 4096 {
		t.Errorf("maxTokens: got = %d, wanted = 4096", g.maxTokens)
	}

	g.progress("chunk")
	if len(deltas) != 1 || deltas[0] != "chunk" {
		t.Errorf("progress callback not wired: %v", deltas)
	}
}

func TestNewClaudeDefaults(t *testing.T) {
	g := NewClaude(anthropic.Client{})
	if g.modelName == "" {
		t.Error("default model is empty")
	}
	if g.maxTokens <= 0 {
		t.Errorf("default maxTokens: got = %d", g.maxTokens)
	}
}

func TestRegenerateBeforeGenerate(t *testing.T) {
	g := NewClaude(anthropic.Client{})

	_, err := g.Regenerate(context.Background(), &changes.ChangeSet{}, "feedback")
	if err == nil {
		t.Fatal("Regenerate() error = nil, wanted an error")
	}
	if !strings.Contains(err.Error(), "before generate") {
		t.Errorf("Regenerate() error = %v", err)
	}
}
