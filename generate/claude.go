/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generate

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/prsmith/changes"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
)

// Option configures a ClaudeGenerator.
type Option func(*ClaudeGenerator)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(g *ClaudeGenerator) {
		g.modelName = model
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(maxTokens int64) Option {
	return func(g *ClaudeGenerator) {
		g.maxTokens = maxTokens
	}
}

// WithProgress registers a callback receiving streamed text deltas. The
// generator still blocks until stream completion; streaming is purely a
// progress display.
func WithProgress(progress func(string)) Option {
	return func(g *ClaudeGenerator) {
		g.progress = progress
	}
}

// ClaudeGenerator produces change sets with Claude. Responses are streamed
// and accumulated; transient API failures are not retried and propagate to
// the caller.
type ClaudeGenerator struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
	progress  func(string)

	// lastRequest is kept so Regenerate can rebuild the original context.
	lastRequest *Request
}

var _ Generator = (*ClaudeGenerator)(nil)

// NewClaude constructs a generator backed by the given Anthropic client.
func NewClaude(client anthropic.Client, opts ...Option) *ClaudeGenerator {
	g := &ClaudeGenerator{
		client:    client,
		modelName: "claude-sonnet-4@20250514",
		maxTokens: 16384,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a change set for the request.
func (g *ClaudeGenerator) Generate(ctx context.Context, req *Request) (*changes.ChangeSet, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}
	g.lastRequest = req
	return g.complete(ctx, prompt)
}

// Regenerate produces a replacement change set using the prior one and
// operator feedback as additional context.
func (g *ClaudeGenerator) Regenerate(ctx context.Context, prior *changes.ChangeSet, feedback string) (*changes.ChangeSet, error) {
	if g.lastRequest == nil {
		return nil, errors.New("regenerate called before generate")
	}

	prompt, err := buildRetryPrompt(g.lastRequest, prior, feedback)
	if err != nil {
		return nil, err
	}
	return g.complete(ctx, prompt)
}

func (g *ClaudeGenerator) complete(ctx context.Context, prompt string) (*changes.ChangeSet, error) {
	log := clog.FromContext(ctx)
	log.With("prompt_length", len(prompt)).Info("Requesting change set generation")

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.modelName),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemInstructions}},
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
		}},
	}

	stream := g.client.Messages.NewStreaming(ctx, params)
	var msg anthropic.Message
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulating stream event: %w", err)
		}

		if g.progress == nil {
			continue
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
				g.progress(text.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("streaming response: %w", err)
	}

	var textContent string
	for _, content := range msg.Content {
		if content.Type == "text" {
			textContent = content.Text
		}
	}
	if textContent == "" {
		return nil, errors.New("model response contained no text content")
	}

	log.With("input_tokens", msg.Usage.InputTokens).
		With("output_tokens", msg.Usage.OutputTokens).
		Info("Generation complete")

	return changes.ParsePayload(textContent)
}
