/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements prsmith, a CLI that turns a ticket into a safely
// reviewed, version-controlled pull request via a generative collaborator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chainguard.dev/prsmith/config"
	"chainguard.dev/prsmith/fileops"
	"chainguard.dev/prsmith/generate"
	"chainguard.dev/prsmith/orchestrate"
	"chainguard.dev/prsmith/safety"
	"chainguard.dev/prsmith/tickets"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

type flags struct {
	repo     string
	base     string
	root     string
	identity string

	remote            bool
	dryRun            bool
	yes               bool
	explain           bool
	allowDirty        bool
	allowLargeDiff    bool
	allowMissingTests bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "%v", err)
	}
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "prsmith <ticket>",
		Short:         "Turn a ticket into a reviewed pull request",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.repo, "repo", "", "target repository as owner/name (required)")
	cmd.Flags().StringVar(&f.base, "base", "main", "base branch pull requests target")
	cmd.Flags().StringVar(&f.root, "root", ".", "path to the local working tree")
	cmd.Flags().StringVar(&f.identity, "identity", "prsmith", "commit author identity")
	cmd.Flags().BoolVar(&f.remote, "remote", false, "operate purely through the GitHub API, disabling local review")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "stop after the diff preview")
	cmd.Flags().BoolVar(&f.yes, "yes", false, "skip interactive review and publish directly")
	cmd.Flags().BoolVar(&f.explain, "explain", false, "print the explanation before the review menu")
	cmd.Flags().BoolVar(&f.allowDirty, "allow-dirty", false, "proceed even when the working tree is not clean")
	cmd.Flags().BoolVar(&f.allowLargeDiff, "allow-large-diff", false, "downgrade size-limit errors to warnings")
	cmd.Flags().BoolVar(&f.allowMissingTests, "allow-missing-tests", false, "suppress the missing-tests advisory")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

func run(ctx context.Context, f *flags, ticketKey string) error {
	owner, repoName, ok := strings.Cut(f.repo, "/")
	if !ok || owner == "" || repoName == "" {
		return fmt.Errorf("--repo must be owner/name, got %q", f.repo)
	}

	cfg, err := config.Load(ctx, f.root)
	if err != nil {
		return err
	}

	gh := github.NewClient(nil).WithAuthToken(cfg.GitHubToken)
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})

	var adapter fileops.Adapter
	if f.remote {
		adapter = fileops.NewRemote(gh, owner, repoName, f.base)
	} else {
		adapter, err = fileops.NewLocal(f.root, owner, repoName, f.identity, gh, tokenSource)
		if err != nil {
			return err
		}
	}

	var clientOpts []option.RequestOption
	if cfg.AnthropicAPIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.AnthropicAPIKey))
	}
	genOpts := []generate.Option{
		generate.WithProgress(func(string) { fmt.Fprint(os.Stderr, ".") }),
	}
	if cfg.Model != "" {
		genOpts = append(genOpts, generate.WithModel(cfg.Model))
	}
	generator := generate.NewClaude(anthropic.NewClient(clientOpts...), genOpts...)

	o := &orchestrate.Orchestrator{
		Adapter:   adapter,
		Generator: generator,
		Tickets:   tickets.NewGitHubSource(gh, owner, repoName),
		Cfg:       cfg,
		In:        os.Stdin,
		Out:       os.Stdout,
	}

	return o.Run(ctx, ticketKey, orchestrate.Options{
		DryRun:      f.dryRun,
		AutoApprove: f.yes,
		Explain:     f.explain,
		AllowDirty:  f.allowDirty,
		Overrides: safety.Overrides{
			AllowLargeDiff:    f.allowLargeDiff,
			AllowMissingTests: f.allowMissingTests,
		},
		BaseBranch: f.base,
	})
}
