/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package orchestrate sequences one prsmith run: ticket fetch, readiness
// check, context gathering, change-set generation, safety gate, diff
// preview, interactive review, and publish. All steps are strictly
// sequential and any error aborts the run.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chainguard.dev/prsmith/changes"
	"chainguard.dev/prsmith/config"
	"chainguard.dev/prsmith/diffview"
	"chainguard.dev/prsmith/fileops"
	"chainguard.dev/prsmith/generate"
	"chainguard.dev/prsmith/review"
	"chainguard.dev/prsmith/safety"
	"chainguard.dev/prsmith/tickets"
	"github.com/chainguard-dev/clog"
)

// instructionsFile is the optional repo-local guidance included in
// generation prompts.
const instructionsFile = ".prsmith-instructions.md"

// contextWindow is how many unchanged lines are shown around each change in
// diff previews.
const contextWindow = 3

// ErrGateFailed is returned when the safety gate blocks a change set.
var ErrGateFailed = errors.New("safety gate rejected the change set")

// Options are the per-run flags.
type Options struct {
	// DryRun stops after the diff preview without entering review.
	DryRun bool
	// AutoApprove skips the interactive review and publishes directly.
	AutoApprove bool
	// Explain prints the change set explanation before the review menu.
	Explain bool
	// AllowDirty downgrades a failed readiness check to a warning.
	AllowDirty bool
	// Overrides are the safety gate overrides.
	Overrides safety.Overrides
	// BaseBranch is the branch pull requests target.
	BaseBranch string
}

// Orchestrator wires the collaborators together for a run. Out is an
// explicit output sink so programmatic callers can capture everything the
// run prints.
type Orchestrator struct {
	Adapter   fileops.Adapter
	Generator generate.Generator
	Tickets   tickets.Source
	Cfg       *config.Config

	In  io.Reader
	Out io.Writer
}

// Run executes the full pipeline for one ticket.
func (o *Orchestrator) Run(ctx context.Context, ticketKey string, opts Options) error {
	log := clog.FromContext(ctx)

	ticket, err := o.Tickets.Fetch(ctx, ticketKey)
	if err != nil {
		return fmt.Errorf("fetching ticket: %w", err)
	}
	if o.Cfg.RequireAcceptanceCriteria && len(ticket.AcceptanceCriteria) == 0 {
		return fmt.Errorf("ticket %s has no acceptance criteria", ticket.Key)
	}

	// Readiness only applies to backends with a working tree to dirty.
	if o.Adapter.SupportsLocalReview() {
		if err := o.Adapter.CheckReady(ctx); err != nil {
			if !opts.AllowDirty {
				return fmt.Errorf("readiness check failed: %w", err)
			}
			log.Warnf("Proceeding despite readiness failure: %v", err)
		}
	}

	repoFiles, err := o.Adapter.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("listing repository files: %w", err)
	}

	req, err := o.gatherContext(ctx, ticket, repoFiles)
	if err != nil {
		return fmt.Errorf("gathering context: %w", err)
	}

	cs, err := o.Generator.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generating change set: %w", err)
	}

	if err := o.preview(ctx, cs, repoFiles, opts); err != nil {
		return err
	}

	if opts.Explain {
		fmt.Fprintf(o.Out, "\n%s\n", cs.Explanation)
	}

	if opts.DryRun {
		fmt.Fprintln(o.Out, "\ndry run: stopping before review")
		return nil
	}

	if opts.AutoApprove {
		// Synthesize an immediate direct transition instead of prompting.
		pr, err := review.Publish(ctx, o.Adapter, cs, opts.BaseBranch)
		if err != nil {
			return err
		}
		fmt.Fprintf(o.Out, "\nopened %s\n", pr.URL)
		return nil
	}

	driver := &review.Driver{
		Adapter:     o.Adapter,
		Regenerator: o.Generator,
		BaseBranch:  opts.BaseBranch,
		Preview: func(ctx context.Context, regenerated *changes.ChangeSet) error {
			return o.preview(ctx, regenerated, repoFiles, opts)
		},
		In:  o.In,
		Out: o.Out,
	}

	final, err := driver.Run(ctx, cs)
	if err != nil {
		return err
	}

	log.Infof("Review session ended: %s", final)
	if final == review.Aborted {
		fmt.Fprintln(o.Out, "aborted")
	}
	return nil
}

// preview evaluates the safety gate and renders the change set: metadata,
// a per-file summary table, and collapsed diffs. Gate errors abort; gate
// warnings only print.
func (o *Orchestrator) preview(ctx context.Context, cs *changes.ChangeSet, repoFiles []string, opts Options) error {
	limits := safety.Limits{
		MaxFilesToChange: o.Cfg.MaxFilesToChange,
		MaxLinesChanged:  o.Cfg.MaxLinesChanged,
	}

	verdict := safety.Evaluate(cs, repoFiles, limits, opts.Overrides)
	for _, w := range verdict.Warnings {
		fmt.Fprintf(o.Out, "warning: %s\n", w)
	}
	if !verdict.Passed {
		for _, e := range verdict.Errors {
			fmt.Fprintf(o.Out, "error: %s\n", e)
		}
		return fmt.Errorf("%w (%d errors)", ErrGateFailed, len(verdict.Errors))
	}

	fmt.Fprintf(o.Out, "\nbranch:  %s\ncommit:  %s\ntitle:   %s\n\n", cs.BranchName, cs.CommitMessage, cs.PRTitle)

	rows := make([]diffview.SummaryRow, 0, len(cs.Changes))
	diffs := make([][]diffview.Line, 0, len(cs.Changes))
	for _, fc := range cs.Changes {
		oldContent, err := o.originalContent(ctx, fc)
		if err != nil {
			return err
		}

		newContent := fc.Content
		if fc.Op == changes.OpDelete {
			newContent = ""
		}

		lines := diffview.Diff(oldContent, newContent)
		added, removed := diffview.Stat(lines)
		rows = append(rows, diffview.SummaryRow{
			Path:      fc.Path,
			Operation: string(fc.Op),
			Added:     added,
			Removed:   removed,
		})
		diffs = append(diffs, lines)
	}

	if err := diffview.WriteSummary(o.Out, rows); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}

	for i, fc := range cs.Changes {
		fmt.Fprintf(o.Out, "\n--- %s (%s) ---\n", fc.Path, fc.Op)
		if err := diffview.Render(o.Out, diffview.Collapse(diffs[i], contextWindow)); err != nil {
			return fmt.Errorf("rendering diff for %s: %w", fc.Path, err)
		}
	}

	return nil
}

// originalContent resolves the old side of a diff: the change's recorded
// original content when present, otherwise the current tree content for
// modify/delete operations. Creates diff against nothing.
func (o *Orchestrator) originalContent(ctx context.Context, fc changes.FileChange) (string, error) {
	if fc.OriginalContent != "" {
		return fc.OriginalContent, nil
	}
	if fc.Op == changes.OpCreate {
		return "", nil
	}

	content, err := o.Adapter.ReadFile(ctx, fc.Path)
	if err != nil {
		return "", fmt.Errorf("reading original content of %s: %w", fc.Path, err)
	}
	return content, nil
}
