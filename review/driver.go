/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"chainguard.dev/prsmith/changes"
	"chainguard.dev/prsmith/fileops"
	"github.com/chainguard-dev/clog"
)

// aiNotice is appended to the PR body of every staged commit so reviewers
// know the content's provenance.
const aiNotice = "\n\n---\n*This pull request was generated from a change set produced by an AI collaborator.*"

// manualEditNotice is additionally appended when the operator hand-edited
// staged files before committing.
const manualEditNotice = "\n*The staged changes were manually edited by the operator before committing.*"

// Regenerator produces a replacement change set from the prior one plus
// operator feedback.
type Regenerator interface {
	Regenerate(ctx context.Context, prior *changes.ChangeSet, feedback string) (*changes.ChangeSet, error)
}

// Driver owns one review session: it prompts the operator, feeds actions
// through Step, and executes the resulting effects against the adapter and
// the regenerator.
type Driver struct {
	Adapter     fileops.Adapter
	Regenerator Regenerator

	// BaseBranch is the branch pull requests target.
	BaseBranch string

	// Preview re-renders the diff and safety verdict after a regeneration.
	// It returns the regenerated set's verdict error when the new set is
	// blocked.
	Preview func(ctx context.Context, cs *changes.ChangeSet) error

	// In and Out are the operator's terminal. Out is an explicit sink so a
	// programmatic caller can capture everything without stream redirection.
	In  io.Reader
	Out io.Writer
}

// Session is the state the driver mutates across transitions: the current
// change set and the machine state. It is created when the review phase is
// entered and discarded on a terminal transition.
type Session struct {
	ChangeSet *changes.ChangeSet
	State     State
}

// Run reviews the change set interactively until a terminal state is
// reached. It returns the final state.
func (d *Driver) Run(ctx context.Context, cs *changes.ChangeSet) (State, error) {
	session := &Session{ChangeSet: cs, State: Generated}
	scanner := bufio.NewScanner(d.In)

	for !session.State.Terminal() {
		act, err := d.promptAction(scanner, session.State)
		if err != nil {
			return session.State, err
		}

		next, effects, err := Step(session.State, act, d.Adapter.SupportsLocalReview())
		if err != nil {
			return session.State, err
		}

		for _, effect := range effects {
			if err := d.execute(ctx, session, effect); err != nil {
				return session.State, err
			}
		}

		session.State = next
	}

	return session.State, nil
}

// promptAction shows the menu for the current state and parses one line of
// operator input into an action, re-prompting on unrecognized input.
func (d *Driver) promptAction(scanner *bufio.Scanner, state State) (Action, error) {
	for {
		fmt.Fprintf(d.Out, "\n%s\n> ", menu(state, d.Adapter.SupportsLocalReview()))

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Action{}, fmt.Errorf("reading input: %w", err)
			}
			// EOF on input behaves like an abort (or a discard when staged).
			if state == LocallyApplied {
				return Action{Kind: ActionDiscard}, nil
			}
			return Action{Kind: ActionAbort}, nil
		}

		act, ok := parseAction(scanner.Text(), state, d.Adapter.SupportsLocalReview())
		if !ok {
			fmt.Fprintln(d.Out, "unrecognized choice")
			continue
		}

		if act.Kind == ActionRetry {
			fmt.Fprint(d.Out, "feedback: ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return Action{}, fmt.Errorf("reading input: %w", err)
				}
				// EOF mid-prompt should not submit an empty retry.
				if state == LocallyApplied {
					return Action{Kind: ActionDiscard}, nil
				}
				return Action{Kind: ActionAbort}, nil
			}
			act.Feedback = strings.TrimSpace(scanner.Text())
		}

		return act, nil
	}
}

func menu(state State, localReview bool) string {
	labels := map[ActionKind]string{
		ActionApply:   "[a]pply locally",
		ActionDirect:  "[c]ommit and open PR",
		ActionCommit:  "[c]ommit staged changes and open PR",
		ActionDiscard: "[d]iscard",
		ActionRetry:   "[r]etry with feedback",
		ActionExplain: "[e]xplain",
		ActionAbort:   "[q]uit",
	}

	parts := make([]string, 0, 5)
	for _, kind := range AvailableActions(state, localReview) {
		parts = append(parts, labels[kind])
	}
	return strings.Join(parts, ", ")
}

func parseAction(input string, state State, localReview bool) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "a", "apply":
		return Action{Kind: ActionApply}, state == Generated && localReview
	case "c", "commit":
		if state == LocallyApplied {
			return Action{Kind: ActionCommit}, true
		}
		return Action{Kind: ActionDirect}, state == Generated
	case "d", "discard":
		return Action{Kind: ActionDiscard}, state == LocallyApplied
	case "r", "retry":
		return Action{Kind: ActionRetry}, true
	case "e", "explain":
		return Action{Kind: ActionExplain}, state == Generated
	case "q", "quit", "abort":
		return Action{Kind: ActionAbort}, state == Generated
	default:
		return Action{}, false
	}
}

func (d *Driver) execute(ctx context.Context, session *Session, effect Effect) error {
	log := clog.FromContext(ctx)

	switch effect.Kind {
	case EffectShowExplanation:
		fmt.Fprintf(d.Out, "\n%s\n", session.ChangeSet.Explanation)
		return nil

	case EffectRegenerate:
		log.Infof("Regenerating change set with operator feedback")
		regenerated, err := d.Regenerator.Regenerate(ctx, session.ChangeSet, effect.Feedback)
		if err != nil {
			return fmt.Errorf("regenerating change set: %w", err)
		}
		if d.Preview != nil {
			if err := d.Preview(ctx, regenerated); err != nil {
				return err
			}
		}
		session.ChangeSet = regenerated
		return nil

	case EffectApply:
		return d.Adapter.ApplyLocally(ctx, session.ChangeSet)

	case EffectRestore:
		return d.Adapter.Discard(ctx)

	case EffectPublish:
		pr, err := Publish(ctx, d.Adapter, session.ChangeSet, d.BaseBranch)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "\nopened %s\n", pr.URL)
		return nil

	case EffectCommitStaged:
		pr, err := d.commitStaged(ctx, session.ChangeSet)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.Out, "\nopened %s\n", pr.URL)
		return nil

	default:
		return fmt.Errorf("unknown effect %d", effect.Kind)
	}
}

// Publish performs the direct flow: branch create, one-shot apply-and-
// commit, then PR create.
func Publish(ctx context.Context, a fileops.Adapter, cs *changes.ChangeSet, base string) (*fileops.PullRequest, error) {
	if err := a.CreateBranch(ctx, cs.BranchName); err != nil {
		return nil, err
	}
	if err := a.ApplyAndCommit(ctx, cs.BranchName, cs); err != nil {
		return nil, err
	}
	return a.CreatePullRequest(ctx, fileops.PullRequestSpec{
		Title: cs.PRTitle,
		Body:  cs.PRBody + aiNotice,
		Head:  cs.BranchName,
		Base:  base,
	})
}

// commitStaged publishes content that is already staged on the working
// tree. Each staged path's current on-disk content is diffed against the
// change set's recorded content to detect operator hand-edits.
func (d *Driver) commitStaged(ctx context.Context, cs *changes.ChangeSet) (*fileops.PullRequest, error) {
	modified, err := d.stagedWasModified(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.Adapter.CreateBranch(ctx, cs.BranchName); err != nil {
		return nil, err
	}
	if err := d.Adapter.CommitAndPush(ctx, cs.BranchName, cs.CommitMessage); err != nil {
		return nil, err
	}

	body := cs.PRBody + aiNotice
	if modified {
		body += manualEditNotice
	}

	return d.Adapter.CreatePullRequest(ctx, fileops.PullRequestSpec{
		Title: cs.PRTitle,
		Body:  body,
		Head:  cs.BranchName,
		Base:  d.BaseBranch,
	})
}

func (d *Driver) stagedWasModified(ctx context.Context) (bool, error) {
	for _, rec := range d.Adapter.Staged() {
		if rec.Change.Op == changes.OpDelete {
			continue
		}
		onDisk, err := d.Adapter.ReadFile(ctx, rec.Change.Path)
		if err != nil {
			return false, fmt.Errorf("reading staged file %s: %w", rec.Change.Path, err)
		}
		if onDisk != rec.Change.Content {
			return true, nil
		}
	}
	return false, nil
}
