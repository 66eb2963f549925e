/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package review drives the operator-facing review flow for a generated
// change set. The state machine is a pure transition function from (state,
// action) to (state, effects); the driver executes effects against the
// file-operations adapter and the generative collaborator, so the machine
// itself is testable without a terminal or network.
package review

import (
	"errors"
	"fmt"
)

// State is a review session state.
type State int

const (
	// Generated is the initial state: a change set has passed the safety
	// gate and its diff has been shown.
	Generated State = iota
	// LocallyApplied means the changes are staged on the working tree but
	// not committed. Only reachable with a local-review backend.
	LocallyApplied
	// Committed is terminal: the change set has been published.
	Committed
	// Aborted is terminal: the operator walked away.
	Aborted
)

func (s State) String() string {
	switch s {
	case Generated:
		return "generated"
	case LocallyApplied:
		return "locally-applied"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == Committed || s == Aborted
}

// ActionKind identifies an operator action.
type ActionKind int

const (
	// ActionExplain displays the change set's explanation and re-prompts.
	ActionExplain ActionKind = iota
	// ActionRetry regenerates the change set with operator feedback.
	ActionRetry
	// ActionDirect publishes the current change set without local staging.
	ActionDirect
	// ActionApply stages the change set onto the working tree.
	ActionApply
	// ActionAbort ends the session without publishing.
	ActionAbort
	// ActionDiscard restores the working tree and ends the session.
	ActionDiscard
	// ActionCommit commits already-staged content and publishes.
	ActionCommit
)

func (k ActionKind) String() string {
	switch k {
	case ActionExplain:
		return "explain"
	case ActionRetry:
		return "retry"
	case ActionDirect:
		return "direct"
	case ActionApply:
		return "apply"
	case ActionAbort:
		return "abort"
	case ActionDiscard:
		return "discard"
	case ActionCommit:
		return "commit"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is an operator action, optionally carrying retry feedback.
type Action struct {
	Kind     ActionKind
	Feedback string
}

// EffectKind identifies a side effect the driver must execute.
type EffectKind int

const (
	// EffectShowExplanation displays the stored explanation text.
	EffectShowExplanation EffectKind = iota
	// EffectRegenerate asks the collaborator for a new change set using the
	// prior one plus the carried feedback.
	EffectRegenerate
	// EffectPublish performs branch create, apply-and-commit, and PR create
	// with the current change set.
	EffectPublish
	// EffectApply stages all changes onto the working tree.
	EffectApply
	// EffectRestore restores every staged path from its pre-image.
	EffectRestore
	// EffectCommitStaged commits already-staged content and creates the PR.
	EffectCommitStaged
)

// Effect is one side effect emitted by a transition. Effects are executed in
// order by the driver.
type Effect struct {
	Kind     EffectKind
	Feedback string
}

// ErrInvalidAction is returned when an action is not valid in the current
// state.
var ErrInvalidAction = errors.New("action not valid in current state")

// ErrContractViolation is returned when a local-only action reaches a
// backend without local-review support. The driver's menus never offer such
// actions, so hitting this indicates a wiring bug rather than operator
// error.
var ErrContractViolation = errors.New("local-only action on a backend without local review")

// Step computes the transition for an action. localReview reports whether
// the backend supports the two-stage apply/commit flow; backends without it
// skip LocallyApplied entirely.
func Step(state State, act Action, localReview bool) (State, []Effect, error) {
	switch state {
	case Generated:
		switch act.Kind {
		case ActionExplain:
			return Generated, []Effect{{Kind: EffectShowExplanation}}, nil
		case ActionRetry:
			return Generated, []Effect{{Kind: EffectRegenerate, Feedback: act.Feedback}}, nil
		case ActionDirect:
			return Committed, []Effect{{Kind: EffectPublish}}, nil
		case ActionApply:
			if !localReview {
				return state, nil, fmt.Errorf("%w: %s", ErrContractViolation, act.Kind)
			}
			return LocallyApplied, []Effect{{Kind: EffectApply}}, nil
		case ActionAbort:
			return Aborted, nil, nil
		}

	case LocallyApplied:
		if !localReview {
			return state, nil, fmt.Errorf("%w: state %s", ErrContractViolation, state)
		}
		switch act.Kind {
		case ActionDiscard:
			return Aborted, []Effect{{Kind: EffectRestore}}, nil
		case ActionRetry:
			return Generated, []Effect{
				{Kind: EffectRestore},
				{Kind: EffectRegenerate, Feedback: act.Feedback},
			}, nil
		case ActionCommit:
			return Committed, []Effect{{Kind: EffectCommitStaged}}, nil
		}

	case Committed, Aborted:
		return state, nil, fmt.Errorf("%w: session already %s", ErrInvalidAction, state)
	}

	return state, nil, fmt.Errorf("%w: %s in state %s", ErrInvalidAction, act.Kind, state)
}

// AvailableActions lists the actions valid in a state for the given backend
// capability. The driver derives its menu from this, so the two workflow
// variants collapse into one parameterized machine.
func AvailableActions(state State, localReview bool) []ActionKind {
	switch state {
	case Generated:
		if localReview {
			return []ActionKind{ActionApply, ActionDirect, ActionRetry, ActionExplain, ActionAbort}
		}
		return []ActionKind{ActionDirect, ActionRetry, ActionExplain, ActionAbort}
	case LocallyApplied:
		return []ActionKind{ActionCommit, ActionDiscard, ActionRetry}
	default:
		return nil
	}
}
