package services

import (
	"agora/internal/models"
)

// VoteAction is what a voter asks for on an idea.
type VoteAction string

const (
	ActionUp     VoteAction = "up"
	ActionDown   VoteAction = "down"
	ActionRemove VoteAction = "remove"
)

func (a VoteAction) Valid() bool {
	switch a {
	case ActionUp, ActionDown, ActionRemove:
		return true
	}
	return false
}

// IdeaTally is the vote state of one idea.
type IdeaTally struct {
	Up      int
	Down    int
	Choices map[string]models.VoteChoice
}

// IdeaTransition describes the outcome of one vote.
type IdeaTransition struct {
	Previous models.VoteChoice // "" when the voter had no vote
	Current  models.VoteChoice
	Changed  bool
}

// NewUpVote is true when the step created an up vote that did not exist before.
func (t IdeaTransition) NewUpVote() bool {
	return t.Changed && t.Current == models.ChoiceUp && t.Previous != models.ChoiceUp
}

// ApplyIdeaVote applies one action for voter and returns the new tally. The
// input tally is not modified.
//
//	prev \ action | up              | down            | remove
//	none          | up+1            | down+1          | no-op
//	up            | no-op           | up-1, down+1    | up-1
//	down          | down-1, up+1    | no-op           | down-1
func ApplyIdeaVote(t IdeaTally, voter string, action VoteAction) (IdeaTally, IdeaTransition, error) {
	if !action.Valid() {
		return t, IdeaTransition{}, ErrInvalidAction
	}

	next := IdeaTally{Up: t.Up, Down: t.Down, Choices: make(map[string]models.VoteChoice, len(t.Choices)+1)}
	for k, v := range t.Choices {
		next.Choices[k] = v
	}

	prev := next.Choices[voter]
	tr := IdeaTransition{Previous: prev, Current: prev}

	var want models.VoteChoice
	switch action {
	case ActionUp:
		want = models.ChoiceUp
	case ActionDown:
		want = models.ChoiceDown
	}
	if want == prev {
		return next, tr, nil
	}

	switch prev {
	case models.ChoiceUp:
		next.Up--
	case models.ChoiceDown:
		next.Down--
	}
	switch want {
	case models.ChoiceUp:
		next.Up++
		next.Choices[voter] = want
	case models.ChoiceDown:
		next.Down++
		next.Choices[voter] = want
	default:
		delete(next.Choices, voter)
	}

	tr.Current = want
	tr.Changed = true
	return next, tr, nil
}

// PollTally is the vote state of one poll.
type PollTally struct {
	Votes   map[string]int
	Choices map[string]string
}

// ApplyPollVote records option as voter's choice. Switching moves one vote from
// the old option to the new one; re-voting the held option changes nothing.
// Option membership and expiry are checked by the caller.
func ApplyPollVote(t PollTally, voter, option string) (PollTally, bool) {
	next := PollTally{
		Votes:   make(map[string]int, len(t.Votes)),
		Choices: make(map[string]string, len(t.Choices)+1),
	}
	for k, v := range t.Votes {
		next.Votes[k] = v
	}
	for k, v := range t.Choices {
		next.Choices[k] = v
	}

	prev, had := next.Choices[voter]
	if had && prev == option {
		return next, false
	}
	if had && next.Votes[prev] > 0 {
		next.Votes[prev]--
	}
	next.Choices[voter] = option
	next.Votes[option]++
	return next, true
}
