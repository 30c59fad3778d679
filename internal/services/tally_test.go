package services

import (
	"math/rand"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyTally() IdeaTally {
	return IdeaTally{Choices: map[string]models.VoteChoice{}}
}

func TestApplyIdeaVoteTransitions(t *testing.T) {
	tests := []struct {
		name             string
		prev             models.VoteChoice
		action           VoteAction
		wantUp, wantDown int
		wantChoice       models.VoteChoice
		wantChanged      bool
	}{
		{"none up", "", ActionUp, 1, 0, models.ChoiceUp, true},
		{"none down", "", ActionDown, 0, 1, models.ChoiceDown, true},
		{"none remove", "", ActionRemove, 0, 0, "", false},
		{"up up", models.ChoiceUp, ActionUp, 1, 0, models.ChoiceUp, false},
		{"up down", models.ChoiceUp, ActionDown, 0, 1, models.ChoiceDown, true},
		{"up remove", models.ChoiceUp, ActionRemove, 0, 0, "", true},
		{"down up", models.ChoiceDown, ActionUp, 1, 0, models.ChoiceUp, true},
		{"down down", models.ChoiceDown, ActionDown, 0, 1, models.ChoiceDown, false},
		{"down remove", models.ChoiceDown, ActionRemove, 0, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := emptyTally()
			switch tt.prev {
			case models.ChoiceUp:
				start.Up = 1
				start.Choices["a"] = models.ChoiceUp
			case models.ChoiceDown:
				start.Down = 1
				start.Choices["a"] = models.ChoiceDown
			}

			next, tr, err := ApplyIdeaVote(start, "a", tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUp, next.Up)
			assert.Equal(t, tt.wantDown, next.Down)
			assert.Equal(t, tt.wantChoice, next.Choices["a"])
			assert.Equal(t, tt.wantChanged, tr.Changed)
			assert.Equal(t, tt.prev, tr.Previous)

			_, held := next.Choices["a"]
			assert.Equal(t, tt.wantChoice != "", held)
		})
	}
}

func TestApplyIdeaVoteDoesNotMutateInput(t *testing.T) {
	start := emptyTally()
	start.Up = 1
	start.Choices["a"] = models.ChoiceUp

	_, _, err := ApplyIdeaVote(start, "a", ActionDown)
	require.NoError(t, err)
	assert.Equal(t, 1, start.Up)
	assert.Equal(t, models.ChoiceUp, start.Choices["a"])
}

func TestApplyIdeaVoteRejectsUnknownAction(t *testing.T) {
	_, _, err := ApplyIdeaVote(emptyTally(), "a", VoteAction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestApplyIdeaVoteNewUpVote(t *testing.T) {
	_, tr, _ := ApplyIdeaVote(emptyTally(), "a", ActionUp)
	assert.True(t, tr.NewUpVote())

	start := emptyTally()
	start.Up = 1
	start.Choices["a"] = models.ChoiceUp
	_, tr, _ = ApplyIdeaVote(start, "a", ActionUp)
	assert.False(t, tr.NewUpVote())

	start = emptyTally()
	start.Down = 1
	start.Choices["a"] = models.ChoiceDown
	_, tr, _ = ApplyIdeaVote(start, "a", ActionUp)
	assert.True(t, tr.NewUpVote())
}

func assertIdeaInvariant(t *testing.T, tally IdeaTally) {
	t.Helper()
	up, down := 0, 0
	for _, c := range tally.Choices {
		switch c {
		case models.ChoiceUp:
			up++
		case models.ChoiceDown:
			down++
		}
	}
	require.Equal(t, up, tally.Up)
	require.Equal(t, down, tally.Down)
	require.GreaterOrEqual(t, tally.Up, 0)
	require.GreaterOrEqual(t, tally.Down, 0)
}

func TestApplyIdeaVoteRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	voters := []string{"a", "b", "c", "d", "e"}
	actions := []VoteAction{ActionUp, ActionDown, ActionRemove}

	for run := 0; run < 200; run++ {
		tally := emptyTally()
		for step := 0; step < 50; step++ {
			next, _, err := ApplyIdeaVote(tally, voters[rng.Intn(len(voters))], actions[rng.Intn(len(actions))])
			require.NoError(t, err)
			assertIdeaInvariant(t, next)
			tally = next
		}
	}
}

func TestApplyIdeaVoteRemoveRestores(t *testing.T) {
	start := emptyTally()
	start.Up, start.Down = 3, 2
	for _, v := range []string{"x", "y", "z"} {
		start.Choices[v] = models.ChoiceUp
	}
	start.Choices["p"] = models.ChoiceDown
	start.Choices["q"] = models.ChoiceDown

	for _, action := range []VoteAction{ActionUp, ActionDown} {
		voted, _, err := ApplyIdeaVote(start, "new", action)
		require.NoError(t, err)
		removed, _, err := ApplyIdeaVote(voted, "new", ActionRemove)
		require.NoError(t, err)
		assert.Equal(t, start, removed)
	}
}

func TestIdeaScenario(t *testing.T) {
	tally := emptyTally()
	steps := []struct {
		voter    string
		action   VoteAction
		up, down int
	}{
		{"A", ActionUp, 1, 0},
		{"B", ActionUp, 2, 0},
		{"A", ActionDown, 1, 1},
		{"A", ActionRemove, 0, 1},
	}
	for _, s := range steps {
		var err error
		tally, _, err = ApplyIdeaVote(tally, s.voter, s.action)
		require.NoError(t, err)
		assert.Equal(t, s.up, tally.Up)
		assert.Equal(t, s.down, tally.Down)
	}
}

func TestApplyPollVote(t *testing.T) {
	tally := PollTally{Votes: map[string]int{"red": 0, "blue": 0}, Choices: map[string]string{}}

	tally, changed := ApplyPollVote(tally, "A", "red")
	assert.True(t, changed)
	assert.Equal(t, map[string]int{"red": 1, "blue": 0}, tally.Votes)

	tally, changed = ApplyPollVote(tally, "A", "blue")
	assert.True(t, changed)
	assert.Equal(t, map[string]int{"red": 0, "blue": 1}, tally.Votes)

	tally, changed = ApplyPollVote(tally, "A", "blue")
	assert.False(t, changed)
	assert.Equal(t, map[string]int{"red": 0, "blue": 1}, tally.Votes)
	assert.Equal(t, "blue", tally.Choices["A"])
}

func TestApplyPollVoteRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	options := []string{"a", "b", "c"}
	voters := []string{"u1", "u2", "u3", "u4"}

	tally := PollTally{Votes: map[string]int{"a": 0, "b": 0, "c": 0}, Choices: map[string]string{}}
	for step := 0; step < 500; step++ {
		tally, _ = ApplyPollVote(tally, voters[rng.Intn(len(voters))], options[rng.Intn(len(options))])

		sum := 0
		for _, o := range options {
			held := 0
			for _, c := range tally.Choices {
				if c == o {
					held++
				}
			}
			require.Equal(t, held, tally.Votes[o])
			sum += tally.Votes[o]
		}
		require.Equal(t, len(tally.Choices), sum)
	}
}

func TestSortIdeas(t *testing.T) {
	base := mustTime(t, "2024-01-01T00:00:00Z")
	ideas := []models.Idea{
		{ID: "old-top", VotesUp: 5, CreatedAt: base},
		{ID: "new-flat", CommentsCount: 1, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid-chatty", VotesUp: 1, VotesDown: 3, CommentsCount: 4, CreatedAt: base.Add(time.Hour)},
	}

	ids := func() []string {
		out := make([]string, len(ideas))
		for i, idea := range ideas {
			out[i] = idea.ID
		}
		return out
	}

	SortIdeas(ideas, SortRecent)
	assert.Equal(t, []string{"new-flat", "mid-chatty", "old-top"}, ids())

	SortIdeas(ideas, SortTop)
	assert.Equal(t, []string{"old-top", "new-flat", "mid-chatty"}, ids())

	SortIdeas(ideas, SortActive)
	assert.Equal(t, []string{"mid-chatty", "new-flat", "old-top"}, ids())

	assert.Equal(t, SortRecent, ParseIdeaSort("bogus"))
	assert.Equal(t, SortTop, ParseIdeaSort("top"))
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
