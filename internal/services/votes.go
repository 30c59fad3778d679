package services

import (
	"context"
	"fmt"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/metrics"
	"agora/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VoteService applies votes to ideas and polls. Writes for one target are
// serialised in-process by a keyed mutex and across processes by a
// compare-and-swap on the row version.
type VoteService struct {
	store    *db.Store
	cfg      *config.Config
	locks    *keyedMutex
	effects  *Effects
	notifier *Notifier
	badges   *BadgeAwarder
	metrics  *metrics.MetricService
	now      func() time.Time
}

func NewVoteService(store *db.Store, cfg *config.Config, effects *Effects, notifier *Notifier, badges *BadgeAwarder, ms *metrics.MetricService) *VoteService {
	return &VoteService{
		store:    store,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		effects:  effects,
		notifier: notifier,
		badges:   badges,
		metrics:  ms,
		now:      time.Now,
	}
}

// VoteIdea applies action for voter and returns the idea as persisted.
func (s *VoteService) VoteIdea(ctx context.Context, voter *models.User, ideaID string, action VoteAction) (*models.Idea, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	unlock := s.locks.Lock("ideas/" + ideaID)
	defer unlock()

	var (
		idea models.Idea
		tr   IdeaTransition
	)
	err := withCAS(ctx, s.cfg, func() { s.metrics.VoteConflict("idea") }, func() error {
		tx, cancel := s.store.Ctx(ctx)
		defer cancel()

		idea = models.Idea{}
		if err := tx.First(&idea, "id = ?", ideaID).Error; err != nil {
			return StoreErr(err)
		}

		next, t, err := ApplyIdeaVote(IdeaTally{Up: idea.VotesUp, Down: idea.VotesDown, Choices: idea.Choices()}, voter.ID, action)
		if err != nil {
			return err
		}
		tr = t
		if !t.Changed {
			return nil
		}

		res := tx.Model(&models.Idea{}).
			Where("id = ? AND version = ?", idea.ID, idea.Version).
			Updates(map[string]interface{}{
				"votes_up":   next.Up,
				"votes_down": next.Down,
				"user_votes": datatypes.NewJSONType(next.Choices),
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return StoreErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		idea.VotesUp = next.Up
		idea.VotesDown = next.Down
		idea.UserVotes = datatypes.NewJSONType(next.Choices)
		idea.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tr.Changed {
		s.metrics.VoteApplied("idea", string(action))
	}
	if tr.NewUpVote() && idea.AuthorID != voter.ID {
		authorID, title, link := idea.AuthorID, idea.Title, "/ideas/"+idea.ID
		name := voter.Name
		s.effects.Go("vote notification", func(ctx context.Context) error {
			s.notifier.Notify(ctx, voter.ID, models.Notification{
				UserID:  authorID,
				Type:    models.NotificationNewVote,
				Title:   "New vote",
				Message: fmt.Sprintf("%s supported your idea %q", name, title),
				Link:    link,
			})
			return nil
		})
	}
	s.badges.EvaluateAsync(voter.ID)
	return &idea, nil
}

// VotePoll records option as voter's choice and returns the poll as persisted.
func (s *VoteService) VotePoll(ctx context.Context, voter *models.User, pollID, option string) (*models.Poll, error) {
	unlock := s.locks.Lock("polls/" + pollID)
	defer unlock()

	var (
		poll    models.Poll
		changed bool
	)
	err := withCAS(ctx, s.cfg, func() { s.metrics.VoteConflict("poll") }, func() error {
		tx, cancel := s.store.Ctx(ctx)
		defer cancel()

		poll = models.Poll{}
		if err := tx.First(&poll, "id = ?", pollID).Error; err != nil {
			return StoreErr(err)
		}
		if poll.Expired(s.now()) {
			return ErrPollExpired
		}
		if !poll.HasOption(option) {
			return ErrInvalidOption
		}

		votes, choices := poll.Tallies()
		next, ok := ApplyPollVote(PollTally{Votes: votes, Choices: choices}, voter.ID, option)
		changed = ok
		if !ok {
			return nil
		}

		res := tx.Model(&models.Poll{}).
			Where("id = ? AND version = ?", poll.ID, poll.Version).
			Updates(map[string]interface{}{
				"votes":      datatypes.NewJSONType(next.Votes),
				"user_votes": datatypes.NewJSONType(next.Choices),
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return StoreErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		poll.Votes = datatypes.NewJSONType(next.Votes)
		poll.UserVotes = datatypes.NewJSONType(next.Choices)
		poll.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.VoteApplied("poll", "vote")
	}
	s.badges.EvaluateAsync(voter.ID)
	return &poll, nil
}
