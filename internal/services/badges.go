package services

import (
	"context"
	"fmt"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/metrics"
	"agora/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Badge thresholds.
const (
	IdeaCreatorThreshold    = 1
	TopContributorThreshold = 10
	ActiveVoterThreshold    = 20
	ContributorThreshold    = 10
)

var badgeTitles = map[string]string{
	models.BadgeIdeaCreator:    "Idea creator",
	models.BadgeTopContributor: "Top contributor",
	models.BadgeActiveVoter:    "Active voter",
	models.BadgeContributor:    "Contributor",
}

// BadgeAwarder recomputes a user's badges from their activity.
type BadgeAwarder struct {
	store    *db.Store
	cfg      *config.Config
	notifier *Notifier
	effects  *Effects
	metrics  *metrics.MetricService
}

func NewBadgeAwarder(store *db.Store, cfg *config.Config, effects *Effects, notifier *Notifier, ms *metrics.MetricService) *BadgeAwarder {
	return &BadgeAwarder{store: store, cfg: cfg, effects: effects, notifier: notifier, metrics: ms}
}

// EvaluateAsync schedules Evaluate as a side effect of an activity.
func (s *BadgeAwarder) EvaluateAsync(userID string) {
	s.effects.Go("badge evaluation", func(ctx context.Context) error {
		_, err := s.Evaluate(ctx, userID)
		return err
	})
}

// Activity is what badges are computed from.
type Activity struct {
	Ideas    int64
	Votes    int64
	Comments int64
}

// EarnedBadges lists every badge the activity qualifies for.
func EarnedBadges(a Activity) []string {
	var out []string
	if a.Ideas >= IdeaCreatorThreshold {
		out = append(out, models.BadgeIdeaCreator)
	}
	if a.Ideas >= TopContributorThreshold {
		out = append(out, models.BadgeTopContributor)
	}
	if a.Votes >= ActiveVoterThreshold {
		out = append(out, models.BadgeActiveVoter)
	}
	if a.Comments >= ContributorThreshold {
		out = append(out, models.BadgeContributor)
	}
	return out
}

func (s *BadgeAwarder) activity(ctx context.Context, userID string) (Activity, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	var a Activity
	if err := tx.Model(&models.Idea{}).Where("author_id = ?", userID).Count(&a.Ideas).Error; err != nil {
		return a, err
	}
	if err := tx.Model(&models.Idea{}).Where(db.JSONHasKey(tx, "user_votes"), userID).Count(&a.Votes).Error; err != nil {
		return a, err
	}
	if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&a.Comments).Error; err != nil {
		return a, err
	}
	return a, nil
}

// Evaluate checks every threshold for userID and appends missing badges. It
// returns the badges added by this run; concurrent runs never add one twice.
func (s *BadgeAwarder) Evaluate(ctx context.Context, userID string) ([]string, error) {
	a, err := s.activity(ctx, userID)
	if err != nil {
		return nil, StoreErr(err)
	}
	earned := EarnedBadges(a)
	if len(earned) == 0 {
		return nil, nil
	}

	var added []string
	err = withCAS(ctx, s.cfg, nil, func() error {
		added = nil

		tx, cancel := s.store.Ctx(ctx)
		defer cancel()

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return StoreErr(err)
		}
		badges := append(datatypes.JSONSlice[string]{}, user.Badges...)
		for _, b := range earned {
			if !user.HasBadge(b) {
				badges = append(badges, b)
				added = append(added, b)
			}
		}
		if len(added) == 0 {
			return nil
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND version = ?", user.ID, user.Version).
			Updates(map[string]interface{}{
				"badges":  badges,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return StoreErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range added {
		s.metrics.BadgeAwarded(b)
		s.notifier.Notify(ctx, "", models.Notification{
			UserID:  userID,
			Type:    models.NotificationBadge,
			Title:   "New badge",
			Message: fmt.Sprintf("You earned the %q badge", badgeTitles[b]),
			Link:    "/profile",
		})
	}
	return added, nil
}
