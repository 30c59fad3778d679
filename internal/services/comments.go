package services

import (
	"context"
	"fmt"
	"strings"

	"agora/internal/db"
	"agora/internal/models"

	"gorm.io/gorm"
)

// CommentListLimit bounds a comment listing.
const CommentListLimit = 1000

type CommentService struct {
	store    *db.Store
	effects  *Effects
	notifier *Notifier
	badges   *BadgeAwarder
}

func NewCommentService(store *db.Store, effects *Effects, notifier *Notifier, badges *BadgeAwarder) *CommentService {
	return &CommentService{store: store, effects: effects, notifier: notifier, badges: badges}
}

// List returns the comments of an idea, newest first.
func (s *CommentService) List(ctx context.Context, ideaID string) ([]models.Comment, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var comments []models.Comment
	err := tx.Where("idea_id = ?", ideaID).
		Order("created_at DESC").
		Limit(CommentListLimit).
		Find(&comments).Error
	return comments, StoreErr(err)
}

// Create stores the comment and bumps the idea's counter in one transaction.
func (s *CommentService) Create(ctx context.Context, author *models.User, ideaID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Invalid("comment text is required")
	}

	comment := &models.Comment{IdeaID: ideaID, UserID: author.ID, UserName: author.Name, Text: text}
	var idea models.Idea

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	err := tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&idea, "id = ?", ideaID).Error; err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Idea{}).Where("id = ?", ideaID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return nil, StoreErr(err)
	}

	authorID, title, link := idea.AuthorID, idea.Title, "/ideas/"+idea.ID
	s.effects.Go("comment notification", func(ctx context.Context) error {
		s.notifier.Notify(ctx, author.ID, models.Notification{
			UserID:  authorID,
			Type:    models.NotificationNewComment,
			Title:   "New comment",
			Message: fmt.Sprintf("%s commented on your idea %q", author.Name, title),
			Link:    link,
		})
		return nil
	})
	s.badges.EvaluateAsync(author.ID)
	return comment, nil
}

// Delete removes a comment and decrements the idea's counter, never below zero.
func (s *CommentService) Delete(ctx context.Context, user *models.User, id string) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	var comment models.Comment
	if err := tx.First(&comment, "id = ?", id).Error; err != nil {
		return StoreErr(err)
	}
	if !CanModify(user, comment.UserID) {
		return ErrForbidden
	}
	return StoreErr(deleteComment(tx, &comment))
}

func deleteComment(tx *gorm.DB, comment *models.Comment) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "id = ?", comment.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Idea{}).
			Where("id = ? AND comments_count > 0", comment.IdeaID).
			UpdateColumn("comments_count", gorm.Expr("comments_count - 1")).Error
	})
}
