package services

import (
	"context"
	"fmt"

	"agora/internal/db"
	"agora/internal/models"

	"github.com/pkg/errors"
)

type AdminService struct {
	store    *db.Store
	effects  *Effects
	notifier *Notifier
}

func NewAdminService(store *db.Store, effects *Effects, notifier *Notifier) *AdminService {
	return &AdminService{store: store, effects: effects, notifier: notifier}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var users []models.User
	return users, StoreErr(tx.Order("created_at DESC").Find(&users).Error)
}

func (s *AdminService) user(ctx context.Context, id string) (*models.User, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		return nil, StoreErr(err)
	}
	return &user, nil
}

// SetRole changes a user's role and tells them.
func (s *AdminService) SetRole(ctx context.Context, admin *models.User, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, Invalid("invalid role")
	}
	user, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Model(&models.User{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		return nil, StoreErr(err)
	}
	user.Role = role

	s.effects.Go("role notification", func(ctx context.Context) error {
		s.notifier.Notify(ctx, admin.ID, models.Notification{
			UserID:  id,
			Type:    models.NotificationRoleChange,
			Title:   "Role changed",
			Message: fmt.Sprintf("Your role is now %s", role),
		})
		return nil
	})
	return user, nil
}

// SetBanned bans or unbans a user. Admins cannot ban themselves.
func (s *AdminService) SetBanned(ctx context.Context, admin *models.User, id string, banned bool) (*models.User, error) {
	if admin.ID == id && banned {
		return nil, errors.Wrap(ErrForbidden, "cannot ban yourself")
	}
	user, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Model(&models.User{}).Where("id = ?", id).Update("is_banned", banned).Error; err != nil {
		return nil, StoreErr(err)
	}
	user.IsBanned = banned
	return user, nil
}
