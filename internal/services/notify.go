package services

import (
	"context"
	"log"

	"agora/internal/db"
	"agora/internal/metrics"
	"agora/internal/models"
)

// NotificationListLimit bounds a notification listing.
const NotificationListLimit = 50

// Notifier persists notifications. Emission is best-effort: failures are
// logged and counted, never returned to the triggering operation.
type Notifier struct {
	store   *db.Store
	metrics *metrics.MetricService
}

func NewNotifier(store *db.Store, ms *metrics.MetricService) *Notifier {
	return &Notifier{store: store, metrics: ms}
}

// Notify stores n for n.UserID unless the actor is the recipient.
func (s *Notifier) Notify(ctx context.Context, actorID string, n models.Notification) {
	if n.UserID == "" || n.UserID == actorID {
		return
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Create(&n).Error; err != nil {
		log.Printf("Failed to create %s notification for %s: %v", n.Type, n.UserID, err)
		s.metrics.NotificationFailed()
	}
}

// NotifyRole sends a copy of n to every non-banned user holding at least min.
func (s *Notifier) NotifyRole(ctx context.Context, actorID string, min models.Role, n models.Notification) {
	roles := make([]models.Role, 0, 3)
	for _, r := range []models.Role{models.RoleUser, models.RoleModerator, models.RoleAdmin} {
		if r.AtLeast(min) {
			roles = append(roles, r)
		}
	}

	tx, cancel := s.store.Ctx(ctx)
	var ids []string
	err := tx.Model(&models.User{}).
		Where("role IN ? AND is_banned = ?", roles, false).
		Pluck("id", &ids).Error
	cancel()
	if err != nil {
		log.Printf("Failed to load %s recipients: %v", min, err)
		s.metrics.NotificationFailed()
		return
	}
	for _, id := range ids {
		m := n
		m.ID = ""
		m.UserID = id
		s.Notify(ctx, actorID, m)
	}
}

// List returns the newest notifications of userID.
func (s *Notifier) List(ctx context.Context, userID string) ([]models.Notification, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var out []models.Notification
	err := tx.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(NotificationListLimit).
		Find(&out).Error
	return out, StoreErr(err)
}

func (s *Notifier) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var count int64
	err := tx.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, StoreErr(err)
}

// MarkRead marks one notification as read. Other users' notifications are
// reported as not found.
func (s *Notifier) MarkRead(ctx context.Context, userID, id string) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	res := tx.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return StoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *Notifier) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	res := tx.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, StoreErr(res.Error)
}

func (s *Notifier) Delete(ctx context.Context, userID, id string) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return StoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
