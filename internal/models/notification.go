package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationNewComment   NotificationType = "new_comment"
	NotificationNewVote      NotificationType = "new_vote"
	NotificationStatusChange NotificationType = "status_change"
	NotificationRoleChange   NotificationType = "role_change"
	NotificationBadge        NotificationType = "badge"
	NotificationReport       NotificationType = "report" // sent to moderators
	NotificationSystem       NotificationType = "system"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"size:36;not null;index" json:"user_id"` // Receiver
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = newID()
	}
	return nil
}
