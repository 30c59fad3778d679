package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment belongs to exactly one idea and is deleted with it.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	IdeaID    string    `gorm:"size:36;not null;index" json:"idea_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}
