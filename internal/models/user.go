package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// level orders roles so that access checks are a single comparison.
func (r Role) level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// AtLeast reports whether r grants every capability of min.
func (r Role) AtLeast(min Role) bool {
	return r.level() >= min.level() && r.level() > 0
}

func (r Role) Valid() bool {
	return r.level() > 0
}

const (
	BadgeIdeaCreator    = "idea_creator"
	BadgeTopContributor = "top_contributor"
	BadgeActiveVoter    = "active_voter"
	BadgeContributor    = "contributor"
)

type User struct {
	ID        string                      `gorm:"primaryKey;size:36" json:"id"`
	Email     string                      `gorm:"uniqueIndex;not null" json:"email"`
	Password  string                      `gorm:"not null" json:"-"` // bcrypt hash
	Name      string                      `gorm:"not null" json:"name"`
	Role      Role                        `gorm:"size:20;default:'user';not null" json:"role"`
	IsBanned  bool                        `gorm:"default:false" json:"is_banned"`
	Badges    datatypes.JSONSlice[string] `json:"badges"`
	Version   int64                       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"-"`
	// Users are never hard deleted.
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Badges == nil {
		u.Badges = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (u *User) HasBadge(badge string) bool {
	for _, b := range u.Badges {
		if b == badge {
			return true
		}
	}
	return false
}
