package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Poll struct {
	ID           string                                `gorm:"primaryKey;size:36" json:"id"`
	Title        string                                `gorm:"not null" json:"title"`
	Description  string                                `gorm:"type:text" json:"description"`
	Options      datatypes.JSONSlice[string]           `json:"options"`
	Votes        datatypes.JSONType[map[string]int]    `json:"votes"`
	UserVotes    datatypes.JSONType[map[string]string] `json:"user_votes"`
	CategoryID   *string                               `gorm:"size:36;index" json:"category_id"`
	CategoryName string                                `json:"category_name"`
	AuthorID     string                                `gorm:"size:36;not null;index" json:"author_id"`
	AuthorName   string                                `json:"author_name"`
	EndsAt       *time.Time                            `json:"ends_at"`
	Version      int64                                 `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time                             `gorm:"index" json:"created_at"`
}

func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Votes.Data() == nil {
		votes := make(map[string]int, len(p.Options))
		for _, o := range p.Options {
			votes[o] = 0
		}
		p.Votes = datatypes.NewJSONType(votes)
	}
	if p.UserVotes.Data() == nil {
		p.UserVotes = datatypes.NewJSONType(map[string]string{})
	}
	return nil
}

// Expired reports whether voting is closed at now. Results stay readable.
func (p *Poll) Expired(now time.Time) bool {
	return p.EndsAt != nil && now.After(*p.EndsAt)
}

func (p *Poll) HasOption(option string) bool {
	for _, o := range p.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Tallies returns copies of the option counts and the per-user choices.
func (p *Poll) Tallies() (map[string]int, map[string]string) {
	votes := make(map[string]int, len(p.Options))
	for _, o := range p.Options {
		votes[o] = 0
	}
	for k, v := range p.Votes.Data() {
		votes[k] = v
	}
	choices := make(map[string]string, len(p.UserVotes.Data()))
	for k, v := range p.UserVotes.Data() {
		choices[k] = v
	}
	return votes, choices
}
