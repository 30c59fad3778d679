package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IdeaStatus string

const (
	StatusDiscussion IdeaStatus = "discussion"
	StatusApproved   IdeaStatus = "approved"
	StatusRejected   IdeaStatus = "rejected"
	StatusInProgress IdeaStatus = "in_progress"
)

func (s IdeaStatus) Valid() bool {
	switch s {
	case StatusDiscussion, StatusApproved, StatusRejected, StatusInProgress:
		return true
	}
	return false
}

// VoteChoice is a user's current vote on an idea.
type VoteChoice string

const (
	ChoiceUp   VoteChoice = "up"
	ChoiceDown VoteChoice = "down"
)

// Attachment is a stored file hanging off an idea. It lives and dies with the idea.
type Attachment struct {
	Name        string `json:"name"` // generated storage name
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

type Idea struct {
	ID            string                                    `gorm:"primaryKey;size:36" json:"id"`
	Title         string                                    `gorm:"not null" json:"title"`
	Description   string                                    `gorm:"type:text" json:"description"`
	Tags          datatypes.JSONSlice[string]               `json:"tags"`
	CategoryID    *string                                   `gorm:"size:36;index" json:"category_id"`
	CategoryName  string                                    `json:"category_name"` // snapshot, not kept in sync on rename
	Status        IdeaStatus                                `gorm:"size:20;default:'discussion';index;not null" json:"status"`
	AuthorID      string                                    `gorm:"size:36;not null;index" json:"author_id"`
	AuthorName    string                                    `json:"author_name"`
	VotesUp       int                                       `gorm:"not null;default:0" json:"votes_up"`
	VotesDown     int                                       `gorm:"not null;default:0" json:"votes_down"`
	UserVotes     datatypes.JSONType[map[string]VoteChoice] `json:"user_votes"`
	CommentsCount int                                       `gorm:"not null;default:0" json:"comments_count"`
	Attachments   datatypes.JSONSlice[Attachment]           `json:"attachments"`
	IsReported    bool                                      `gorm:"default:false" json:"is_reported"`
	Version       int64                                     `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time                                 `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                                 `json:"updated_at"`

	// Filled on detail reads only.
	DescriptionHTML string `gorm:"-" json:"description_html,omitempty"`
}

func (i *Idea) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = newID()
	}
	if i.Status == "" {
		i.Status = StatusDiscussion
	}
	if i.Tags == nil {
		i.Tags = datatypes.JSONSlice[string]{}
	}
	if i.Attachments == nil {
		i.Attachments = datatypes.JSONSlice[Attachment]{}
	}
	if i.UserVotes.Data() == nil {
		i.UserVotes = datatypes.NewJSONType(map[string]VoteChoice{})
	}
	return nil
}

// Choices returns a copy of the per-user vote map.
func (i *Idea) Choices() map[string]VoteChoice {
	src := i.UserVotes.Data()
	out := make(map[string]VoteChoice, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// NetScore is the "top" ordering key.
func (i *Idea) NetScore() int {
	return i.VotesUp - i.VotesDown
}
