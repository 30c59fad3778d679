package models

import (
	"time"

	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportReviewed || s == ReportResolved
}

// Reportable content kinds.
const (
	ContentIdea    = "idea"
	ContentComment = "comment"
	ContentPoll    = "poll"
)

type Report struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ContentType string       `gorm:"size:20;not null" json:"content_type"`
	ContentID   string       `gorm:"size:36;not null;index" json:"content_id"`
	ReporterID  string       `gorm:"size:36;not null;index" json:"reporter_id"`
	Reason      string       `gorm:"size:200;not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"`
	Status      ReportStatus `gorm:"size:20;default:'pending';not null;index" json:"status"`
	Resolution  string       `json:"resolution,omitempty"`
	ReviewerID  *string      `gorm:"size:36" json:"reviewer_id,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = ReportPending
	}
	return nil
}
