package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agora/internal/db"
	"agora/internal/models"

	"github.com/pkg/errors"
)

// Report resolution actions.
const (
	ReportActionDelete  = "delete"
	ReportActionDismiss = "dismiss"
)

type ReportInput struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

type ReportReview struct {
	Status     models.ReportStatus
	Resolution string
	Action     string
}

type ReportService struct {
	store    *db.Store
	ideas    *IdeaService
	effects  *Effects
	notifier *Notifier
}

func NewReportService(store *db.Store, ideas *IdeaService, effects *Effects, notifier *Notifier) *ReportService {
	return &ReportService{store: store, ideas: ideas, effects: effects, notifier: notifier}
}

func (s *ReportService) contentExists(ctx context.Context, contentType, id string) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	var model interface{}
	switch contentType {
	case models.ContentIdea:
		model = &models.Idea{}
	case models.ContentComment:
		model = &models.Comment{}
	case models.ContentPoll:
		model = &models.Poll{}
	default:
		return Invalid("unknown content type")
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return StoreErr(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// Create files a report. Reported ideas are flagged and moderators notified.
func (s *ReportService) Create(ctx context.Context, reporter *models.User, in ReportInput) (*models.Report, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, Invalid("reason is required")
	}
	if err := s.contentExists(ctx, in.ContentType, in.ContentID); err != nil {
		return nil, err
	}

	report := &models.Report{
		ContentType: in.ContentType,
		ContentID:   in.ContentID,
		ReporterID:  reporter.ID,
		Reason:      in.Reason,
		Description: in.Description,
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Create(report).Error; err != nil {
		return nil, StoreErr(err)
	}
	if in.ContentType == models.ContentIdea {
		if err := tx.Model(&models.Idea{}).Where("id = ?", in.ContentID).Update("is_reported", true).Error; err != nil {
			return nil, StoreErr(err)
		}
	}

	s.effects.Go("report notification", func(ctx context.Context) error {
		s.notifier.NotifyRole(ctx, reporter.ID, models.RoleModerator, models.Notification{
			Type:    models.NotificationReport,
			Title:   "New report",
			Message: fmt.Sprintf("A %s was reported: %s", report.ContentType, report.Reason),
			Link:    "/admin/reports",
		})
		return nil
	})
	return report, nil
}

// List returns reports, optionally filtered by status, newest first.
func (s *ReportService) List(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	if status != "" && !status.Valid() {
		return nil, Invalid("invalid report status")
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	q := tx.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reports []models.Report
	return reports, StoreErr(q.Find(&reports).Error)
}

// Review records a moderator decision. Action delete removes the reported
// content with its dependents; dismiss clears the idea flag.
func (s *ReportService) Review(ctx context.Context, reviewer *models.User, id string, r ReportReview) (*models.Report, error) {
	if r.Status == "" {
		r.Status = models.ReportResolved
	}
	if !r.Status.Valid() {
		return nil, Invalid("invalid report status")
	}
	if r.Action != "" && r.Action != ReportActionDelete && r.Action != ReportActionDismiss {
		return nil, Invalid("invalid report action")
	}

	report, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch r.Action {
	case ReportActionDelete:
		if err := s.deleteContent(ctx, report); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	case ReportActionDismiss:
		if report.ContentType == models.ContentIdea {
			tx, cancel := s.store.Ctx(ctx)
			err := tx.Model(&models.Idea{}).Where("id = ?", report.ContentID).Update("is_reported", false).Error
			cancel()
			if err != nil {
				return nil, StoreErr(err)
			}
		}
	}

	now := time.Now()
	report.Status = r.Status
	report.Resolution = r.Resolution
	report.ReviewerID = &reviewer.ID
	report.ReviewedAt = &now

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Save(report).Error; err != nil {
		return nil, StoreErr(err)
	}
	return report, nil
}

func (s *ReportService) get(ctx context.Context, id string) (*models.Report, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var report models.Report
	if err := tx.First(&report, "id = ?", id).Error; err != nil {
		return nil, StoreErr(err)
	}
	return &report, nil
}

func (s *ReportService) deleteContent(ctx context.Context, report *models.Report) error {
	switch report.ContentType {
	case models.ContentIdea:
		idea, err := s.ideas.load(ctx, report.ContentID)
		if err != nil {
			return err
		}
		return s.ideas.remove(ctx, idea)
	case models.ContentComment:
		tx, cancel := s.store.Ctx(ctx)
		defer cancel()
		var comment models.Comment
		if err := tx.First(&comment, "id = ?", report.ContentID).Error; err != nil {
			return StoreErr(err)
		}
		return StoreErr(deleteComment(tx, &comment))
	case models.ContentPoll:
		tx, cancel := s.store.Ctx(ctx)
		defer cancel()
		return StoreErr(tx.Delete(&models.Poll{}, "id = ?", report.ContentID).Error)
	}
	return Invalid("unknown content type")
}
