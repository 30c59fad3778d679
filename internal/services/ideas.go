package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IdeaListCap bounds how many ideas a listing considers before paging.
const IdeaListCap = 1000

const (
	DefaultPerPage = 30
	MaxPerPage     = 100
)

type IdeaFilter struct {
	Search     string
	Tag        string
	CategoryID string
	Status     models.IdeaStatus
	Sort       IdeaSort
	Page       int
	PerPage    int
}

type IdeaInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  *string  `json:"category_id"`
}

type IdeaService struct {
	store    *db.Store
	cfg      *config.Config
	uploads  *Uploader
	notifier *Notifier
	badges   *BadgeAwarder
	effects  *Effects
}

func NewIdeaService(store *db.Store, cfg *config.Config, uploads *Uploader, effects *Effects, notifier *Notifier, badges *BadgeAwarder) *IdeaService {
	return &IdeaService{store: store, cfg: cfg, uploads: uploads, effects: effects, notifier: notifier, badges: badges}
}

// CanModify reports whether user may edit or delete content owned by ownerID.
func CanModify(user *models.User, ownerID string) bool {
	return user.ID == ownerID || user.Role.AtLeast(models.RoleModerator)
}

// List filters in storage, then sorts and pages the capped result set.
func (s *IdeaService) List(ctx context.Context, f IdeaFilter) ([]models.Idea, int, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	q := tx.Model(&models.Idea{})
	if f.Search != "" {
		like := "%" + db.EscapeLike(strings.ToLower(f.Search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	if f.Tag != "" {
		q = q.Where(db.JSONContains(tx, "tags"), f.Tag)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var ideas []models.Idea
	if err := q.Order("created_at DESC").Limit(IdeaListCap).Find(&ideas).Error; err != nil {
		return nil, 0, StoreErr(err)
	}
	SortIdeas(ideas, f.Sort)

	total := len(ideas)
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	start := (page - 1) * perPage
	if start >= total {
		return []models.Idea{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return ideas[start:end], total, nil
}

// Get loads one idea with its rendered description.
func (s *IdeaService) Get(ctx context.Context, id string) (*models.Idea, error) {
	idea, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	idea.DescriptionHTML = utils.RenderMarkdown(idea.Description)
	return idea, nil
}

func (s *IdeaService) load(ctx context.Context, id string) (*models.Idea, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var idea models.Idea
	if err := tx.First(&idea, "id = ?", id).Error; err != nil {
		return nil, StoreErr(err)
	}
	return &idea, nil
}

func (s *IdeaService) categoryName(ctx context.Context, id *string) (string, error) {
	if id == nil || *id == "" {
		return "", nil
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var cat models.Category
	if err := tx.First(&cat, "id = ?", *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", Invalid("unknown category")
		}
		return "", StoreErr(err)
	}
	return cat.Name, nil
}

func cleanTags(tags []string) datatypes.JSONSlice[string] {
	out := datatypes.JSONSlice[string]{}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(utils.PlainText(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func validateIdea(in IdeaInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return Invalid("title is required")
	}
	if len(in.Title) > 200 {
		return Invalid("title is too long")
	}
	if strings.TrimSpace(in.Description) == "" {
		return Invalid("description is required")
	}
	return nil
}

func (s *IdeaService) Create(ctx context.Context, author *models.User, in IdeaInput) (*models.Idea, error) {
	if err := validateIdea(in); err != nil {
		return nil, err
	}
	catName, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if catName == "" {
		in.CategoryID = nil
	}

	idea := &models.Idea{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Tags:         cleanTags(in.Tags),
		CategoryID:   in.CategoryID,
		CategoryName: catName,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Create(idea).Error; err != nil {
		return nil, StoreErr(err)
	}

	s.badges.EvaluateAsync(author.ID)
	return idea, nil
}

// Update edits the author-owned fields. Votes, status and counters are
// untouched.
func (s *IdeaService) Update(ctx context.Context, user *models.User, id string, in IdeaInput) (*models.Idea, error) {
	idea, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModify(user, idea.AuthorID) {
		return nil, ErrForbidden
	}
	if err := validateIdea(in); err != nil {
		return nil, err
	}
	catName, err := s.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if catName == "" {
		in.CategoryID = nil
	}

	updates := map[string]interface{}{
		"title":         strings.TrimSpace(in.Title),
		"description":   in.Description,
		"tags":          cleanTags(in.Tags),
		"category_id":   in.CategoryID,
		"category_name": catName,
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Model(&models.Idea{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, StoreErr(err)
	}
	return s.Get(ctx, id)
}

// SetStatus changes the moderation status and tells the author.
func (s *IdeaService) SetStatus(ctx context.Context, moderator *models.User, id string, status models.IdeaStatus) (*models.Idea, error) {
	if !status.Valid() {
		return nil, Invalid("invalid status")
	}
	idea, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if idea.Status == status {
		return idea, nil
	}

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Model(&models.Idea{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, StoreErr(err)
	}
	idea.Status = status

	authorID, title, link := idea.AuthorID, idea.Title, "/ideas/"+idea.ID
	s.effects.Go("status notification", func(ctx context.Context) error {
		s.notifier.Notify(ctx, moderator.ID, models.Notification{
			UserID:  authorID,
			Type:    models.NotificationStatusChange,
			Title:   "Idea status changed",
			Message: fmt.Sprintf("Your idea %q is now %s", title, status),
			Link:    link,
		})
		return nil
	})
	return idea, nil
}

// Delete removes the idea, its comments and its attachment files.
func (s *IdeaService) Delete(ctx context.Context, user *models.User, id string) error {
	idea, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(user, idea.AuthorID) {
		return ErrForbidden
	}
	return s.remove(ctx, idea)
}

func (s *IdeaService) remove(ctx context.Context, idea *models.Idea) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	err := tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idea_id = ?", idea.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Idea{}, "id = ?", idea.ID).Error
	})
	if err != nil {
		return StoreErr(err)
	}

	for _, a := range idea.Attachments {
		if err := s.uploads.Remove(ctx, a.Name); err != nil {
			log.Printf("Failed to remove attachment %s of idea %s: %v", a.Name, idea.ID, err)
		}
	}
	return nil
}

// Attach appends an already stored file to the idea. The append is a
// version-checked write so concurrent uploads never drop each other.
func (s *IdeaService) Attach(ctx context.Context, user *models.User, id string, a models.Attachment) (*models.Idea, error) {
	var idea *models.Idea
	err := withCAS(ctx, s.cfg, nil, func() error {
		var err error
		idea, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if !CanModify(user, idea.AuthorID) {
			return ErrForbidden
		}

		attachments := append(datatypes.JSONSlice[models.Attachment]{}, idea.Attachments...)
		attachments = append(attachments, a)

		tx, cancel := s.store.Ctx(ctx)
		defer cancel()
		res := tx.Model(&models.Idea{}).
			Where("id = ? AND version = ?", id, idea.Version).
			Updates(map[string]interface{}{
				"attachments": attachments,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return StoreErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}
		idea.Attachments = attachments
		idea.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idea, nil
}
