package services

import (
	"context"
	"strings"
	"time"

	"agora/internal/db"
	"agora/internal/models"

	"gorm.io/datatypes"
)

// PollListLimit bounds a poll listing.
const PollListLimit = 100

type PollInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	CategoryID  *string    `json:"category_id"`
	EndsAt      *time.Time `json:"ends_at"`
}

type PollService struct {
	store *db.Store
	ideas *IdeaService
}

func NewPollService(store *db.Store, ideas *IdeaService) *PollService {
	return &PollService{store: store, ideas: ideas}
}

func (s *PollService) List(ctx context.Context, categoryID string) ([]models.Poll, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	q := tx.Order("created_at DESC").Limit(PollListLimit)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	var polls []models.Poll
	return polls, StoreErr(q.Find(&polls).Error)
}

// Get returns the poll whether or not it has expired.
func (s *PollService) Get(ctx context.Context, id string) (*models.Poll, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var poll models.Poll
	if err := tx.First(&poll, "id = ?", id).Error; err != nil {
		return nil, StoreErr(err)
	}
	return &poll, nil
}

// Create requires at least two distinct non-empty options.
func (s *PollService) Create(ctx context.Context, author *models.User, in PollInput) (*models.Poll, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Invalid("title is required")
	}
	options := datatypes.JSONSlice[string]{}
	seen := make(map[string]bool, len(in.Options))
	for _, o := range in.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, Invalid("options must not be empty")
		}
		if seen[o] {
			return nil, Invalid("duplicate option " + o)
		}
		seen[o] = true
		options = append(options, o)
	}
	if len(options) < 2 {
		return nil, Invalid("a poll needs at least two options")
	}
	if in.EndsAt != nil && !in.EndsAt.After(time.Now()) {
		return nil, Invalid("ends_at must be in the future")
	}
	catName, err := s.ideas.categoryName(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if catName == "" {
		in.CategoryID = nil
	}

	poll := &models.Poll{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Options:      options,
		CategoryID:   in.CategoryID,
		CategoryName: catName,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		EndsAt:       in.EndsAt,
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Create(poll).Error; err != nil {
		return nil, StoreErr(err)
	}
	return poll, nil
}

func (s *PollService) Delete(ctx context.Context, user *models.User, id string) error {
	poll, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(user, poll.AuthorID) {
		return ErrForbidden
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	return StoreErr(tx.Delete(&models.Poll{}, "id = ?", id).Error)
}
