package services

import (
	"context"
	"strings"

	"agora/internal/db"
	"agora/internal/models"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// CategoryService manages categories. Ideas and polls keep a name snapshot,
// so a rename only affects content created afterwards.
type CategoryService struct {
	store *db.Store
}

func NewCategoryService(store *db.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var categories []models.Category
	return categories, StoreErr(tx.Order("name ASC").Find(&categories).Error)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var cat models.Category
	if err := tx.First(&cat, "id = ?", id).Error; err != nil {
		return nil, StoreErr(err)
	}
	return &cat, nil
}

func (s *CategoryService) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var count int64
	err := tx.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error
	return count > 0, StoreErr(err)
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Invalid("name is required")
	}
	taken, err := s.nameTaken(ctx, in.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	cat := &models.Category{Name: in.Name, Description: in.Description, Icon: in.Icon, Color: in.Color}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Create(cat).Error; err != nil {
		return nil, StoreErr(err)
	}
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	cat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Invalid("name is required")
	}
	taken, err := s.nameTaken(ctx, in.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	cat.Name, cat.Description, cat.Icon, cat.Color = in.Name, in.Description, in.Icon, in.Color
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	if err := tx.Save(cat).Error; err != nil {
		return nil, StoreErr(err)
	}
	return cat, nil
}

// Delete removes the category. Ideas and polls keep their snapshot name.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	res := tx.Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return StoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
