package service

import (
	"context"
	"log/slog"
	"strings"

	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/policy"
	"atelier/internal/repository"
	"atelier/internal/storage"
)

// CategoryService manages the staff-curated category registry.
type CategoryService struct {
	categories repository.CategoryRepository
	blobs      storage.Store
}

func NewCategoryService(categories repository.CategoryRepository, blobs storage.Store) *CategoryService {
	return &CategoryService{categories: categories, blobs: blobs}
}

// List is open to everyone, anonymous callers included.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, actor policy.Actor, name string) (*models.Category, error) {
	if err := policy.Authorize(actor, policy.ActionManageCategories, policy.Resource{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewFieldValidationError([]models.FieldError{{Field: "name", Reason: models.ReasonRequired}})
	}

	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category together with every request filed under it and
// returns how many requests went with it.
func (s *CategoryService) Delete(ctx context.Context, actor policy.Actor, id uint) (int64, error) {
	if err := policy.Authorize(actor, policy.ActionManageCategories, policy.Resource{}); err != nil {
		return 0, err
	}

	removed, keys, err := s.categories.DeleteWithRequests(ctx, id)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		observability.RequestsDeleted.WithLabelValues("category").Add(float64(removed))
		slog.InfoContext(ctx, "category deleted with requests", "category_id", id, "removed", removed)
	}
	removeBlobs(ctx, s.blobs, keys...)
	return removed, nil
}
