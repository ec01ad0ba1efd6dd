package repository

import (
	"context"
	"errors"

	"atelier/internal/cache"
	"atelier/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	// DeleteWithRequests removes the category and every request filed under
	// it in one transaction. It returns the removed request count and the
	// blob keys those requests referenced.
	DeleteWithRequests(ctx context.Context, id uint) (int64, []string, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Category", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *categoryRepository) DeleteWithRequests(ctx context.Context, id uint) (int64, []string, error) {
	var (
		removed int64
		keys    []string
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Category", id)
			}
			return models.NewInternalError(err)
		}

		var doomed []models.DesignRequest
		if err := tx.Select("id", "image", "design_image").
			Where("category_id = ?", id).
			Find(&doomed).Error; err != nil {
			return models.NewInternalError(err)
		}
		for _, req := range doomed {
			keys = append(keys, blobKeys(&req)...)
		}

		res := tx.Where("category_id = ?", id).Delete(&models.DesignRequest{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		removed = res.RowsAffected

		if err := tx.Delete(&category).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	if removed > 0 {
		cache.InvalidateRequestSummaries(ctx, statusNames()...)
	}
	return removed, keys, nil
}

func blobKeys(req *models.DesignRequest) []string {
	keys := make([]string, 0, 2)
	if req.Image != "" {
		keys = append(keys, req.Image)
	}
	if req.HasDesignImage() {
		keys = append(keys, *req.DesignImage)
	}
	return keys
}

func statusNames() []string {
	names := make([]string, 0, len(models.RequestStatuses))
	for _, s := range models.RequestStatuses {
		names = append(names, string(s))
	}
	return names
}
