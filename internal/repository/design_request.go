package repository

import (
	"context"
	"errors"
	"time"

	"atelier/internal/cache"
	"atelier/internal/models"

	"gorm.io/gorm"
)

// RequestFilter narrows a request scan. Zero values mean "any".
type RequestFilter struct {
	OwnerID uint
	Status  models.RequestStatus
	Limit   int
}

// ReviewUpdate is the write side of a staff transition.
type ReviewUpdate struct {
	Status       models.RequestStatus
	AdminComment string
	// DesignImage replaces the stored design when non-nil.
	DesignImage *string
}

// DesignRequestRepository defines persistence operations for design requests.
type DesignRequestRepository interface {
	Create(ctx context.Context, req *models.DesignRequest) error
	GetByID(ctx context.Context, id uint) (*models.DesignRequest, error)
	// ApplyReview writes u in a single UPDATE guarded by the expected current
	// status. It returns INVALID_STATE if the row moved on in the meantime.
	ApplyReview(ctx context.Context, id uint, from models.RequestStatus, u ReviewUpdate) error
	// DeleteIfNew removes the request only while its status is new and
	// reports whether a row was removed.
	DeleteIfNew(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter RequestFilter) ([]models.DesignRequest, error)
	RecentCompleted(ctx context.Context, limit int) ([]models.DesignRequest, error)
	CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error)
}

type designRequestRepository struct {
	db *gorm.DB
}

// NewDesignRequestRepository returns a new DesignRequestRepository implementation.
func NewDesignRequestRepository(db *gorm.DB) DesignRequestRepository {
	return &designRequestRepository{db: db}
}

func (r *designRequestRepository) Create(ctx context.Context, req *models.DesignRequest) error {
	if err := r.db.WithContext(ctx).Omit("Owner", "Category").Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateRequestSummaries(ctx, string(req.Status))
	return nil
}

func (r *designRequestRepository) GetByID(ctx context.Context, id uint) (*models.DesignRequest, error) {
	var req models.DesignRequest
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Category").
		First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *designRequestRepository) ApplyReview(ctx context.Context, id uint, from models.RequestStatus, u ReviewUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":        u.Status,
			"admin_comment": u.AdminComment,
			"updated_at":    time.Now().UTC(),
		}
		if u.DesignImage != nil {
			updates["design_image"] = *u.DesignImage
		}

		res := tx.Model(&models.DesignRequest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewInvalidStateError("Request status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateRequestSummaries(ctx, string(from), string(u.Status))
	return nil
}

func (r *designRequestRepository) DeleteIfNew(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.RequestStatusNew).
		Delete(&models.DesignRequest{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidateRequestSummaries(ctx, string(models.RequestStatusNew))
	return true, nil
}

func (r *designRequestRepository) List(ctx context.Context, filter RequestFilter) ([]models.DesignRequest, error) {
	q := r.db.WithContext(ctx).Preload("Category")
	if filter.OwnerID != 0 {
		q = q.Where("owner_id = ?", filter.OwnerID)
	} else {
		q = q.Preload("Owner")
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var requests []models.DesignRequest
	if err := q.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *designRequestRepository) RecentCompleted(ctx context.Context, limit int) ([]models.DesignRequest, error) {
	if limit <= 0 {
		limit = 4
	}
	if limit > 50 {
		limit = 50
	}

	var requests []models.DesignRequest
	err := cache.Aside(ctx, cache.RecentCompletedKey(limit), &requests, cache.RecentCompletedTTL, func() error {
		if err := r.db.WithContext(ctx).
			Preload("Category").
			Where("status = ?", models.RequestStatusCompleted).
			Order("created_at DESC").
			Order("id DESC").
			Limit(limit).
			Find(&requests).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *designRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.RequestCountKey(string(status)), &count, cache.RequestCountTTL, func() error {
		if err := r.db.WithContext(ctx).
			Model(&models.DesignRequest{}).
			Where("status = ?", status).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
