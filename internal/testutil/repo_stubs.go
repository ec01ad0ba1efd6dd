// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"atelier/internal/models"
	"atelier/internal/repository"
)

// UserRepoStub is an in-memory user repository for tests.
type UserRepoStub struct {
	mu     sync.Mutex
	items  map[uint]*models.User
	nextID uint
}

// NewUserRepoStub creates an empty UserRepoStub.
func NewUserRepoStub() *UserRepoStub {
	return &UserRepoStub{items: make(map[uint]*models.User), nextID: 1}
}

func (s *UserRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}

func (s *UserRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserRepoStub) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if u.Username == user.Username {
			return models.NewFieldValidationError([]models.FieldError{{Field: "username", Reason: models.ReasonTaken}})
		}
		if strings.EqualFold(u.Email, user.Email) {
			return models.NewFieldValidationError([]models.FieldError{{Field: "email", Reason: models.ReasonTaken}})
		}
	}
	user.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.items[user.ID] = &cp
	return nil
}

func (s *UserRepoStub) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[user.ID]; !ok {
		return models.NewNotFoundError("User", user.ID)
	}
	cp := *user
	s.items[user.ID] = &cp
	return nil
}

// Add stores u directly and returns it with an ID assigned.
func (s *UserRepoStub) Add(u models.User) *models.User {
	_ = s.Create(context.Background(), &u)
	return &u
}

// CategoryRepoStub is an in-memory category repository that cascades into
// a RequestRepoStub on delete.
type CategoryRepoStub struct {
	mu       sync.Mutex
	items    map[uint]*models.Category
	nextID   uint
	requests *RequestRepoStub
}

// NewCategoryRepoStub creates an empty CategoryRepoStub. requests may be nil.
func NewCategoryRepoStub(requests *RequestRepoStub) *CategoryRepoStub {
	return &CategoryRepoStub{items: make(map[uint]*models.Category), nextID: 1, requests: requests}
}

func (s *CategoryRepoStub) List(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CategoryRepoStub) GetByID(_ context.Context, id uint) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("Category", id)
	}
	cp := *c
	return &cp, nil
}

func (s *CategoryRepoStub) Create(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = s.nextID
	s.nextID++
	category.CreatedAt = time.Now().UTC()
	cp := *category
	s.items[category.ID] = &cp
	return nil
}

func (s *CategoryRepoStub) DeleteWithRequests(_ context.Context, id uint) (int64, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return 0, nil, models.NewNotFoundError("Category", id)
	}
	var (
		removed int64
		keys    []string
	)
	if s.requests != nil {
		removed, keys = s.requests.removeCategory(id)
	}
	delete(s.items, id)
	return removed, keys, nil
}

// Add stores a category with name and returns it.
func (s *CategoryRepoStub) Add(name string) *models.Category {
	c := &models.Category{Name: name}
	_ = s.Create(context.Background(), c)
	return c
}

// RequestRepoStub is an in-memory design request repository.
type RequestRepoStub struct {
	mu     sync.Mutex
	items  map[uint]*models.DesignRequest
	nextID uint
	users  *UserRepoStub
	// Now stamps CreatedAt when set; defaults to time.Now.
	Now func() time.Time
}

// NewRequestRepoStub creates an empty RequestRepoStub. users, when given,
// is used to fill the Owner association on reads.
func NewRequestRepoStub(users *UserRepoStub) *RequestRepoStub {
	return &RequestRepoStub{items: make(map[uint]*models.DesignRequest), nextID: 1, users: users}
}

func (s *RequestRepoStub) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *RequestRepoStub) withOwner(r *models.DesignRequest) *models.DesignRequest {
	cp := *r
	if cp.DesignImage != nil {
		img := *cp.DesignImage
		cp.DesignImage = &img
	}
	if s.users != nil {
		if u, err := s.users.GetByID(context.Background(), cp.OwnerID); err == nil {
			cp.Owner = u
		}
	}
	return &cp
}

func (s *RequestRepoStub) Create(_ context.Context, req *models.DesignRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = s.nextID
	s.nextID++
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	req.UpdatedAt = req.CreatedAt
	cp := *req
	cp.Owner, cp.Category = nil, nil
	s.items[req.ID] = &cp
	return nil
}

func (s *RequestRepoStub) GetByID(_ context.Context, id uint) (*models.DesignRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("Request", id)
	}
	return s.withOwner(r), nil
}

func (s *RequestRepoStub) ApplyReview(_ context.Context, id uint, from models.RequestStatus, u repository.ReviewUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok || r.Status != from {
		return models.NewInvalidStateError("Request status changed concurrently")
	}
	r.Status = u.Status
	r.AdminComment = u.AdminComment
	if u.DesignImage != nil {
		img := *u.DesignImage
		r.DesignImage = &img
	}
	r.UpdatedAt = s.now()
	return nil
}

func (s *RequestRepoStub) DeleteIfNew(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok || r.Status != models.RequestStatusNew {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *RequestRepoStub) List(_ context.Context, filter repository.RequestFilter) ([]models.DesignRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DesignRequest
	for _, r := range s.items {
		if filter.OwnerID != 0 && r.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *s.withOwner(r))
	}
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *RequestRepoStub) RecentCompleted(ctx context.Context, limit int) ([]models.DesignRequest, error) {
	if limit <= 0 {
		limit = 4
	}
	return s.List(ctx, repository.RequestFilter{Status: models.RequestStatusCompleted, Limit: limit})
}

func (s *RequestRepoStub) CountByStatus(_ context.Context, status models.RequestStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.items {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored requests.
func (s *RequestRepoStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Put stores r as-is, assigning an ID when missing.
func (s *RequestRepoStub) Put(r models.DesignRequest) *models.DesignRequest {
	_ = s.Create(context.Background(), &r)
	return &r
}

func (s *RequestRepoStub) removeCategory(categoryID uint) (int64, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		removed int64
		keys    []string
	)
	for id, r := range s.items {
		if r.CategoryID != categoryID {
			continue
		}
		keys = append(keys, r.Image)
		if r.HasDesignImage() {
			keys = append(keys, *r.DesignImage)
		}
		delete(s.items, id)
		removed++
	}
	return removed, keys
}

func sortNewestFirst(rs []models.DesignRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}
