package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/observability"
	"atelier/internal/policy"
	"atelier/internal/repository"
	"atelier/internal/storage"
	"atelier/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// GalleryLimit is the number of finished designs shown on the home page.
const GalleryLimit = 4

// RequestService is the design request lifecycle engine.
type RequestService struct {
	requests   repository.DesignRequestRepository
	categories repository.CategoryRepository
	blobs      storage.Store
	publisher  events.Publisher
}

// NewRequestService wires the engine. A nil publisher disables events.
func NewRequestService(
	requests repository.DesignRequestRepository,
	categories repository.CategoryRepository,
	blobs storage.Store,
	publisher events.Publisher,
) *RequestService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &RequestService{
		requests:   requests,
		categories: categories,
		blobs:      blobs,
		publisher:  publisher,
	}
}

type SubmitInput struct {
	Title       string
	Description string
	CategoryID  uint
	Image       *ImageUpload
}

type TransitionInput struct {
	Status       string
	AdminComment string
	DesignImage  *ImageUpload
}

// Submit creates a new request owned by actor.
func (s *RequestService) Submit(ctx context.Context, actor policy.Actor, in SubmitInput) (_ *models.DesignRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "RequestService.Submit", attribute.Int("owner_id", int(actor.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := policy.Authorize(actor, policy.ActionSubmit, policy.Resource{OwnerID: actor.UserID}); err != nil {
		return nil, err
	}

	var fields []models.FieldError
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields = append(fields, models.FieldError{Field: "title", Reason: models.ReasonRequired})
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		fields = append(fields, models.FieldError{Field: "description", Reason: models.ReasonRequired})
	}

	var category *models.Category
	if in.CategoryID == 0 {
		fields = append(fields, models.FieldError{Field: "category_id", Reason: models.ReasonRequired})
	} else {
		category, err = s.categories.GetByID(ctx, in.CategoryID)
		switch {
		case models.IsCode(err, models.CodeNotFound):
			fields = append(fields, models.FieldError{Field: "category_id", Reason: models.ReasonNotFound})
		case err != nil:
			return nil, err
		}
	}

	if in.Image == nil {
		fields = append(fields, models.FieldError{Field: "image", Reason: models.ReasonRequired})
	} else {
		fields = append(fields, validation.ImageFieldErrors("image", validation.ValidateImage(in.Image))...)
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	key := newBlobKey(requestImagePrefix, in.Image.Filename)
	if _, err := s.blobs.Put(ctx, key, in.Image.Body, in.Image.Length, in.Image.ContentType); err != nil {
		return nil, models.NewInternalError(err)
	}

	req := &models.DesignRequest{
		OwnerID:     actor.UserID,
		Title:       title,
		Description: description,
		CategoryID:  in.CategoryID,
		Image:       key,
		Status:      models.RequestStatusNew,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		s.removeBlobs(ctx, key)
		return nil, err
	}
	req.Category = category

	observability.RequestsSubmitted.Inc()
	s.publish(ctx, events.FromRequest(events.RequestSubmitted, req))
	return req, nil
}

// Transition moves a request forward on behalf of staff. Failures are
// reported in a fixed order: FORBIDDEN, NOT_FOUND, INVALID_STATUS,
// INVALID_STATE, then field validation.
func (s *RequestService) Transition(ctx context.Context, actor policy.Actor, id uint, in TransitionInput) (_ *models.DesignRequest, err error) {
	ctx, span := observability.StartSpan(ctx, "RequestService.Transition",
		attribute.Int("request_id", int(id)), attribute.String("target", in.Status))
	defer func() { observability.EndSpan(span, err) }()

	if err := policy.Authorize(actor, policy.ActionTransition, policy.Resource{}); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, ok := models.ParseRequestStatus(in.Status)
	if !ok || !target.IsReviewTarget() {
		return nil, models.NewInvalidStatusError(in.Status)
	}
	from := req.Status
	if !models.CanTransition(from, target) {
		return nil, models.NewInvalidStateError("Cannot move request from " + string(from) + " to " + string(target))
	}

	var image validation.File
	if in.DesignImage != nil {
		image = in.DesignImage
	}
	if fields := validation.ValidateReview(target, in.AdminComment, req.HasDesignImage(), image); len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	update := repository.ReviewUpdate{
		Status:       target,
		AdminComment: strings.TrimSpace(in.AdminComment),
	}
	var newKey string
	if in.DesignImage != nil {
		newKey = newBlobKey(designImagePrefix, in.DesignImage.Filename)
		if _, err := s.blobs.Put(ctx, newKey, in.DesignImage.Body, in.DesignImage.Length, in.DesignImage.ContentType); err != nil {
			return nil, models.NewInternalError(err)
		}
		update.DesignImage = &newKey
	}

	if err := s.requests.ApplyReview(ctx, id, from, update); err != nil {
		if newKey != "" {
			s.removeBlobs(ctx, newKey)
		}
		return nil, err
	}

	if newKey != "" && req.HasDesignImage() {
		s.removeBlobs(ctx, *req.DesignImage)
	}

	req.Status = update.Status
	req.AdminComment = update.AdminComment
	if update.DesignImage != nil {
		req.DesignImage = update.DesignImage
	}

	observability.RequestTransitions.WithLabelValues(string(from), string(target)).Inc()
	if typ, ok := events.TypeForStatus(target); ok {
		s.publish(ctx, events.FromRequest(typ, req))
	}
	return req, nil
}

// Delete withdraws a request that is still new.
func (s *RequestService) Delete(ctx context.Context, actor policy.Actor, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "RequestService.Delete", attribute.Int("request_id", int(id)))
	defer func() { observability.EndSpan(span, err) }()

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ForRequest(req)); err != nil {
		return err
	}

	removed, err := s.requests.DeleteIfNew(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewInvalidStateError("Only new requests can be deleted")
	}

	s.removeBlobs(ctx, req.Image)
	cause := "owner"
	if actor.IsStaff {
		cause = "staff"
	}
	observability.RequestsDeleted.WithLabelValues(cause).Inc()
	s.publish(ctx, events.FromRequest(events.RequestDeleted, req))
	return nil
}

// Get returns one request visible to actor.
func (s *RequestService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.DesignRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionView, policy.ForRequest(req)); err != nil {
		return nil, err
	}
	return req, nil
}

// ListForOwner returns ownerID's requests, newest first. Only the owner may
// list them.
func (s *RequestService) ListForOwner(ctx context.Context, actor policy.Actor, ownerID uint) ([]models.DesignRequest, error) {
	if err := policy.Authorize(actor, policy.ActionListOwn, policy.Resource{OwnerID: ownerID}); err != nil {
		return nil, err
	}
	return s.requests.List(ctx, repository.RequestFilter{OwnerID: ownerID})
}

// ListAll returns every request for staff, optionally filtered by status.
func (s *RequestService) ListAll(ctx context.Context, actor policy.Actor, statusFilter string) ([]models.DesignRequest, error) {
	if err := policy.Authorize(actor, policy.ActionListAll, policy.Resource{}); err != nil {
		return nil, err
	}
	filter := repository.RequestFilter{}
	if strings.TrimSpace(statusFilter) != "" {
		status, ok := models.ParseRequestStatus(statusFilter)
		if !ok {
			return nil, models.NewInvalidStatusError(statusFilter)
		}
		filter.Status = status
	}
	return s.requests.List(ctx, filter)
}

// RecentCompleted returns the newest finished designs.
func (s *RequestService) RecentCompleted(ctx context.Context, limit int) ([]models.DesignRequest, error) {
	if limit <= 0 {
		limit = GalleryLimit
	}
	return s.requests.RecentCompleted(ctx, limit)
}

// CountByStatus returns how many requests are in status.
func (s *RequestService) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	return s.requests.CountByStatus(ctx, status)
}

// HomeSummary is the public landing page payload.
type HomeSummary struct {
	Completed  []models.DesignRequest `json:"completed_requests"`
	InProgress int64                  `json:"in_progress_count"`
}

// Home builds the public gallery and in-progress counter.
func (s *RequestService) Home(ctx context.Context) (*HomeSummary, error) {
	recent, err := s.RecentCompleted(ctx, GalleryLimit)
	if err != nil {
		return nil, err
	}
	for i := range recent {
		recent[i].Owner = nil
	}
	inProgress, err := s.CountByStatus(ctx, models.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.DesignRequest{}
	}
	return &HomeSummary{Completed: recent, InProgress: inProgress}, nil
}

// Dashboard is the staff overview of request counts.
type Dashboard struct {
	Counts map[models.RequestStatus]int64 `json:"counts"`
	Total  int64                          `json:"total"`
}

// Dashboard returns per-status counts for staff.
func (s *RequestService) Dashboard(ctx context.Context, actor policy.Actor) (*Dashboard, error) {
	if err := policy.Authorize(actor, policy.ActionListAll, policy.Resource{}); err != nil {
		return nil, err
	}
	d := &Dashboard{Counts: make(map[models.RequestStatus]int64, len(models.RequestStatuses))}
	for _, status := range models.RequestStatuses {
		n, err := s.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		d.Counts[status] = n
		d.Total += n
	}
	return d, nil
}

func (s *RequestService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish lifecycle event",
			"type", ev.Type, "request_id", ev.RequestID, "err", err)
	}
}

// removeBlobs deletes keys best-effort; failures are logged only.
func (s *RequestService) removeBlobs(ctx context.Context, keys ...string) {
	removeBlobs(ctx, s.blobs, keys...)
}

func removeBlobs(ctx context.Context, blobs storage.Store, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "failed to remove blob", "key", key, "err", err)
		}
	}
}
