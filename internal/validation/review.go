package validation

import (
	"errors"
	"strings"

	"atelier/internal/models"
)

// ImageFieldErrors translates a ValidateImage result into field errors.
func ImageFieldErrors(field string, err error) []models.FieldError {
	var fields []models.FieldError
	if errors.Is(err, ErrImageTooLarge) {
		fields = append(fields, models.FieldError{Field: field, Reason: models.ReasonSizeExceeded})
	}
	if errors.Is(err, ErrUnsupportedImageFormat) {
		fields = append(fields, models.FieldError{Field: field, Reason: models.ReasonUnsupportedFormat})
	}
	return fields
}

// ValidateReview checks the fields a staff review must carry to move a
// request into target. image is the newly supplied design image and may be
// nil; hasStoredImage reports whether one is already on file. Every
// transition path goes through this function before anything is written.
func ValidateReview(target models.RequestStatus, comment string, hasStoredImage bool, image File) []models.FieldError {
	var fields []models.FieldError

	switch target {
	case models.RequestStatusAccepted:
		if strings.TrimSpace(comment) == "" {
			fields = append(fields, models.FieldError{Field: "admin_comment", Reason: models.ReasonRequired})
		}
	case models.RequestStatusCompleted:
		if image == nil && !hasStoredImage {
			fields = append(fields, models.FieldError{Field: "design_image", Reason: models.ReasonRequired})
		}
	}

	if image != nil {
		fields = append(fields, ImageFieldErrors("design_image", ValidateImage(image))...)
	}

	return fields
}
