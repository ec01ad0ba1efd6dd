package validation

import (
	"errors"
	"testing"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeFile struct {
	name string
	size int64
}

func (f fakeFile) Name() string { return f.name }
func (f fakeFile) Size() int64  { return f.size }

func TestValidateImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		file        fakeFile
		tooLarge    bool
		unsupported bool
	}{
		{name: "jpg under limit", file: fakeFile{"room.jpg", 500 * 1024}},
		{name: "upper-case extension", file: fakeFile{"ROOM.JPEG", 1024}},
		{name: "png at exact limit", file: fakeFile{"room.png", MaxImageBytes}},
		{name: "bmp", file: fakeFile{"scan.bmp", 10}},
		{name: "one byte over", file: fakeFile{"room.png", MaxImageBytes + 1}, tooLarge: true},
		{name: "gif", file: fakeFile{"photo.gif", 1024}, unsupported: true},
		{name: "no extension", file: fakeFile{"photo", 1024}, unsupported: true},
		{name: "both failures", file: fakeFile{"photo.webp", 3 * 1024 * 1024}, tooLarge: true, unsupported: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImage(tc.file)
			assert.Equal(t, tc.tooLarge, errors.Is(err, ErrImageTooLarge))
			assert.Equal(t, tc.unsupported, errors.Is(err, ErrUnsupportedImageFormat))
			if !tc.tooLarge && !tc.unsupported {
				assert.NoError(t, err)
			}
		})
	}
}

func TestImageFieldErrors(t *testing.T) {
	t.Parallel()

	fields := ImageFieldErrors("image", ValidateImage(fakeFile{"a.gif", MaxImageBytes * 2}))
	assert.Equal(t, []models.FieldError{
		{Field: "image", Reason: models.ReasonSizeExceeded},
		{Field: "image", Reason: models.ReasonUnsupportedFormat},
	}, fields)

	assert.Empty(t, ImageFieldErrors("image", nil))
}

func TestValidateReview(t *testing.T) {
	t.Parallel()

	good := fakeFile{"design.png", 2048}

	tests := []struct {
		name     string
		target   models.RequestStatus
		comment  string
		stored   bool
		image    File
		expected []models.FieldError
	}{
		{name: "accept with comment", target: models.RequestStatusAccepted, comment: "Will start Monday"},
		{name: "accept with blank comment", target: models.RequestStatusAccepted, comment: "   ",
			expected: []models.FieldError{{Field: "admin_comment", Reason: models.ReasonRequired}}},
		{name: "complete with new image", target: models.RequestStatusCompleted, image: good},
		{name: "complete with stored image", target: models.RequestStatusCompleted, stored: true},
		{name: "complete without image", target: models.RequestStatusCompleted,
			expected: []models.FieldError{{Field: "design_image", Reason: models.ReasonRequired}}},
		{name: "complete with bad image", target: models.RequestStatusCompleted, stored: true, image: fakeFile{"design.tiff", 1},
			expected: []models.FieldError{{Field: "design_image", Reason: models.ReasonUnsupportedFormat}}},
		{name: "accept validates attached image too", target: models.RequestStatusAccepted, comment: "ok", image: fakeFile{"d.png", MaxImageBytes + 1},
			expected: []models.FieldError{{Field: "design_image", Reason: models.ReasonSizeExceeded}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateReview(tc.target, tc.comment, tc.stored, tc.image)
			assert.Equal(t, tc.expected, got)
		})
	}
}
