package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestStatusNew, RequestStatusAccepted, true},
		{RequestStatusNew, RequestStatusCompleted, true},
		{RequestStatusAccepted, RequestStatusCompleted, true},
		{RequestStatusAccepted, RequestStatusAccepted, false},
		{RequestStatusAccepted, RequestStatusNew, false},
		{RequestStatusCompleted, RequestStatusAccepted, false},
		{RequestStatusCompleted, RequestStatusCompleted, false},
		{RequestStatusNew, RequestStatusNew, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseRequestStatus(t *testing.T) {
	status, ok := ParseRequestStatus("accepted")
	assert.True(t, ok)
	assert.Equal(t, RequestStatusAccepted, status)

	for _, raw := range []string{"ACCEPTED", "Accepted", " accepted ", ""} {
		_, ok = ParseRequestStatus(raw)
		assert.False(t, ok, raw)
	}

	_, ok = ParseRequestStatus("archived")
	assert.False(t, ok)

	assert.False(t, RequestStatusNew.IsReviewTarget())
	assert.True(t, RequestStatusCompleted.IsReviewTarget())
}

func TestDesignRequestHelpers(t *testing.T) {
	empty := ""
	img := "design_images/a.png"

	r := &DesignRequest{Status: RequestStatusNew}
	assert.True(t, r.CanBeDeleted())
	assert.False(t, r.HasDesignImage())

	r.DesignImage = &empty
	assert.False(t, r.HasDesignImage())

	r.DesignImage = &img
	r.Status = RequestStatusAccepted
	assert.True(t, r.HasDesignImage())
	assert.False(t, r.CanBeDeleted())
}

func TestAppErrorHelpers(t *testing.T) {
	err := NewFieldValidationError([]FieldError{
		{Field: "image", Reason: ReasonSizeExceeded},
		{Field: "image", Reason: ReasonUnsupportedFormat},
	})

	assert.True(t, err.HasField("image"))
	assert.True(t, err.HasField("image", ReasonUnsupportedFormat))
	assert.False(t, err.HasField("title"))
	assert.Contains(t, err.Error(), "image: size_exceeded")

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, IsCode(wrapped, CodeValidation))
	assert.False(t, IsCode(errors.New("plain"), CodeValidation))

	assert.Equal(t, 422, StatusForError(wrapped))
	assert.Equal(t, 403, StatusForError(NewForbiddenError("no")))
	assert.Equal(t, 409, StatusForError(NewInvalidStateError("no")))
	assert.Equal(t, 400, StatusForError(NewInvalidStatusError("x")))
	assert.Equal(t, 404, StatusForError(NewNotFoundError("DesignRequest", 1)))
	assert.Equal(t, 500, StatusForError(errors.New("boom")))
}
