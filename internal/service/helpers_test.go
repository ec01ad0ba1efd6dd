package service

import (
	"bytes"
	"strings"
	"testing"

	"atelier/internal/models"
	"atelier/internal/policy"
	"atelier/internal/storage"
	"atelier/internal/testutil"
	"atelier/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	users      *testutil.UserRepoStub
	requests   *testutil.RequestRepoStub
	categories *testutil.CategoryRepoStub
	blobs      *storage.MemoryStore
	events     *testutil.RecordingPublisher
	svc        *RequestService

	owner    policy.Actor
	stranger policy.Actor
	staff    policy.Actor
	kitchen  *models.Category
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	users := testutil.NewUserRepoStub()
	requests := testutil.NewRequestRepoStub(users)
	categories := testutil.NewCategoryRepoStub(requests)
	blobs := storage.NewMemoryStore()
	pub := &testutil.RecordingPublisher{}

	owner := users.Add(models.User{DisplayName: "Анна", Username: "anna", Email: "anna@example.com"})
	stranger := users.Add(models.User{DisplayName: "Пётр", Username: "petr", Email: "petr@example.com"})
	staff := users.Add(models.User{DisplayName: "Мария", Username: "maria", Email: "maria@example.com", IsStaff: true})

	return &engineFixture{
		users:      users,
		requests:   requests,
		categories: categories,
		blobs:      blobs,
		events:     pub,
		svc:        NewRequestService(requests, categories, blobs, pub),
		owner:      policy.ActorFor(owner),
		stranger:   policy.ActorFor(stranger),
		staff:      policy.ActorFor(staff),
		kitchen:    categories.Add("Kitchen"),
	}
}

func upload(name string, size int) *ImageUpload {
	return &ImageUpload{
		Filename:    name,
		Length:      int64(size),
		ContentType: "image/jpeg",
		Body:        bytes.NewReader([]byte(strings.Repeat("x", size))),
	}
}

func (f *engineFixture) submit(t *testing.T, title string) *models.DesignRequest {
	t.Helper()
	req, err := f.svc.Submit(t.Context(), f.owner, SubmitInput{
		Title:       title,
		Description: "Make it cosy",
		CategoryID:  f.kitchen.ID,
		Image:       upload("room.jpg", 1024),
	})
	require.NoError(t, err)
	return req
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func assertField(t *testing.T, err error, field, reason string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.True(t, appErr.HasField(field, reason), "missing %s/%s in %+v", field, reason, appErr.Fields)
}

var _ validation.File = (*ImageUpload)(nil)
