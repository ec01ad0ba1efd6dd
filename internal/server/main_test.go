package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/models"
	"atelier/internal/storage"
	"atelier/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-that-is-at-least-32-chars"

type testEnv struct {
	s      *Server
	app    *fiber.App
	db     *gorm.DB
	blobs  *storage.MemoryStore
	events *testutil.RecordingPublisher

	owner    *models.User
	stranger *models.User
	staff    *models.User
	kitchen  *models.Category
}

func newTestEnv(t *testing.T, flags ...string) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	cache.SetClient(nil)

	cfg := &config.Config{
		JWTSecret:      testJWTSecret,
		Port:           "0",
		AllowedOrigins: "*",
	}
	if len(flags) > 0 {
		cfg.FeatureFlags = flags[0]
	}

	db := testutil.NewSQLiteDB(t)
	blobs := storage.NewMemoryStore()
	pub := &testutil.RecordingPublisher{}

	s, err := NewServerWithDeps(cfg, db, nil, blobs, pub)
	require.NoError(t, err)

	app := s.NewApp()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	env := &testEnv{s: s, app: app, db: db, blobs: blobs, events: pub}
	env.owner = env.user(t, "anna", false)
	env.stranger = env.user(t, "petr", false)
	env.staff = env.user(t, "maria", true)

	env.kitchen = &models.Category{Name: "Kitchen"}
	require.NoError(t, db.Create(env.kitchen).Error)
	return env
}

func (e *testEnv) user(t *testing.T, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		DisplayName: "Тест",
		Username:    username,
		Email:       username + "@example.com",
		Password:    "x",
		IsStaff:     staff,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := e.s.generateToken(u.ID, u.Username)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

type formFile struct {
	field   string
	name    string
	content []byte
}

func (e *testEnv) doForm(t *testing.T, method, path, token string, fields map[string]string, files ...formFile) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return e.do(t, method, path, token, &buf, w.FormDataContentType())
}

// submit files a request as owner through the API and returns it.
func (e *testEnv) submit(t *testing.T, title string) models.DesignRequest {
	t.Helper()
	resp := e.doForm(t, http.MethodPost, "/api/requests", e.token(t, e.owner), map[string]string{
		"title":       title,
		"description": "Please redesign it",
		"category_id": fmt.Sprint(e.kitchen.ID),
	}, formFile{field: "image", name: "room.png", content: tinyPNG(t, 64, 48)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var req models.DesignRequest
	decode(t, resp, &req)
	return req
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	decode(t, resp, &out)
	return out
}

func hasField(er models.ErrorResponse, field, reason string) bool {
	for _, f := range er.Fields {
		if f.Field == field && f.Reason == reason {
			return true
		}
	}
	return false
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
