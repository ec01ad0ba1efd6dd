// Package seed fills a development database with demo accounts, categories
// and design requests in every lifecycle state.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded account.
const DefaultPassword = "Remont2024"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRequests int
	ShouldClean bool
	// SkipBcrypt stores a cheap hash for faster local runs.
	SkipBcrypt bool
	// RandSeed makes the generated content reproducible when non-zero.
	RandSeed int64
	MaxDays  int
}

// Report summarizes what a run created.
type Report struct {
	Users      int
	Categories int
	Requests   map[models.RequestStatus]int
}

// Seeder writes demo data to the database and blob store.
type Seeder struct {
	db      *gorm.DB
	blobs   storage.Store
	fixture *Fixture
}

// NewSeeder creates a Seeder. A nil fixture selects the embedded one.
func NewSeeder(db *gorm.DB, blobs storage.Store, fixture *Fixture) (*Seeder, error) {
	if db == nil || blobs == nil {
		return nil, errors.New("seeder needs a database and a blob store")
	}
	if fixture == nil {
		f, err := DefaultFixture()
		if err != nil {
			return nil, err
		}
		fixture = f
	}
	return &Seeder{db: db, blobs: blobs, fixture: fixture}, nil
}

// Categories creates every named category that does not exist yet and
// returns how many were added.
func Categories(ctx context.Context, db *gorm.DB, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var existing []models.Category
		if err := db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&existing).Error; err != nil {
			return created, fmt.Errorf("category %q: %w", name, err)
		}
		if len(existing) > 0 {
			continue
		}
		if err := db.WithContext(ctx).Create(&models.Category{Name: name}).Error; err != nil {
			return created, fmt.Errorf("category %q: %w", name, err)
		}
		created++
	}
	return created, nil
}

// Run seeds the database according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Report, error) {
	middleware.Logger.InfoContext(ctx, "seeding database",
		slog.Int("users", opts.NumUsers), slog.Int("requests", opts.NumRequests))

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	faker := gofakeit.New(opts.RandSeed)
	report := &Report{Requests: make(map[models.RequestStatus]int, len(models.RequestStatuses))}

	added, err := Categories(ctx, s.db, s.fixture.Categories)
	if err != nil {
		return nil, err
	}
	report.Categories = added

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}

	users, err := s.createUsers(ctx, faker, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	report.Users = len(users)

	if len(users) == 0 && opts.NumRequests > 0 {
		return nil, errors.New("requests need at least one user")
	}

	for i := 0; i < opts.NumRequests; i++ {
		status := models.RequestStatuses[i%len(models.RequestStatuses)]
		owner := users[faker.Number(0, len(users)-1)]
		category := categories[faker.Number(0, len(categories)-1)]
		if _, err := s.createRequest(ctx, faker, opts, owner, category, status); err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		report.Requests[status]++
	}

	middleware.Logger.InfoContext(ctx, "seeding completed",
		slog.Int("users", report.Users), slog.Int("categories", report.Categories))
	return report, nil
}

// ClearAll removes requests, their images, categories and non-staff users.
func (s *Seeder) ClearAll(ctx context.Context) error {
	var keys []string
	var requests []models.DesignRequest
	if err := s.db.WithContext(ctx).Select("image", "design_image").Find(&requests).Error; err != nil {
		return err
	}
	for _, r := range requests {
		keys = append(keys, r.Image)
		if r.DesignImage != nil {
			keys = append(keys, *r.DesignImage)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.DesignRequest{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&models.Category{}).Error; err != nil {
			return err
		}
		return tx.Where("is_staff = ?", false).Delete(&models.User{}).Error
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			middleware.Logger.WarnContext(ctx, "failed to delete seeded blob",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	middleware.Logger.InfoContext(ctx, "cleared existing data", slog.Int("requests", len(requests)))
	return nil
}

func (s *Seeder) createUsers(ctx context.Context, faker *gofakeit.Faker, opts Options) ([]models.User, error) {
	password := DefaultPassword
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		password = string(hashed)
	}

	users := make([]models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		username := fmt.Sprintf("%s%d", usernameBase(faker.Username()), i+1)
		user := models.User{
			DisplayName: faker.RandomString(s.fixture.FirstNames) + " " + faker.RandomString(s.fixture.LastNames),
			Username:    username,
			Email:       username + "@example.com",
			Password:    password,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createRequest(ctx context.Context, faker *gofakeit.Faker, opts Options, owner models.User, category models.Category, status models.RequestStatus) (*models.DesignRequest, error) {
	imageKey, err := s.putImage(ctx, faker, "request_images")
	if err != nil {
		return nil, err
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(faker.Number(0, maxDays*24*60)) * time.Minute

	req := models.DesignRequest{
		OwnerID:     owner.ID,
		Title:       "Дизайн " + faker.RandomString(s.fixture.Rooms),
		Description: faker.Paragraph(1, 3, 8, " "),
		CategoryID:  category.ID,
		Image:       imageKey,
		Status:      status,
		CreatedAt:   time.Now().Add(-age),
	}
	switch status {
	case models.RequestStatusAccepted:
		req.AdminComment = faker.Sentence(6)
	case models.RequestStatusCompleted:
		designKey, err := s.putImage(ctx, faker, "design_images")
		if err != nil {
			return nil, err
		}
		req.DesignImage = &designKey
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// putImage stores a small solid-colour PNG under prefix.
func (s *Seeder) putImage(ctx context.Context, faker *gofakeit.Faker, prefix string) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	fill := color.RGBA{R: faker.Uint8(), G: faker.Uint8(), B: faker.Uint8(), A: 0xff}
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.png", prefix, uuid.NewString())
	if _, err := s.blobs.Put(ctx, key, &buf, int64(buf.Len()), "image/png"); err != nil {
		return "", err
	}
	return key, nil
}

// usernameBase keeps the lowercase ASCII letters and digits of raw.
func usernameBase(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 20 {
			break
		}
	}
	if b.Len() < 3 {
		return "user"
	}
	return b.String()
}
