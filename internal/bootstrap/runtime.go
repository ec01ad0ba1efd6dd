// Package bootstrap connects the runtime dependencies shared by the API and
// the maintenance commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCategories bool
}

// InitRuntime connects to DB and Redis, ensures the development staff
// account and optionally seeds the default categories.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means the service runs without a cache.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevStaff(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development staff account: %w", err)
	}

	if opts.SeedCategories {
		fixture, err := seed.DefaultFixture()
		if err != nil {
			return nil, nil, err
		}
		if _, err := seed.Categories(ctx, db, fixture.Categories); err != nil {
			return nil, nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	return db, r, nil
}

// EnsureDevStaff creates or promotes the configured staff account. It only
// acts outside production and when DEV_BOOTSTRAP_STAFF is set.
func EnsureDevStaff(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if cfg.IsProduction() || !cfg.DevBootstrapStaff {
		return nil
	}

	username := strings.TrimSpace(cfg.DevStaffUsername)
	if username == "" {
		username = "staff"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevStaffEmail))
	if email == "" {
		email = "staff@atelier.local"
	}
	password := cfg.DevStaffPassword
	if password == "" {
		return fmt.Errorf("DEV_STAFF_PASSWORD must be set when DEV_BOOTSTRAP_STAFF is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash staff password: %w", err)
	}

	var staffID uint
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staff models.User
		findErr := tx.Where("username = ?", username).First(&staff).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			staff = models.User{
				DisplayName: "Администратор",
				Username:    username,
				Email:       email,
				Password:    string(hashedPassword),
				IsStaff:     true,
			}
			if err := tx.Create(&staff).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		default:
			if err := tx.Model(&models.User{}).Where("id = ?", staff.ID).
				Updates(map[string]any{"is_staff": true, "password": string(hashedPassword)}).Error; err != nil {
				return err
			}
		}
		staffID = staff.ID
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateUser(ctx, staffID)
	middleware.Logger.InfoContext(ctx, "development staff account ensured",
		slog.String("username", username), slog.Uint64("user_id", uint64(staffID)))
	return nil
}
