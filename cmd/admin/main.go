// Command admin grants and revokes staff access.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"atelier/internal/cache"
	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/models"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>   - Grant staff access")
	fmt.Println("  go run ./cmd/admin demote <username>    - Revoke staff access")
	fmt.Println("  go run ./cmd/admin list-staff           - List staff accounts")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)

	ctx := context.Background()
	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		if err := setStaff(ctx, db, os.Args[2], os.Args[1] == "promote"); err != nil {
			log.Fatal(err)
		}
	case "list-staff":
		listStaff(ctx, db)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func setStaff(ctx context.Context, db *gorm.DB, username string, staff bool) error {
	var user models.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.IsStaff == staff {
		fmt.Printf("User %s (ID: %d) already has is_staff=%t\n", user.Username, user.ID, staff)
		return nil
	}

	if err := db.WithContext(ctx).Model(&user).Update("is_staff", staff).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	// Cached profiles carry the staff bit.
	cache.InvalidateUser(ctx, user.ID)

	fmt.Printf("Updated %s (ID: %d): is_staff=%t\n", user.Username, user.ID, staff)
	return nil
}

func listStaff(ctx context.Context, db *gorm.DB) {
	var staff []models.User
	if err := db.WithContext(ctx).Where("is_staff = ?", true).Order("id").Find(&staff).Error; err != nil {
		log.Fatalf("Failed to fetch staff: %v", err)
	}
	if len(staff) == 0 {
		fmt.Println("No staff accounts found")
		return
	}
	fmt.Printf("%-6s %-20s %s\n", "ID", "USERNAME", "EMAIL")
	for _, u := range staff {
		fmt.Printf("%-6d %-20s %s\n", u.ID, u.Username, u.Email)
	}
}
