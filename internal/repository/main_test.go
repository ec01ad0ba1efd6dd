package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"atelier/internal/database"
	"atelier/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db       *gorm.DB
	owner    *models.User
	category *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupSQLite(t)

	owner := &models.User{DisplayName: "Анна", Username: "anna", Email: "anna@example.com", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	category := &models.Category{Name: "Kitchen"}
	require.NoError(t, db.Create(category).Error)

	return &fixture{db: db, owner: owner, category: category}
}

func (f *fixture) request(t *testing.T, title string, status models.RequestStatus, createdAt time.Time) *models.DesignRequest {
	t.Helper()
	req := &models.DesignRequest{
		OwnerID:     f.owner.ID,
		Title:       title,
		Description: "desc",
		CategoryID:  f.category.ID,
		Image:       "request_images/" + title + ".jpg",
		Status:      status,
		CreatedAt:   createdAt,
	}
	if status == models.RequestStatusCompleted {
		key := "design_images/" + title + ".png"
		req.DesignImage = &key
	}
	require.NoError(t, f.db.Create(req).Error)
	return req
}
