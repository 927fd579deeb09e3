package repository

import (
	"fmt"
	"testing"

	"wanderlust/internal/database"
	"wanderlust/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a migrated in-memory SQLite database private to t.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "hash", Role: models.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createListing(t *testing.T, db *gorm.DB, owner *models.User, title, country string, tags ...string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		Title:       title,
		Description: "A lovely place",
		Image:       models.ListingImage{URL: "https://img.example/x.jpg", Filename: models.DefaultListingImageFilename},
		Price:       120,
		Location:    "Somewhere",
		Country:     country,
		Tags:        tags,
		OwnerID:     owner.ID,
	}
	require.NoError(t, db.Omit("Owner", "Reviews").Create(l).Error)
	return l
}
