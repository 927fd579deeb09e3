// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"time"

	"wanderlust/internal/cloudinary"
	"wanderlust/internal/database"
	"wanderlust/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testingT interface {
	Helper()
	Name() string
	Fatalf(string, ...any)
	Cleanup(func())
}

// NewSQLiteDB opens a migrated in-memory SQLite database private to t.
func NewSQLiteDB(t testingT) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// ImageHostStub records uploads in memory.
type ImageHostStub struct {
	mu       sync.Mutex
	Uploads  []cloudinary.UploadRequest
	Err      error
	Disabled bool
}

func (s *ImageHostStub) Configured() bool {
	return !s.Disabled
}

func (s *ImageHostStub) Upload(_ context.Context, req cloudinary.UploadRequest) (*cloudinary.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Uploads = append(s.Uploads, req)
	id := req.Folder + "/" + req.PublicID
	return &cloudinary.UploadResult{
		SecureURL: "https://res.cloudinary.test/image/upload/" + id + ".webp",
		PublicID:  id,
		Format:    "webp",
	}, nil
}

// NotifierStub captures the secrets that would have been delivered.
type NotifierStub struct {
	mu          sync.Mutex
	ResetTokens map[uint]string
	EmailCodes  map[uint]string
	Err         error
}

func NewNotifierStub() *NotifierStub {
	return &NotifierStub{ResetTokens: map[uint]string{}, EmailCodes: map[uint]string{}}
}

func (n *NotifierStub) SendPasswordReset(_ context.Context, user *models.User, token string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.ResetTokens[user.ID] = token
	return nil
}

func (n *NotifierStub) SendVerificationCode(_ context.Context, user *models.User, code string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.EmailCodes[user.ID] = code
	return nil
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
