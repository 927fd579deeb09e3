package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"wanderlust/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
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

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedUser  *models.User
		expectedCode  string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "name", "email", "role"}).
					AddRow(1, "Traveller", "test@example.com", "admin")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Name: "Traveller", Email: "test@example.com", Role: models.RoleAdmin},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.expectedCode, appErr.Code)
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Name, user.Name)
				assert.True(t, user.IsAdmin())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail_NotFoundIsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 AND "users"."deleted_at" IS NULL ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Name: "A", Email: "a@b.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, models.RoleUser, first.Role)

	err := repo.Create(ctx, &models.User{Name: "B", Email: "a@b.com", Password: "hash"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, "Email already in use", appErr.Message)
}

func TestUserRepository_RolesAndUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "A", "a@b.com")
	require.NoError(t, repo.SetRole(ctx, u.ID, models.RoleAdmin))

	admins, err := repo.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	err = repo.SetRole(ctx, 999, models.RoleAdmin)
	assert.Equal(t, 404, models.StatusFor(err))

	loaded, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	loaded.Name = "Renamed"
	loaded.IsValidatedEmail = true
	require.NoError(t, repo.Update(ctx, loaded))

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)
	assert.True(t, again.IsValidatedEmail)
	assert.Equal(t, models.RoleAdmin, again.Role)
}

func TestUserRepository_Bookmarks(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	reader := createUser(t, db, "Reader", "reader@example.com")
	l1 := createListing(t, db, owner, "Cabin", "Norway")
	l2 := createListing(t, db, owner, "Villa", "Italy")

	require.NoError(t, repo.AddBookmark(ctx, reader.ID, l1.ID))
	require.NoError(t, repo.AddBookmark(ctx, reader.ID, l2.ID))
	require.NoError(t, repo.AddBookmark(ctx, reader.ID, l1.ID))

	marks, err := repo.ListBookmarks(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, marks, 2)
	require.NotNil(t, marks[0].Owner)
	assert.Equal(t, owner.ID, marks[0].Owner.ID)

	require.NoError(t, repo.RemoveBookmark(ctx, reader.ID, l1.ID))
	marks, err = repo.ListBookmarks(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, l2.ID, marks[0].ID)

	empty, err := repo.ListBookmarks(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
