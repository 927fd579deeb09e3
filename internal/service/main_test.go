package service

import (
	"testing"

	"wanderlust/internal/cache"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
	store    *cache.TokenStore
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		listings: repository.NewListingRepository(db),
		reviews:  repository.NewReviewRepository(db),
		store:    cache.NewTokenStore(rdb),
		redis:    mr,
	}
}

func (f *fixture) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "x"}
	require.NoError(t, f.users.Create(t.Context(), u))
	return u
}

func ptr[T any](v T) *T { return &v }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code, appErr.Message)
}
