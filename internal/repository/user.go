package repository

import (
	"context"
	"errors"

	"wanderlust/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	AddBookmark(ctx context.Context, userID, listingID uint) error
	RemoveBookmark(ctx context.Context, userID, listingID uint) error
	ListBookmarks(ctx context.Context, userID uint) ([]models.Listing, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User")
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Bookmarks").Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User")
	}
	return nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// AddBookmark is idempotent.
func (r *userRepository) AddBookmark(ctx context.Context, userID, listingID uint) error {
	user := models.User{ID: userID}
	listing := models.Listing{ID: listingID}
	if err := r.db.WithContext(ctx).Model(&user).Association("Bookmarks").Append(&listing); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) RemoveBookmark(ctx context.Context, userID, listingID uint) error {
	user := models.User{ID: userID}
	listing := models.Listing{ID: listingID}
	if err := r.db.WithContext(ctx).Model(&user).Association("Bookmarks").Delete(&listing); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListBookmarks(ctx context.Context, userID uint) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := r.db.WithContext(ctx).
		Joins("JOIN user_bookmarks ON user_bookmarks.listing_id = listings.id").
		Where("user_bookmarks.user_id = ?", userID).
		Preload("Owner", ownerColumns).
		Order("listings.id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}
