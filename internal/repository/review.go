package repository

import (
	"context"

	"wanderlust/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetOwnerID(ctx context.Context, id uint) (uint, error)
	ListByListing(ctx context.Context, listingID uint) ([]models.Review, error)
	Delete(ctx context.Context, listingID, reviewID uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review after confirming its listing still exists.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Listing{}).Where("id = ?", review.ListingID).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundError("Listing")
		}
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("Owner", ownerColumns).First(&review, id).Error; err != nil {
		return nil, lookupError(err, "Review")
	}
	return &review, nil
}

func (r *reviewRepository) GetOwnerID(ctx context.Context, id uint) (uint, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Select("id", "owner_id").First(&review, id).Error; err != nil {
		return 0, lookupError(err, "Review")
	}
	return review.OwnerID, nil
}

func (r *reviewRepository) ListByListing(ctx context.Context, listingID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Preload("Owner", ownerColumns).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// Delete removes reviewID from listingID. A review attached to another
// listing is reported as not found.
func (r *reviewRepository) Delete(ctx context.Context, listingID, reviewID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND listing_id = ?", reviewID, listingID).
		Delete(&models.Review{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review")
	}
	return nil
}
