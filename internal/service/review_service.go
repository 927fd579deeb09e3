package service

import (
	"context"
	"strings"

	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"
)

type ReviewService struct {
	reviews  repository.ReviewRepository
	listings repository.ListingRepository
}

type CreateReviewInput struct {
	ListingID uint
	OwnerID   uint
	Rating    int
	Content   string
}

func NewReviewService(reviews repository.ReviewRepository, listings repository.ListingRepository) *ReviewService {
	return &ReviewService{reviews: reviews, listings: listings}
}

func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateReview(in.Rating, in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	review := &models.Review{
		Rating:    in.Rating,
		Content:   strings.TrimSpace(in.Content),
		ListingID: in.ListingID,
		OwnerID:   in.OwnerID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return s.reviews.GetByID(ctx, review.ID)
}

func (s *ReviewService) ListForListing(ctx context.Context, listingID uint) ([]models.Review, error) {
	if _, err := s.listings.GetOwnerID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.reviews.ListByListing(ctx, listingID)
}

// OwnerOf is the ownership lookup used by the authorization middleware.
func (s *ReviewService) OwnerOf(ctx context.Context, id uint) (uint, error) {
	return s.reviews.GetOwnerID(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, listingID, reviewID uint) error {
	return s.reviews.Delete(ctx, listingID, reviewID)
}
