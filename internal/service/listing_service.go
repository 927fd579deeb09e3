package service

import (
	"context"
	"strings"

	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"
)

type ListingService struct {
	listings repository.ListingRepository
	users    repository.UserRepository
}

// ListingInput carries listing fields from a request. Nil pointers and a nil
// Tags slice mean the field was not supplied.
type ListingInput struct {
	Title         *string
	Description   *string
	Price         *int64
	Location      *string
	Country       *string
	ImageURL      *string
	ImageFilename string
	Tags          []string
}

func (in ListingInput) fields() validation.ListingFields {
	return validation.ListingFields{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Location:    in.Location,
		Country:     in.Country,
		Tags:        in.Tags,
	}
}

func (in ListingInput) image() models.ListingImage {
	img := models.ListingImage{Filename: in.ImageFilename}
	if in.ImageURL != nil {
		img.URL = strings.TrimSpace(*in.ImageURL)
	}
	if img.Filename == "" {
		img.Filename = models.DefaultListingImageFilename
	}
	return img
}

func NewListingService(listings repository.ListingRepository, users repository.UserRepository) *ListingService {
	return &ListingService{listings: listings, users: users}
}

func (s *ListingService) List(ctx context.Context) ([]models.Listing, error) {
	return s.listings.List(ctx)
}

func (s *ListingService) Search(ctx context.Context, query string) ([]models.Listing, error) {
	return s.listings.Search(ctx, query)
}

// Get returns the listing with its owner and reviewers populated.
func (s *ListingService) Get(ctx context.Context, id uint) (*models.Listing, error) {
	listing, err := s.listings.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Owner == nil {
		return nil, models.NewValidationError("Owner data missing")
	}
	return listing, nil
}

// OwnerOf is the ownership lookup used by the authorization middleware.
func (s *ListingService) OwnerOf(ctx context.Context, id uint) (uint, error) {
	return s.listings.GetOwnerID(ctx, id)
}

func (s *ListingService) Create(ctx context.Context, ownerID uint, in ListingInput) (*models.Listing, error) {
	in.Tags = validation.NormalizeTags(in.Tags)
	if err := validation.ValidateNewListing(in.fields()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	listing := &models.Listing{
		Title:       strings.TrimSpace(*in.Title),
		Description: strings.TrimSpace(*in.Description),
		Image:       in.image(),
		Price:       *in.Price,
		Location:    strings.TrimSpace(*in.Location),
		Country:     strings.TrimSpace(*in.Country),
		Tags:        in.Tags,
		OwnerID:     ownerID,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return s.listings.GetByID(ctx, listing.ID)
}

// Update applies only the supplied fields.
func (s *ListingService) Update(ctx context.Context, id uint, in ListingInput) (*models.Listing, error) {
	if in.Tags != nil {
		in.Tags = validation.NormalizeTags(in.Tags)
	}
	if err := validation.ValidateListingUpdate(in.fields()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		listing.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		listing.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}
	if in.Location != nil {
		listing.Location = strings.TrimSpace(*in.Location)
	}
	if in.Country != nil {
		listing.Country = strings.TrimSpace(*in.Country)
	}
	if in.ImageURL != nil {
		listing.Image = in.image()
	}
	if in.Tags != nil {
		listing.Tags = in.Tags
	}

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return s.listings.GetByID(ctx, id)
}

func (s *ListingService) Delete(ctx context.Context, id uint) error {
	return s.listings.Delete(ctx, id)
}

// ReassignOwner moves every listing of fromUserID to toUserID. Both users must exist.
func (s *ListingService) ReassignOwner(ctx context.Context, fromUserID, toUserID uint) (int64, error) {
	if fromUserID == toUserID {
		return 0, models.NewValidationError("Source and target owner must differ")
	}
	if _, err := s.users.GetByID(ctx, fromUserID); err != nil {
		return 0, err
	}
	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		return 0, err
	}
	return s.listings.ReassignOwner(ctx, fromUserID, toUserID)
}
