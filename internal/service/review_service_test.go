package service

import (
	"context"
	"testing"

	"wanderlust/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService(t *testing.T) {
	f := newFixture(t)
	listings := NewListingService(f.listings, f.users)
	svc := NewReviewService(f.reviews, f.listings)
	ctx := context.Background()

	owner := f.user(t, "Owner", "owner@example.com")
	guest := f.user(t, "Guest", "guest@example.com")
	listing, err := listings.Create(ctx, owner.ID, validListingInput())
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      CreateReviewInput
		code    string
		message string
	}{
		{"Missing Content", CreateReviewInput{ListingID: listing.ID, OwnerID: guest.ID, Rating: 4, Content: "  "}, models.CodeValidation, "Review content is required"},
		{"Rating Too Low", CreateReviewInput{ListingID: listing.ID, OwnerID: guest.ID, Rating: 0, Content: "ok"}, models.CodeValidation, "Rating must be between 1 and 5"},
		{"Rating Too High", CreateReviewInput{ListingID: listing.ID, OwnerID: guest.ID, Rating: 6, Content: "ok"}, models.CodeValidation, "Rating must be between 1 and 5"},
		{"Unknown Listing", CreateReviewInput{ListingID: 999, OwnerID: guest.ID, Rating: 4, Content: "ok"}, models.CodeNotFound, "Listing not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			requireCode(t, err, tt.code)
			assert.Equal(t, tt.message, err.(*models.AppError).Message)
		})
	}

	review, err := svc.Create(ctx, CreateReviewInput{ListingID: listing.ID, OwnerID: guest.ID, Rating: 5, Content: " Lovely stay "})
	require.NoError(t, err)
	assert.Equal(t, "Lovely stay", review.Content)
	require.NotNil(t, review.Owner)
	assert.Equal(t, "Guest", review.Owner.Name)

	ownerID, err := svc.OwnerOf(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, ownerID)

	list, err := svc.ListForListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.ListForListing(ctx, 999)
	requireCode(t, err, models.CodeNotFound)

	require.NoError(t, svc.Delete(ctx, listing.ID, review.ID))
	detailed, err := listings.Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Empty(t, detailed.Reviews)
	requireCode(t, svc.Delete(ctx, listing.ID, review.ID), models.CodeNotFound)
}
