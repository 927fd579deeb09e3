package service

import (
	"context"
	"testing"

	"wanderlust/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListingInput() ListingInput {
	return ListingInput{
		Title:       ptr("  Lakeside Cabin "),
		Description: ptr("Quiet cabin by the lake"),
		Price:       ptr(int64(150)),
		Location:    ptr("Bergen"),
		Country:     ptr("Norway"),
		ImageURL:    ptr("https://img.example/cabin.jpg"),
		Tags:        []string{"lake", " Lake ", "", "sauna"},
	}
}

func TestListingService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewListingService(f.listings, f.users)
	ctx := context.Background()
	owner := f.user(t, "Owner", "owner@example.com")

	listing, err := svc.Create(ctx, owner.ID, validListingInput())
	require.NoError(t, err)
	assert.Equal(t, "Lakeside Cabin", listing.Title)
	assert.Equal(t, []string{"lake", "sauna"}, listing.Tags)
	assert.Equal(t, models.DefaultListingImageFilename, listing.Image.Filename)
	require.NotNil(t, listing.Owner)
	assert.Equal(t, owner.ID, listing.Owner.ID)

	missing := validListingInput()
	missing.Title = nil
	missing.Price = nil
	_, err = svc.Create(ctx, owner.ID, missing)
	requireCode(t, err, models.CodeValidation)
	assert.Contains(t, err.Error(), "title is required")
	assert.Contains(t, err.Error(), "price is required")

	negative := validListingInput()
	negative.Price = ptr(int64(-1))
	_, err = svc.Create(ctx, owner.ID, negative)
	requireCode(t, err, models.CodeValidation)
}

func TestListingService_UpdateAppliesOnlySuppliedFields(t *testing.T) {
	f := newFixture(t)
	svc := NewListingService(f.listings, f.users)
	ctx := context.Background()
	owner := f.user(t, "Owner", "owner@example.com")

	created, err := svc.Create(ctx, owner.ID, validListingInput())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, ListingInput{Price: ptr(int64(175))})
	require.NoError(t, err)
	assert.Equal(t, int64(175), updated.Price)
	assert.Equal(t, "Lakeside Cabin", updated.Title)
	assert.Equal(t, "https://img.example/cabin.jpg", updated.Image.URL)
	assert.Equal(t, []string{"lake", "sauna"}, updated.Tags)
	require.NotNil(t, updated.Owner)

	_, err = svc.Update(ctx, created.ID, ListingInput{Title: ptr("   ")})
	requireCode(t, err, models.CodeValidation)

	_, err = svc.Update(ctx, 4040, ListingInput{Price: ptr(int64(1))})
	requireCode(t, err, models.CodeNotFound)
}

func TestListingService_GetAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewListingService(f.listings, f.users)
	ctx := context.Background()
	owner := f.user(t, "Owner", "owner@example.com")

	created, err := svc.Create(ctx, owner.ID, validListingInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.NotNil(t, got.Reviews)

	ownerID, err := svc.OwnerOf(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, ownerID)

	// An owner that no longer resolves is a data integrity failure.
	require.NoError(t, f.db.Delete(&models.User{}, owner.ID).Error)
	_, err = svc.Get(ctx, created.ID)
	requireCode(t, err, models.CodeValidation)
	assert.Equal(t, "Owner data missing", err.(*models.AppError).Message)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	requireCode(t, err, models.CodeNotFound)
	requireCode(t, svc.Delete(ctx, created.ID), models.CodeNotFound)
}

func TestListingService_SearchBlankEqualsList(t *testing.T) {
	f := newFixture(t)
	svc := NewListingService(f.listings, f.users)
	ctx := context.Background()
	owner := f.user(t, "Owner", "owner@example.com")

	_, err := svc.Create(ctx, owner.ID, validListingInput())
	require.NoError(t, err)
	other := validListingInput()
	other.Country = ptr("Portugal")
	other.Title = ptr("Surf House")
	_, err = svc.Create(ctx, owner.ID, other)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	blank, err := svc.Search(ctx, " \t ")
	require.NoError(t, err)
	assert.Equal(t, len(all), len(blank))

	portugal, err := svc.Search(ctx, "portugal")
	require.NoError(t, err)
	require.Len(t, portugal, 1)
	assert.Equal(t, "Surf House", portugal[0].Title)
}

func TestListingService_ReassignOwner(t *testing.T) {
	f := newFixture(t)
	svc := NewListingService(f.listings, f.users)
	ctx := context.Background()
	from := f.user(t, "From", "from@example.com")
	to := f.user(t, "To", "to@example.com")

	_, err := svc.Create(ctx, from.ID, validListingInput())
	require.NoError(t, err)

	n, err := svc.ReassignOwner(ctx, from.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.ReassignOwner(ctx, from.ID, from.ID)
	requireCode(t, err, models.CodeValidation)
	_, err = svc.ReassignOwner(ctx, from.ID, 999)
	requireCode(t, err, models.CodeNotFound)
}
