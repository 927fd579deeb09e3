package server

import (
	"strings"

	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

// listingRequest is the body of listing create and update. Older clients send
// tags as tagsArray and the image as a bare URL string.
type listingRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Price       flexibleInt   `json:"price"`
	Location    *string       `json:"location"`
	Country     *string       `json:"country"`
	Image       flexibleImage `json:"image"`
	Tags        flexibleTags  `json:"tags"`
	TagsArray   flexibleTags  `json:"tagsArray"`
}

func (r listingRequest) input() service.ListingInput {
	in := service.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price.ptr(),
		Location:    r.Location,
		Country:     r.Country,
	}
	if r.Image.set {
		url := r.Image.URL
		in.ImageURL = &url
		in.ImageFilename = r.Image.Filename
	}
	switch {
	case r.TagsArray.set:
		in.Tags = nonNil(r.TagsArray.values)
	case r.Tags.set:
		in.Tags = nonNil(r.Tags.values)
	}
	return in
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// GetListings handles GET /api/listings. A query parameter turns it into a search.
// @Summary List listings
// @Tags listings
// @Produce json
// @Param query query string false "Search term"
// @Success 200 {object} models.Response{data=[]models.Listing}
// @Router /listings [get]
func (s *Server) GetListings(c *fiber.Ctx) error {
	if q := c.Query("query"); q != "" {
		return s.SearchListings(c)
	}
	listings, err := s.listingService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Listings retrieved successfully", listings)
}

// SearchListings handles GET /api/listings/search?query=
func (s *Server) SearchListings(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	listings, err := s.listingService.Search(c.UserContext(), query)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Listings retrieved successfully", listings)
}

// GetListing handles GET /api/listings/:id
// @Summary Get a listing with its owner and reviews
// @Tags listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.Response{data=models.Listing}
// @Failure 404 {object} models.Response
// @Router /listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	listing, err := s.listingService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Listing retrieved successfully", listing)
}

// CreateListing handles POST /api/listings
// @Summary Create a listing owned by the caller
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Response{data=models.Listing}
// @Failure 400 {object} models.Response
// @Failure 401 {object} models.Response
// @Router /listings [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req listingRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	listing, err := s.listingService.Create(c.UserContext(), identity(c).UserID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, "Successfully added", listing)
}

// UpdateListing handles PUT /api/listings/:id. Only supplied fields change.
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req listingRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	listing, err := s.listingService.Update(c.UserContext(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Successfully Updated", listing)
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.listingService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Listing Deleted", nil)
}
