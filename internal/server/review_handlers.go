package server

import (
	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/listings/:id/reviews
// @Summary Review a listing
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body object{rating=int,content=string} true "Review"
// @Success 201 {object} models.Response{data=models.Review}
// @Failure 404 {object} models.Response
// @Router /listings/{id}/reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Rating  flexibleInt `json:"rating"`
		Content string      `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	review, err := s.reviewService.Create(c.UserContext(), service.CreateReviewInput{
		ListingID: listingID,
		OwnerID:   identity(c).UserID,
		Rating:    int(req.Rating.value),
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, "New Review Added!", review)
}

// GetReviews handles GET /api/listings/:id/reviews
func (s *Server) GetReviews(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reviews, err := s.reviewService.ListForListing(c.UserContext(), listingID)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Reviews retrieved successfully", reviews)
}

// DeleteReview handles DELETE /api/listings/:id/reviews/:reviewId
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reviewID, err := s.parseID(c, "reviewId")
	if err != nil {
		return nil
	}
	if err := s.reviewService.Delete(c.UserContext(), listingID, reviewID); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Review Deleted", nil)
}
