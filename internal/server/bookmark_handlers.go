package server

import (
	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetBookmarks handles GET /api/bookmarks
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	listings, err := s.userService.ListBookmarks(c.UserContext(), identity(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Bookmarks retrieved successfully", listings)
}

// AddBookmark handles POST /api/bookmarks/:listingId. Adding twice is a no-op.
func (s *Server) AddBookmark(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "listingId")
	if err != nil {
		return nil
	}
	if err := s.userService.AddBookmark(c.UserContext(), identity(c).UserID, listingID); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Listing bookmarked", fiber.Map{"listingId": listingID})
}

// RemoveBookmark handles DELETE /api/bookmarks/:listingId
func (s *Server) RemoveBookmark(c *fiber.Ctx) error {
	listingID, err := s.parseID(c, "listingId")
	if err != nil {
		return nil
	}
	if err := s.userService.RemoveBookmark(c.UserContext(), identity(c).UserID, listingID); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Bookmark removed", fiber.Map{"listingId": listingID})
}
