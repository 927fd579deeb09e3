package server

import (
	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := identity(c).UserID

	if s.featureFlags == nil {
		return models.RespondWithData(c, fiber.StatusOK, "Feature flags", fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return models.RespondWithData(c, fiber.StatusOK, "Feature flags", fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
