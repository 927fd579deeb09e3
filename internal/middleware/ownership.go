package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
)

// OwnerLookup returns the owner id of the resource with the given id.
type OwnerLookup func(ctx context.Context, id uint) (uint, error)

// RequireOwner lets the request through only when the authenticated caller owns
// the resource named by the route parameter param, or holds the admin role.
// Unknown or malformed ids fall through so the handler reports them.
func RequireOwner(resource, param string, lookup OwnerLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No token provided"))
		}
		if id.IsAdmin() {
			return c.Next()
		}

		resourceID, err := strconv.ParseUint(c.Params(param), 10, 64)
		if err != nil || resourceID == 0 {
			return c.Next()
		}

		ownerID, err := lookup(c.UserContext(), uint(resourceID))
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return c.Next()
			}
			Logger.ErrorContext(c.UserContext(), "ownership lookup failed",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}

		if ownerID != id.UserID {
			OwnershipDenials.WithLabelValues(resource).Inc()
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("You are not the owner of this "+resource))
		}
		return c.Next()
	}
}
