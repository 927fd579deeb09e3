package server

import (
	"wanderlust/internal/featureflags"
	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.User}
// @Router /profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), identity(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile handles PUT /api/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name         *string `json:"name"`
		Email        *string `json:"email"`
		ProfilePhoto *string `json:"profilePhoto"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:       identity(c).UserID,
		Name:         req.Name,
		Email:        req.Email,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Profile updated successfully", user)
}

// UpdateName handles PUT /api/profile/name
func (s *Server) UpdateName(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: identity(c).UserID,
		Name:   &req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Name updated successfully", user.Summary())
}

// ChangePassword handles POST /api/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	err := s.userService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:          identity(c).UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Password changed successfully", nil)
}

// ForgotPassword handles POST /api/forgot-password. The response is the same
// whether or not the email belongs to an account.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.userService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK,
		"If that email is registered, a reset link has been sent", nil)
}

// ResetPassword handles POST /api/reset-password
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.userService.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Password has been reset", nil)
}

// RequestEmailVerification handles POST /api/verify-email/request
func (s *Server) RequestEmailVerification(c *fiber.Ctx) error {
	id := identity(c)
	if !s.featureFlags.Enabled(featureflags.EmailVerification, id.UserID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
	}
	if err := s.userService.RequestEmailVerification(c.UserContext(), id.UserID); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Verification code sent", nil)
}

// ConfirmEmailVerification handles POST /api/verify-email/confirm
func (s *Server) ConfirmEmailVerification(c *fiber.Ctx) error {
	id := identity(c)
	if !s.featureFlags.Enabled(featureflags.EmailVerification, id.UserID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.ConfirmEmailVerification(c.UserContext(), id.UserID, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, "Email verified", fiber.Map{
		"isValidatedEmail": user.IsValidatedEmail,
	})
}
