package server

import (
	"log/slog"

	"wanderlust/internal/featureflags"
	"wanderlust/internal/middleware"
	"wanderlust/internal/models"
	"wanderlust/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	User  models.Summary `json:"user"`
	Token string         `json:"token"`
}

// Signup handles POST /api/signup
// @Summary User signup
// @Description Register a new account and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,name=string} true "Signup request"
// @Success 201 {object} models.Response{data=authResponse}
// @Failure 409 {object} models.Response
// @Failure 422 {object} models.Response
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.startSession(c, res.User.ID)

	summary := res.User.Summary()
	summary.ProfilePhoto = ""
	return models.RespondWithData(c, fiber.StatusCreated, "User registered successfully",
		authResponse{User: summary, Token: res.Token})
}

// Login handles POST /api/login
// @Summary User login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} models.Response{data=authResponse}
// @Failure 401 {object} models.Response
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.startSession(c, res.User.ID)

	return models.RespondWithData(c, fiber.StatusOK, "Login successful",
		authResponse{User: res.User.Summary(), Token: res.Token})
}

// Logout handles POST /api/logout. The bearer token is revoked until it
// would have expired and the cookie session is destroyed.
func (s *Server) Logout(c *fiber.Ctx) error {
	id := identity(c)
	if err := s.userService.Logout(c.UserContext(), id.TokenID, id.ExpiresAt); err != nil {
		return respondError(c, err)
	}
	if err := s.sessions.Logout(c); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to destroy session", slog.String("error", err.Error()))
	}
	return models.RespondWithData(c, fiber.StatusOK, "Logged out successfully", nil)
}

// IsLogin handles GET /api/islogin. A cookie session or a bearer token counts.
func (s *Server) IsLogin(c *fiber.Ctx) error {
	if userID, ok := s.sessions.UserID(c); ok {
		user, err := s.userService.GetProfile(c.UserContext(), userID)
		if err == nil {
			return models.RespondWithData(c, fiber.StatusOK, "User is logged in",
				fiber.Map{"user": user.Summary()})
		}
	}
	if id, ok := middleware.IdentityFrom(c); ok {
		return models.RespondWithData(c, fiber.StatusOK, "User is logged in", fiber.Map{
			"user": models.Summary{
				UserID:       id.UserID,
				Email:        id.Email,
				Name:         id.Name,
				ProfilePhoto: id.ProfilePhoto,
			},
		})
	}
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Not logged in"))
}

// startSession binds the legacy cookie session. Failures only cost the
// cookie; the bearer token is still issued.
func (s *Server) startSession(c *fiber.Ctx, userID uint) {
	if !s.featureFlags.Enabled(featureflags.LegacySessions, userID) {
		return
	}
	if err := s.sessions.Login(c, userID); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to start session", slog.String("error", err.Error()))
	}
}
