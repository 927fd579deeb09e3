package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wanderlust/internal/auth"
	"wanderlust/internal/models"

	"github.com/gofiber/fiber/v2"
)

const identityLocalsKey = "identity"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID           uint
	Email            string
	Name             string
	ProfilePhoto     string
	IsValidatedEmail bool
	Role             models.Role
	TokenID          string
	ExpiresAt        time.Time
}

// IsAdmin reports whether the caller may act on any resource.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// IdentityFrom returns the identity attached by the authentication middleware.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityLocalsKey).(Identity)
	return id, ok && id.UserID != 0
}

// SetIdentity attaches id to the request and to its context for logging.
func SetIdentity(c *fiber.Ctx, id Identity) {
	c.Locals(identityLocalsKey, id)
	c.Locals("userID", id.UserID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id.UserID))
}

// IdentityFromUser builds an identity from a loaded user record.
func IdentityFromUser(u *models.User) Identity {
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}
	return Identity{
		UserID:           u.ID,
		Email:            u.Email,
		Name:             u.Name,
		ProfilePhoto:     u.ProfilePhoto,
		IsValidatedEmail: u.IsValidatedEmail,
		Role:             role,
	}
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Configured() bool
	Verify(token string) *auth.Claims
}

// UserLookup loads the user a token refers to.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator gates routes on a valid bearer token.
type Authenticator struct {
	tokens  TokenVerifier
	users   UserLookup
	revoked RevocationChecker
}

// NewAuthenticator wires the authentication middleware. revoked may be nil.
func NewAuthenticator(tokens TokenVerifier, users UserLookup, revoked RevocationChecker) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, revoked: revoked}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Required rejects the request unless it carries a valid token for an existing user.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := a.authenticate(c)
		if err != nil {
			return a.reject(c, err)
		}
		SetIdentity(c, id)
		return c.Next()
	}
}

// Optional attaches an identity when a valid token is present and never rejects.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := bearerToken(c); ok {
			if id, err := a.authenticate(c); err == nil {
				SetIdentity(c, id)
			}
		}
		return c.Next()
	}
}

type authFailure struct {
	status int
	reason string
	err    *models.AppError
}

func (f *authFailure) Error() string { return f.err.Error() }

func unauthorized(reason, msg string) *authFailure {
	return &authFailure{status: fiber.StatusUnauthorized, reason: reason, err: models.NewUnauthorizedError(msg)}
}

func (a *Authenticator) authenticate(c *fiber.Ctx) (Identity, error) {
	token, ok := bearerToken(c)
	if !ok {
		return Identity{}, unauthorized("missing_token", "No token provided")
	}

	if a.tokens == nil || !a.tokens.Configured() {
		return Identity{}, &authFailure{
			status: fiber.StatusInternalServerError,
			reason: "no_secret",
			err:    models.NewConfigError("Server configuration error"),
		}
	}

	claims := a.tokens.Verify(token)
	if claims == nil {
		return Identity{}, unauthorized("invalid_token", "Token verification failed")
	}

	ctx := c.UserContext()
	if a.revoked != nil && claims.ID != "" {
		revoked, err := a.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		} else if revoked {
			return Identity{}, unauthorized("revoked", "Token has been revoked")
		}
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return Identity{}, unauthorized("unknown_user", "Invalid token: user not found")
		}
		Logger.ErrorContext(ctx, "failed to load token user", slog.String("error", err.Error()))
		return Identity{}, &authFailure{
			status: fiber.StatusInternalServerError,
			reason: "user_lookup",
			err:    models.NewInternalError(err),
		}
	}
	if user == nil {
		return Identity{}, unauthorized("unknown_user", "Invalid token: user not found")
	}

	id := IdentityFromUser(user)
	id.TokenID = claims.ID
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func (a *Authenticator) reject(c *fiber.Ctx, err error) error {
	var f *authFailure
	if !errors.As(err, &f) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	AuthRejections.WithLabelValues(f.reason).Inc()
	if f.reason == "user_lookup" {
		return models.RespondWithError(c, f.status, &models.AppError{
			Code:    models.CodeInternal,
			Message: "Failed to validate user",
		})
	}
	return models.RespondWithError(c, f.status, f.err)
}
