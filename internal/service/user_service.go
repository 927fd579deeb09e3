package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wanderlust/internal/auth"
	"wanderlust/internal/cache"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/validation"

	"github.com/google/uuid"
)

// CodeStore holds one-time secrets and revoked token ids.
type CodeStore interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	SaveResetToken(ctx context.Context, token string, userID uint) error
	ConsumeResetToken(ctx context.Context, token string) (uint, bool, error)
	SaveEmailCode(ctx context.Context, userID uint, code string) error
	VerifyEmailCode(ctx context.Context, userID uint, code string) (bool, error)
}

// AccountNotifier delivers one-time secrets to the user.
type AccountNotifier interface {
	SendPasswordReset(ctx context.Context, user *models.User, token string, ttl time.Duration) error
	SendVerificationCode(ctx context.Context, user *models.User, code string, ttl time.Duration) error
}

type UserService struct {
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	tokens      *auth.TokenManager
	codes       CodeStore
	notifier    AccountNotifier
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID       uint
	Name         *string
	Email        *string
	ProfilePhoto *string
}

type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string
	NewPassword     string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User  *models.User
	Token string
}

const passwordFormatMessage = "Password must be at least 6 characters and contain a letter and a number"

func NewUserService(
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	tokens *auth.TokenManager,
	codes CodeStore,
	notifier AccountNotifier,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		listingRepo: listingRepo,
		tokens:      tokens,
		codes:       codes,
		notifier:    notifier,
	}
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		if errors.Is(err, auth.ErrSecretNotConfigured) {
			return "", models.NewConfigError("Server configuration error")
		}
		return "", models.NewInternalError(err)
	}
	return token, nil
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, models.NewUnprocessableError("Email, password, and name are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewUnprocessableError("Invalid email format")
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewUnprocessableError(err.Error())
	}
	if !auth.IsValidPasswordFormat(in.Password) {
		return nil, models.NewUnprocessableError(passwordFormatMessage)
	}
	if !s.tokens.Configured() {
		return nil, models.NewConfigError("Server configuration error")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already in use")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Email:    email,
		Name:     name,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.ValidatePassword(in.Password, user.Password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token until it would have expired anyway.
// A missing revocation store is not an error: the token simply stays valid.
func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || s.codes == nil {
		return nil
	}
	err := s.codes.RevokeToken(ctx, tokenID, expiresAt)
	if err != nil && !errors.Is(err, cache.ErrUnavailable) {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = name
	}
	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError("Invalid email format")
		}
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, models.NewConflictError("Email already in use")
			}
			user.Email = email
			user.IsValidatedEmail = false
		}
	}
	if in.ProfilePhoto != nil {
		user.ProfilePhoto = strings.TrimSpace(*in.ProfilePhoto)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Current and new password are required")
	}
	if !auth.IsValidPasswordFormat(in.NewPassword) {
		return models.NewValidationError(passwordFormatMessage)
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return err
	}
	if !auth.ValidatePassword(in.CurrentPassword, user.Password) {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	return s.setPassword(ctx, user, in.NewPassword)
}

func (s *UserService) setPassword(ctx context.Context, user *models.User, plaintext string) error {
	hash, err := auth.HashPassword(plaintext)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = hash
	return s.userRepo.Update(ctx, user)
}

// ForgotPassword issues a reset token when the email is known. Unknown
// emails succeed silently so accounts cannot be enumerated.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return models.NewValidationError("Email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.codes.SaveResetToken(ctx, token, user.ID); err != nil {
		return storeError(err)
	}
	if err := s.notifier.SendPasswordReset(ctx, user, token, cache.ResetTokenTTL); err != nil {
		return models.NewUpstreamError("Failed to send reset email", err)
	}
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return models.NewValidationError("Token and new password are required")
	}
	if !auth.IsValidPasswordFormat(newPassword) {
		return models.NewValidationError(passwordFormatMessage)
	}
	userID, ok, err := s.codes.ConsumeResetToken(ctx, token)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return models.NewValidationError("Invalid or expired reset token")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, newPassword)
}

// RequestEmailVerification sends a fresh six digit code to the user.
func (s *UserService) RequestEmailVerification(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsValidatedEmail {
		return models.NewConflictError("Email already verified")
	}
	code, err := sixDigitCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.codes.SaveEmailCode(ctx, user.ID, code); err != nil {
		return storeError(err)
	}
	if err := s.notifier.SendVerificationCode(ctx, user, code, cache.EmailCodeTTL); err != nil {
		return models.NewUpstreamError("Failed to send verification email", err)
	}
	return nil
}

func (s *UserService) ConfirmEmailVerification(ctx context.Context, userID uint, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, models.NewValidationError("Verification code is required")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsValidatedEmail {
		return user, nil
	}
	ok, err := s.codes.VerifyEmailCode(ctx, userID, code)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return nil, models.NewValidationError("Invalid or expired verification code")
	}
	user.IsValidatedEmail = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListBookmarks(ctx context.Context, userID uint) ([]models.Listing, error) {
	return s.userRepo.ListBookmarks(ctx, userID)
}

func (s *UserService) AddBookmark(ctx context.Context, userID, listingID uint) error {
	if _, err := s.listingRepo.GetOwnerID(ctx, listingID); err != nil {
		return err
	}
	return s.userRepo.AddBookmark(ctx, userID, listingID)
}

func (s *UserService) RemoveBookmark(ctx context.Context, userID, listingID uint) error {
	return s.userRepo.RemoveBookmark(ctx, userID, listingID)
}

// SetRole is used by the admin CLI.
func (s *UserService) SetRole(ctx context.Context, userID uint, role models.Role) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown role %q", role))
	}
	if err := s.userRepo.SetRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

func storeError(err error) error {
	if errors.Is(err, cache.ErrUnavailable) {
		return models.NewConfigError("One-time code store is not configured")
	}
	return models.NewInternalError(err)
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
