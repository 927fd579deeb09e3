package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"wanderlust/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "wanderlust-api"

// ErrSecretNotConfigured is returned when tokens are requested without a signing secret.
var ErrSecretNotConfigured = errors.New("token signing secret not configured")

// Claims is the payload carried by a bearer token.
type Claims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns the issue time of the token.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewTokenManager creates a manager for the given secret. A zero ttl means 24 hours.
func NewTokenManager(secret string, ttl time.Duration, logger *slog.Logger) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Configured reports whether a signing secret is present.
func (m *TokenManager) Configured() bool {
	return m != nil && len(m.secret) > 0
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Generate signs a token for user.
func (m *TokenManager) Generate(user *models.User) (string, error) {
	if !m.Configured() {
		return "", ErrSecretNotConfigured
	}
	if user == nil || user.ID == 0 {
		return "", fmt.Errorf("cannot issue token for unsaved user")
	}

	now := m.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry. It returns nil on any
// failure; the reason is logged and never surfaced to the caller.
func (m *TokenManager) Verify(tokenString string) *Claims {
	if !m.Configured() {
		m.logger.Error("token verification attempted without a signing secret")
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		m.logger.Warn("token verification failed", slog.String("reason", failureReason(err)))
		return nil
	}
	if claims.UserID == 0 {
		m.logger.Warn("token verification failed", slog.String("reason", "missing_user"))
		return nil
	}
	return claims
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return "invalid"
	}
}
