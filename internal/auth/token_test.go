package auth

import (
	"strings"
	"testing"
	"time"

	"wanderlust/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, 0, nil)
	user := &models.User{ID: 42, Email: "a@b.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims := m.Verify(token)
	require.NotNil(t, claims)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAtTime(), 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_UniqueIDs(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, nil)
	user := &models.User{ID: 1, Email: "a@b.com"}

	first, err := m.Generate(user)
	require.NoError(t, err)
	second, err := m.Generate(user)
	require.NoError(t, err)
	assert.NotEqual(t, m.Verify(first).ID, m.Verify(second).ID)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, nil)
	user := &models.User{ID: 7, Email: "x@y.com"}

	expiredIssuer := NewTokenManager(testSecret, time.Hour, nil)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := expiredIssuer.Generate(user)
	require.NoError(t, err)

	valid, err := m.Generate(user)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	otherSecret, err := NewTokenManager("another-secret-another-secret-000", time.Hour, nil).Generate(user)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": 7,
		"iss":    tokenIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"userId": 7,
		"iss":    tokenIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"Expired":        expired,
		"Tampered":       tampered,
		"Wrong Secret":   otherSecret,
		"Malformed":      "not.a.token",
		"Empty":          "",
		"Unsigned":       noneToken,
		"Other HMAC Alg": hs512,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, m.Verify(token))
		})
	}
}

func TestTokenManager_MissingSecret(t *testing.T) {
	m := NewTokenManager("", time.Hour, nil)
	assert.False(t, m.Configured())

	_, err := m.Generate(&models.User{ID: 1})
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
	assert.Nil(t, m.Verify("anything"))
}
