package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndValidatePassword(t *testing.T) {
	for _, pw := range []string{"Abc12345", "secret1", "p@ss!w0rd#?&"} {
		t.Run(pw, func(t *testing.T) {
			hash, err := HashPassword(pw)
			require.NoError(t, err)
			assert.NotEqual(t, pw, hash)
			assert.True(t, ValidatePassword(pw, hash))
			assert.False(t, ValidatePassword(pw+"x", hash))
		})
	}
}

func TestHashPassword_IsSalted(t *testing.T) {
	a, err := HashPassword("Abc12345")
	require.NoError(t, err)
	b, err := HashPassword("Abc12345")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidatePassword_EmptyHash(t *testing.T) {
	assert.False(t, ValidatePassword("Abc12345", ""))
	assert.False(t, ValidatePassword("Abc12345", "not-a-bcrypt-hash"))
}

func TestIsValidPasswordFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		password string
		want     bool
	}{
		{"Abc123", true},
		{"abc123", true},
		{"Abc12345", true},
		{"a1@$!%*#?&", true},
		{"Ab1", false},
		{"abcdefgh", false},
		{"12345678", false},
		{"abc 123", false},
		{"abc123^", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPasswordFormat(tt.password))
		})
	}
}
