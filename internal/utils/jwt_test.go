package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("test-secret", "u-1", "agent")
	require.NoError(t, err)

	claims, err := ValidateJWT("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "agent", claims.Role)
}

func TestValidateJWTAlwaysErrorsOnBadToken(t *testing.T) {
	token, err := GenerateJWT("test-secret", "u-1", "agent")
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", token},
		{"tampered token", "test-secret", token + "x"},
		{"garbage", "test-secret", "not.a.jwt"},
		{"no secret", "", token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateJWT(tt.secret, tt.token)
			// A rejected token must carry an error; callers dereference the
			// claims whenever err is nil.
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
