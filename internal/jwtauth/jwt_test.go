package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certreg/pkg/domain"
	dErrors "certreg/pkg/domain-errors"
)

func testPrincipal(t *testing.T) domain.Principal {
	t.Helper()
	p, err := domain.ParsePrincipal("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.NoError(t, err)
	return p
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "certreg", "certreg-api")
	principal := testPrincipal(t)

	token, err := svc.GenerateAccessToken(principal, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal)
	assert.NotEmpty(t, claims.TokenID)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := NewService("test-signing-key", "certreg", "certreg-api")
	principal := testPrincipal(t)

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(principal, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("different-key", "certreg", "certreg-api")
		token, err := other.GenerateAccessToken(principal, time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
