package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 42, "customer", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)

	claims, err := VerifyToken(testAccessSecret, tok.Value, PurposeAccess)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 7, "admin", 7)
	require.NoError(t, err)

	claims, err := VerifyToken(testRefreshSecret, tok.Value, PurposeRefresh)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), tok.Exp, 5*time.Second)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 1, "customer", 15)
	require.NoError(t, err)

	_, err = VerifyToken("other-secret", tok.Value, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenPurposeMismatch(t *testing.T) {
	t.Run("refresh presented as access", func(t *testing.T) {
		tok, err := NewRefreshToken(testAccessSecret, 1, "customer", 7)
		require.NoError(t, err)

		_, err = VerifyToken(testAccessSecret, tok.Value, PurposeAccess)
		assert.ErrorIs(t, err, ErrWrongPurpose)
	})

	t.Run("access presented as refresh", func(t *testing.T) {
		tok, err := NewAccessToken(testAccessSecret, 1, "customer", 15)
		require.NoError(t, err)

		_, err = VerifyToken(testAccessSecret, tok.Value, PurposeRefresh)
		assert.ErrorIs(t, err, ErrWrongPurpose)
	})
}

func TestVerifyTokenExpired(t *testing.T) {
	claims := Claims{
		UserID:  1,
		Role:    "customer",
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	_, err = VerifyToken(testAccessSecret, signed, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken(testAccessSecret, "not-a-jwt", PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A token signed with an unexpected algorithm must be rejected even if
// the payload is well-formed.
func TestVerifyTokenRejectsUnsignedAlg(t *testing.T) {
	claims := Claims{
		UserID:  1,
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyToken(testAccessSecret, signed, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
