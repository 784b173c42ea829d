package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	s := NewJWTService("test-secret")

	accessID, access, err := s.GenerateAccessToken(7, "alice")
	require.NoError(t, err)
	refreshID, refresh, err := s.GenerateRefreshToken(7, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, accessID, refreshID)

	claims, err := s.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, accessID, claims.ID)
	assert.Equal(t, TokenTypeAccess, claims.Type)

	claims, err = s.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, refreshID, claims.ID)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenExpiry), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_Rejects(t *testing.T) {
	s := NewJWTService("test-secret")

	_, token, err := NewJWTService("other-secret").GenerateAccessToken(1, "bob")
	require.NoError(t, err)
	_, err = s.ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	expired := NewJWTService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, token, err = expired.GenerateAccessToken(1, "bob")
	require.NoError(t, err)
	_, err = s.ValidateToken(token)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(unsigned)
	assert.Error(t, err, "alg none")

	_, err = s.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestJWTService_TokenTypesAreNotInterchangeable(t *testing.T) {
	s := NewJWTService("test-secret")

	_, access, err := s.GenerateAccessToken(7, "alice")
	require.NoError(t, err)
	_, refresh, err := s.GenerateRefreshToken(7, "alice")
	require.NoError(t, err)

	_, err = s.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = s.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	untyped := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{ID: "legacy", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	})
	legacy, err := untyped.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ValidateAccessToken(legacy)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = s.ValidateRefreshToken(legacy)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
