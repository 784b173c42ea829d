package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore(nil)

	require.NoError(t, store.StoreRefreshToken(ctx, "id", 1, "testuser", time.Minute))

	_, _, err := store.GetRefreshToken(ctx, "id")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.BlacklistAccessToken(ctx, "access", time.Minute))
	revoked, err := store.IsAccessTokenBlacklisted(ctx, "access")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, store.DeleteRefreshToken(ctx, "id"))
}
