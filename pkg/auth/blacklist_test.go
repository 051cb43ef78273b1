package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/famloop/backend/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)

	return client, mr
}

func TestTokenBlacklist_Add(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client)
	ctx := context.Background()

	err := blacklist.Add(ctx, "test.jwt.token", time.Hour)
	assert.NoError(t, err)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "test.jwt.token")
	assert.NoError(t, err)
	assert.True(t, isBlacklisted, "Token should be blacklisted")
}

func TestTokenBlacklist_IsBlacklisted_NotFound(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client)

	isBlacklisted, err := blacklist.IsBlacklisted(context.Background(), "nonexistent.jwt.token")
	assert.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestTokenBlacklist_Expiration(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client)
	ctx := context.Background()

	require.NoError(t, blacklist.Add(ctx, "short.lived.token", time.Minute))

	// Advance miniredis past the TTL
	mr.FastForward(2 * time.Minute)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "short.lived.token")
	assert.NoError(t, err)
	assert.False(t, isBlacklisted, "Token should expire with its TTL")
}

func TestTokenBlacklist_RawTokenNotStored(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client)
	require.NoError(t, blacklist.Add(context.Background(), "raw.jwt.value", time.Hour))

	// Only the hash appears in key names
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "raw.jwt.value")
	}
}
