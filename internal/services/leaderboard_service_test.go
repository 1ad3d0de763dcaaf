package services

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrderingAndCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := newTestStack(t)
	lb := NewLeaderboardService(s.db, rdb)
	ctx := context.Background()

	alice := seedUser(t, s.db, "alice")
	bob := seedUser(t, s.db, "bob")
	carol := seedUser(t, s.db, "carol")
	require.NoError(t, s.db.Model(alice).Update("points", 300).Error)
	require.NoError(t, s.db.Model(bob).Update("points", 700).Error)
	require.NoError(t, s.db.Model(carol).Update("points", 100).Error)

	entries, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "bob", entries[0].Name)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[1].Name)
	assert.Equal(t, "carol", entries[2].Name)

	// Cache serves stale data until refreshed
	require.NoError(t, s.db.Model(carol).Update("points", 5000).Error)
	entries, err = lb.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "bob", entries[0].Name)

	require.NoError(t, lb.Refresh(ctx))
	entries, err = lb.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "carol", entries[0].Name)

	// Limit truncates
	entries, err = lb.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLeaderboardWithoutRedis(t *testing.T) {
	s := newTestStack(t)
	lb := NewLeaderboardService(s.db, nil)
	ctx := context.Background()

	seedUser(t, s.db, "solo")
	entries, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRank(t *testing.T) {
	s := newTestStack(t)
	lb := NewLeaderboardService(s.db, nil)
	ctx := context.Background()

	alice := seedUser(t, s.db, "alice")
	bob := seedUser(t, s.db, "bob")
	fresh := seedUser(t, s.db, "fresh")
	require.NoError(t, s.db.Model(alice).Update("points", 200).Error)
	require.NoError(t, s.db.Model(bob).Update("points", 400).Error)

	rank, err := lb.Rank(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	rank, err = lb.Rank(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	// No points yet means unranked
	rank, err = lb.Rank(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)

	_, err = lb.Rank(ctx, newUUID(t))
	assert.ErrorIs(t, err, ErrNotFound)
}
