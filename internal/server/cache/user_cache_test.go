package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*UserCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewUserCache(rdb, ttl), mr
}

func TestUserCache_MissThenHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := models.PublicUser{ID: "u-1", UserName: "alice", CreatedAt: ts, UpdatedAt: ts}
	require.NoError(t, c.SetUser(ctx, in, 0))

	got, ok, err := c.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, got)
}

func TestUserCache_EmptyListIsAHit(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetList(ctx, []models.PublicUser{}, 0))

	list, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, list)
}

func TestUserCache_InvalidateUser(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-1"}, 0))
	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-2"}, 0))
	require.NoError(t, c.SetList(ctx, []models.PublicUser{{ID: "u-1"}, {ID: "u-2"}}, 0))

	require.NoError(t, c.InvalidateUser(ctx, "u-1"))

	assert.False(t, mr.Exists(keyUser+"u-1"))
	assert.False(t, mr.Exists(keyList))
	assert.True(t, mr.Exists(keyUser+"u-2"))

	v, err := c.UserVersion(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = c.ListVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = c.UserVersion(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestUserCache_FillAfterInvalidateIsDropped(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	userVer, err := c.UserVersion(ctx, "u-1")
	require.NoError(t, err)
	listVer, err := c.ListVersion(ctx)
	require.NoError(t, err)

	require.NoError(t, c.InvalidateUser(ctx, "u-1"))

	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-1", UserName: "alice"}, userVer))
	require.NoError(t, c.SetList(ctx, []models.PublicUser{{ID: "u-1"}}, listVer))
	assert.False(t, mr.Exists(keyUser+"u-1"))
	assert.False(t, mr.Exists(keyList))

	userVer, err = c.UserVersion(ctx, "u-1")
	require.NoError(t, err)
	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-1", UserName: "bob"}, userVer))

	got, ok, err := c.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", got.UserName)
}

func TestUserCache_OtherUsersDoNotBlockFill(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	v, err := c.UserVersion(ctx, "u-1")
	require.NoError(t, err)
	require.NoError(t, c.InvalidateUser(ctx, "u-2"))

	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-1"}, v))
	assert.True(t, mr.Exists(keyUser+"u-1"))
}

func TestUserCache_TTL(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.SetUser(ctx, models.PublicUser{ID: "u-1"}, 0))
	assert.Equal(t, 30*time.Second, mr.TTL(keyUser+"u-1"))

	mr.FastForward(31 * time.Second)
	_, ok, err := c.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(keyUser+"u-1", "{not json"))

	_, ok, err := c.GetUser(context.Background(), "u-1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestUserCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, err := c.GetUser(context.Background(), "u-1")
	assert.Error(t, err)
}
