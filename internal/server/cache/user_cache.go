// Package cache keeps public user views in Redis so repeated reads skip the
// store.
//
// Every entry is guarded by a generation counter. Readers take the
// generation before they go to the store and the fill is dropped when a
// write has bumped it in the meantime, so a slow read never puts back a
// view that an invalidation already removed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyList    = "userdir:list"
	keyUser    = "userdir:user:"
	keyGenList = "userdir:gen:list"
	keyGenUser = "userdir:gen:user:"
)

// setIfGeneration writes ARGV[2] to KEYS[2] only while KEYS[1] still holds
// the generation in ARGV[1]. A missing counter is generation 0. ARGV[3] is
// the TTL in milliseconds, 0 means no expiry.
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// UserCache caches single views and the full list with a shared TTL.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

func (c *UserCache) GetUser(ctx context.Context, id string) (models.PublicUser, bool, error) {
	var u models.PublicUser
	ok, err := c.get(ctx, keyUser+id, &u)
	return u, ok, err
}

// UserVersion returns the current generation of id.
func (c *UserCache) UserVersion(ctx context.Context, id string) (int64, error) {
	return c.generation(ctx, keyGenUser+id)
}

// SetUser stores u unless id was invalidated after version was read.
func (c *UserCache) SetUser(ctx context.Context, u models.PublicUser, version int64) error {
	return c.set(ctx, keyGenUser+u.ID, keyUser+u.ID, u, version)
}

func (c *UserCache) GetList(ctx context.Context) ([]models.PublicUser, bool, error) {
	var list []models.PublicUser
	ok, err := c.get(ctx, keyList, &list)
	return list, ok, err
}

// ListVersion returns the current generation of the list.
func (c *UserCache) ListVersion(ctx context.Context) (int64, error) {
	return c.generation(ctx, keyGenList)
}

// SetList stores list unless any user was invalidated after version was read.
func (c *UserCache) SetList(ctx context.Context, list []models.PublicUser, version int64) error {
	return c.set(ctx, keyGenList, keyList, list, version)
}

// InvalidateUser bumps the generations of id and the list, then drops both
// entries.
func (c *UserCache) InvalidateUser(ctx context.Context, id string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, keyGenUser+id)
		pipe.Incr(ctx, keyGenList)
		pipe.Del(ctx, keyUser+id, keyList)
		return nil
	})
	return err
}

func (c *UserCache) generation(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *UserCache) get(ctx context.Context, key string, v any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, err
	}
	return true, nil
}

// set is a no-op when genKey moved past version.
func (c *UserCache) set(ctx context.Context, genKey, key string, v any, version int64) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return setIfGeneration.Run(ctx, c.rdb, []string{genKey, key},
		strconv.FormatInt(version, 10), b, c.ttl.Milliseconds()).Err()
}
