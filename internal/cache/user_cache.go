package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyUser     = "user:"
	keyUserList = "user:list"
)

// UserCache caches user documents and the user list in Redis.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUserCache returns a new UserCache.
func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl}
}

// cachedExercise keeps the stored date form so the cache never
// round-trips through a different representation than MongoDB.
type cachedExercise struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type cachedUser struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Exercises []cachedExercise `json:"exercises,omitempty"`
}

// GetUser returns the cached user or nil if miss.
func (c *UserCache) GetUser(ctx context.Context, id string) (*dom.User, error) {
	b, err := c.rdb.Get(ctx, keyUser+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cu cachedUser
	if err := json.Unmarshal(b, &cu); err != nil {
		return nil, err
	}
	u := fromCached(cu)
	return &u, nil
}

// SetUser stores the user in cache.
func (c *UserCache) SetUser(ctx context.Context, u dom.User) error {
	b, err := json.Marshal(toCached(u))
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyUser+u.ID, b, c.ttl).Err()
}

// GetList returns the cached user list or nil if miss.
func (c *UserCache) GetList(ctx context.Context) ([]dom.User, error) {
	b, err := c.rdb.Get(ctx, keyUserList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []cachedUser
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	out := make([]dom.User, len(list))
	for i := range list {
		out[i] = fromCached(list[i])
	}
	return out, nil
}

// SetList stores the user list in cache. Exercises are never cached here.
func (c *UserCache) SetList(ctx context.Context, list []dom.User) error {
	cached := make([]cachedUser, len(list))
	for i, u := range list {
		cached[i] = cachedUser{ID: u.ID, Username: u.Username}
	}
	b, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyUserList, b, c.ttl).Err()
}

// InvalidateUser drops a single user entry.
func (c *UserCache) InvalidateUser(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, keyUser+id).Err()
}

// InvalidateList drops the user list.
func (c *UserCache) InvalidateList(ctx context.Context) error {
	return c.rdb.Del(ctx, keyUserList).Err()
}

func toCached(u dom.User) cachedUser {
	cu := cachedUser{ID: u.ID, Username: u.Username}
	if len(u.Exercises) > 0 {
		cu.Exercises = make([]cachedExercise, len(u.Exercises))
		for i, e := range u.Exercises {
			cu.Exercises[i] = cachedExercise{Description: e.Description, Duration: e.Duration, Date: dom.FormatDate(e.Date)}
		}
	}
	return cu
}

func fromCached(cu cachedUser) dom.User {
	u := dom.User{ID: cu.ID, Username: cu.Username}
	if cu.Exercises != nil {
		u.Exercises = make([]dom.Exercise, len(cu.Exercises))
		for i, e := range cu.Exercises {
			u.Exercises[i] = dom.Exercise{Description: e.Description, Duration: e.Duration, Date: dom.ParseStoredDate(e.Date)}
		}
	}
	return u
}
