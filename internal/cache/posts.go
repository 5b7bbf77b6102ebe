package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PostIndexPrefix is the key prefix for per-user post indexes
	PostIndexPrefix = "posts:user:"

	// PostIndexCap is the maximum number of post IDs kept per user
	PostIndexCap = 1000

	// PostIndexTTL expires idle indexes; a miss falls through to Postgres
	PostIndexTTL = 7 * 24 * time.Hour
)

// PostScore pairs a post ID with its creation timestamp score.
type PostScore struct {
	PostID    int64
	Timestamp int64 // Unix timestamp
}

// PostIndex caches the IDs of a user's saved posts in a Redis sorted set,
// scored by creation time so the list endpoint can read newest-first without
// touching Postgres. The database stays the source of truth: a missing or
// stale index is rebuilt on the next list.
type PostIndex interface {
	// Add inserts a post into the owner's index and trims to the cap.
	Add(ctx context.Context, userID, postID int64, timestamp int64) error

	// Remove deletes a post from the owner's index.
	Remove(ctx context.Context, userID, postID int64) error

	// List returns all post IDs in the index, newest first.
	List(ctx context.Context, userID int64) ([]int64, error)

	// Warm bulk-loads an index from the database rows.
	Warm(ctx context.Context, userID int64, posts []PostScore) error

	// Exists reports whether the user has an index entry. False means the
	// caller should read Postgres and warm the index.
	Exists(ctx context.Context, userID int64) (bool, error)

	// Invalidate drops the whole index for a user.
	Invalidate(ctx context.Context, userID int64) error
}

// RedisPostIndex implements PostIndex on a Redis sorted set.
type RedisPostIndex struct {
	client *redis.Client
}

// NewPostIndex creates a PostIndex backed by Redis.
func NewPostIndex(client *redis.Client) PostIndex {
	return &RedisPostIndex{client: client}
}

func indexKey(userID int64) string {
	return fmt.Sprintf("%s%d", PostIndexPrefix, userID)
}

// Add pipelines ZADD + ZREMRANGEBYRANK (cap) + EXPIRE (refresh TTL).
func (c *RedisPostIndex) Add(ctx context.Context, userID, postID int64, timestamp int64) error {
	key := indexKey(userID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: postID,
	})
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(PostIndexCap + 1)))
	pipe.Expire(ctx, key, PostIndexTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add post to index: %w", err)
	}
	return nil
}

// Remove deletes one member with ZREM.
func (c *RedisPostIndex) Remove(ctx context.Context, userID, postID int64) error {
	if err := c.client.ZRem(ctx, indexKey(userID), postID).Err(); err != nil {
		return fmt.Errorf("remove post from index: %w", err)
	}
	return nil
}

// List reads the full index newest-first with ZREVRANGE.
func (c *RedisPostIndex) List(ctx context.Context, userID int64) ([]int64, error) {
	members, err := c.client.ZRevRange(ctx, indexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read post index: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue // skip malformed members
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Warm bulk-inserts with pipelined ZADD + EXPIRE.
func (c *RedisPostIndex) Warm(ctx context.Context, userID int64, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	key := indexKey(userID)
	pipe := c.client.Pipeline()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: p.PostID,
		}
	}
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-(PostIndexCap + 1)))
	pipe.Expire(ctx, key, PostIndexTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm post index: %w", err)
	}
	return nil
}

// Exists checks whether the index key is present.
func (c *RedisPostIndex) Exists(ctx context.Context, userID int64) (bool, error) {
	n, err := c.client.Exists(ctx, indexKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check post index: %w", err)
	}
	return n > 0, nil
}

// Invalidate removes the index key entirely.
func (c *RedisPostIndex) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, indexKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate post index: %w", err)
	}
	return nil
}
